package recipe

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"touille/internal/core/pipeline"
	"touille/internal/pkg/common"
)

// ProcessRequest 處理影片請求
type ProcessRequest struct {
	URL    string `json:"url" binding:"required"`
	UserID string `json:"user_id,omitempty"`
}

// HandleProcess 影片轉食譜，同一使用者重複的網址直接回傳快取
func (h *Handler) HandleProcess(c *gin.Context) {
	requestID := getRequestID(c)

	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, requestID, bindError(err))
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if err := validateVideoURL(req.URL); err != nil {
		h.respondError(c, requestID, err)
		return
	}

	common.LogInfo("開始處理影片",
		zap.String("request_id", requestID),
		zap.String("url", req.URL),
		zap.String("user_id", req.UserID),
		zap.String("client_ip", c.ClientIP()),
	)

	result, err := h.processor.Process(c.Request.Context(), req.URL, pipeline.Options{
		UserID:    strings.TrimSpace(req.UserID),
		RequestID: requestID,
	})
	if err != nil {
		h.respondError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func validateVideoURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return common.NewValidationError("url must be an http(s) URL")
	}
	return nil
}
