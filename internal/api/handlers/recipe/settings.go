package recipe

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	core "touille/internal/core/recipe"
	"touille/internal/pkg/common"
)

// HandleGetSettings 回傳使用者偏好，尚未設定時回傳 null
func (h *Handler) HandleGetSettings(c *gin.Context) {
	requestID := getRequestID(c)

	userID, err := requireUserID(c)
	if err != nil {
		h.respondError(c, requestID, err)
		return
	}

	st, err := h.store.GetSettings(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, requestID, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// HandlePutSettings 部分更新：未提供的欄位保留，null 清除
func (h *Handler) HandlePutSettings(c *gin.Context) {
	requestID := getRequestID(c)

	userID, err := requireUserID(c)
	if err != nil {
		h.respondError(c, requestID, err)
		return
	}

	var update core.SettingsUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		h.respondError(c, requestID, bindError(err))
		return
	}

	st, err := h.store.SetSettings(c.Request.Context(), userID, update)
	if err != nil {
		h.respondError(c, requestID, err)
		return
	}

	common.LogInfo("使用者偏好已更新",
		zap.String("request_id", requestID),
		zap.String("user_id", userID),
	)
	c.JSON(http.StatusOK, st)
}
