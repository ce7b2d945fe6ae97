package recipe

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	core "touille/internal/core/recipe"
	"touille/internal/pkg/common"
)

// HandleChat 以純文字串流回覆，第一段文字送出前的錯誤仍以 JSON 回應
func (h *Handler) HandleChat(c *gin.Context) {
	requestID := getRequestID(c)

	var req core.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, requestID, bindError(err))
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(c, requestID, err)
		return
	}

	common.LogInfo("開始烹飪助理對話",
		zap.String("request_id", requestID),
		zap.String("recipe", req.Recipe.Title),
		zap.Int("current_step", req.CurrentStep),
		zap.Int("history", len(req.History)),
	)

	started := false
	start := func() {
		if started {
			return
		}
		started = true
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Header("Cache-Control", "no-cache")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Status(http.StatusOK)
	}

	err := h.assistant.Reply(c.Request.Context(), req, func(chunk string) error {
		start()
		if _, err := c.Writer.WriteString(chunk); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		if !started {
			h.respondError(c, requestID, err)
			return
		}
		// 已開始串流，只能中斷連線
		common.LogWarn("串流中斷",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return
	}

	start()
	c.Writer.WriteHeaderNow()
}
