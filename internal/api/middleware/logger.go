package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"touille/internal/pkg/common"
)

// probePaths 探針請求成功時只記 debug
var probePaths = map[string]bool{
	"/health": true,
	"/ready":  true,
	"/live":   true,
}

// Logger 記錄每個請求的結果、耗時與所屬使用者
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		fields := []zap.Field{
			zap.String("request_id", requestid.Get(c)),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if user := strings.TrimSpace(c.Query("user_id")); user != "" {
			fields = append(fields, zap.String("user_id", user))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			common.LogError("請求失敗", fields...)
		case status >= http.StatusBadRequest:
			common.LogWarn("請求被拒絕", fields...)
		case probePaths[route]:
			common.LogDebug("探針", fields...)
		default:
			common.LogInfo("請求完成", fields...)
		}
	}
}

// Recovery 攔截 panic，回傳 JSON 錯誤而不是中斷連線
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				common.LogError("Panic recovered",
					zap.Any("panic", rec),
					zap.String("route", c.FullPath()),
					zap.String("request_id", requestid.Get(c)),
					zap.Stack("stack"),
				)
				abortWithError(c, common.ErrInternalError)
			}
		}()

		c.Next()
	}
}

// abortWithError 中間件共用的錯誤回應
func abortWithError(c *gin.Context, ce *common.CustomError) {
	c.AbortWithStatusJSON(ce.Status, common.ErrorResponse{
		Error:     ce.Message,
		Code:      ce.Code,
		Retryable: ce.Retryable,
	})
}
