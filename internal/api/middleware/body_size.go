package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"touille/internal/pkg/common"
)

// BodySizeLimit 拒絕超過 maxBytes 的請求體，回傳 413
func BodySizeLimit(maxBytes int64) gin.HandlerFunc {
	tooLarge := common.NewError(
		common.ErrCodeInvalidRequest,
		fmt.Sprintf("request body exceeds %d bytes", maxBytes),
		http.StatusRequestEntityTooLarge,
		nil,
	)

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			common.LogWarn("Request body too large",
				zap.Int64("content_length", c.Request.ContentLength),
				zap.Int64("max_bytes", maxBytes),
				zap.String("route", c.FullPath()),
			)
			abortWithError(c, tooLarge)
			return
		}

		// chunked 請求在讀取超過上限時由 bind 失敗
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
