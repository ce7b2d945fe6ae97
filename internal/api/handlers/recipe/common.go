package recipe

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"touille/internal/core/ai/provider"
	"touille/internal/core/pipeline"
	core "touille/internal/core/recipe"
	"touille/internal/pkg/common"
)

// Processor 影片處理流程
type Processor interface {
	Process(ctx context.Context, rawURL string, opts pipeline.Options) (*pipeline.Result, error)
}

// Store handler 需要的儲存層操作
type Store interface {
	GetByID(ctx context.Context, id int64, userID string) (*core.Record, error)
	ListForUser(ctx context.Context, userID string) ([]core.Summary, error)
	GetSettings(ctx context.Context, userID string) (*core.Settings, error)
	SetSettings(ctx context.Context, userID string, update core.SettingsUpdate) (*core.Settings, error)
}

// Assistant 烹飪助理
type Assistant interface {
	Reply(ctx context.Context, req core.ChatRequest, onChunk provider.ChunkFunc) error
}

// Handler 食譜相關的 HTTP 處理程序
type Handler struct {
	processor Processor
	store     Store
	assistant Assistant
	debug     bool
}

// NewHandler 創建新的食譜處理程序，debug 時錯誤回應包含詳細原因
func NewHandler(processor Processor, store Store, assistant Assistant, debug bool) *Handler {
	return &Handler{
		processor: processor,
		store:     store,
		assistant: assistant,
		debug:     debug,
	}
}

// getRequestID 取得 requestid 中間件產生的 ID
func getRequestID(c *gin.Context) string {
	if id := requestid.Get(c); id != "" {
		return id
	}
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	id := uuid.New().String()
	c.Header("X-Request-ID", id)
	return id
}

// requireUserID 讀取必填的 user_id 查詢參數
func requireUserID(c *gin.Context) (string, error) {
	userID := strings.TrimSpace(c.Query("user_id"))
	if userID == "" {
		return "", common.NewValidationError("user_id is required")
	}
	return userID, nil
}

// respondError 把錯誤轉成 ErrorResponse
func (h *Handler) respondError(c *gin.Context, requestID string, err error) {
	ce := common.AsCustomError(err)
	resp := common.ErrorResponse{
		Error:     ce.Message,
		Code:      ce.Code,
		Retryable: ce.Retryable,
	}
	if stage, ok := pipeline.StageOf(err); ok {
		resp.Stage = string(stage)
	}
	if h.debug && ce.Err != nil {
		resp.Details = ce.Err.Error()
	}

	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("code", ce.Code),
		zap.Int("status", ce.Status),
		zap.Error(err),
	}
	if ce.Status >= 500 {
		common.LogError("請求處理失敗", fields...)
	} else {
		common.LogWarn("請求無效", fields...)
	}

	c.AbortWithStatusJSON(ce.Status, resp)
}

// bindError 請求格式錯誤
func bindError(err error) error {
	var ce *common.CustomError
	if errors.As(err, &ce) {
		return err
	}
	return common.ErrInvalidRequest.WithMessage("Invalid request format").Wrap(err)
}
