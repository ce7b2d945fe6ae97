package recipe

import (
	"context"
	"errors"

	"touille/internal/core/ai/provider"
	"touille/internal/pkg/common"
)

// Streamer 以串流方式取得模型回應
type Streamer interface {
	Stream(ctx context.Context, req *provider.Request, onChunk provider.ChunkFunc) error
}

// Assistant 烹飪助理，對話內容不寫入儲存層
type Assistant struct {
	model     Streamer
	maxTokens int
}

// NewAssistant 創建烹飪助理
func NewAssistant(model Streamer, maxTokens int) *Assistant {
	return &Assistant{model: model, maxTokens: maxTokens}
}

// Reply 逐段把回覆交給 onChunk，onChunk 回傳錯誤或 ctx 結束時停止
func (a *Assistant) Reply(ctx context.Context, req ChatRequest, onChunk provider.ChunkFunc) error {
	if err := req.Validate(); err != nil {
		return err
	}

	system, history := BuildChatContext(req)
	messages := make([]provider.Message, 0, len(history))
	for _, m := range history {
		messages = append(messages, provider.Message{Role: m.Role, Content: m.Content})
	}

	err := a.model.Stream(ctx, &provider.Request{
		System:    system,
		Messages:  messages,
		MaxTokens: a.maxTokens,
	}, onChunk)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var ce *common.CustomError
	if errors.As(err, &ce) {
		return err
	}
	return common.ErrInternalError.WithMessage("Chat failed").Wrap(err)
}
