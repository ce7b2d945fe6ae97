package anthropic

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"touille/internal/core/ai/provider"
)

// Provider 以官方 SDK 呼叫 Anthropic Messages API
type Provider struct {
	client    sdk.Client
	model     string
	maxTokens int
}

// New 創建 Anthropic 提供者，SDK 內建重試會被關閉
// 不設定 client 層級的逾時，Complete 的時限由 ctx 決定，串流不受限
func New(cfg provider.Config) *Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Provider{
		client:    sdk.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Name 供應商名稱
func (p *Provider) Name() string { return "anthropic" }

// GetModel 獲取當前使用的模型名稱
func (p *Provider) GetModel() string { return p.model }

// Close SDK client 不需要釋放資源
func (p *Provider) Close() error { return nil }

// Complete 取得完整回應，多個 text block 會串接
func (p *Provider) Complete(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	msg, err := p.client.Messages.New(ctx, p.params(req))
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: create message")
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	return &provider.Response{
		Content:    b.String(),
		Model:      string(msg.Model),
		StopReason: string(msg.StopReason),
		Usage: provider.Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}, nil
}

// Stream 逐段回傳文字，ctx 取消時停止讀取
func (p *Provider) Stream(ctx context.Context, req *provider.Request, onChunk provider.ChunkFunc) error {
	stream := p.client.Messages.NewStreaming(ctx, p.params(req))
	defer stream.Close()

	for stream.Next() {
		event := stream.Current()
		switch ev := event.AsAny().(type) {
		case sdk.ContentBlockDeltaEvent:
			delta, ok := ev.Delta.AsAny().(sdk.TextDelta)
			if !ok || delta.Text == "" {
				continue
			}
			if err := onChunk(delta.Text); err != nil {
				return err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return eris.Wrap(err, "anthropic: stream message")
	}
	return nil
}

func (p *Provider) params(req *provider.Request) sdk.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.maxTokens
	}
	params := sdk.MessageNewParams{
		Model:     sdk.Model(p.model),
		MaxTokens: int64(maxTokens),
		Messages:  toSDKMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	return params
}

func toSDKMessages(msgs []provider.Message) []sdk.MessageParam {
	out := make([]sdk.MessageParam, len(msgs))
	for i, m := range msgs {
		block := sdk.NewTextBlock(m.Content)
		switch m.Role {
		case "assistant":
			out[i] = sdk.NewAssistantMessage(block)
		default:
			out[i] = sdk.NewUserMessage(block)
		}
	}
	return out
}
