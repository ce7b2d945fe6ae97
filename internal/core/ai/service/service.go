package service

import (
	"context"
	"time"

	"touille/internal/core/ai/anthropic"
	"touille/internal/core/ai/openrouter"
	"touille/internal/core/ai/provider"
	"touille/internal/infrastructure/config"
	"touille/internal/pkg/common"
)

// Service AI 服務，統一超時與日誌
type Service struct {
	provider provider.Provider
	timeout  time.Duration
}

// NewService 以指定的提供者創建 AI 服務
func NewService(p provider.Provider, timeout time.Duration) *Service {
	return &Service{
		provider: p,
		timeout:  timeout,
	}
}

// NewProvider 依設定選擇提供者，缺少憑證時回傳 ConfigurationError
func NewProvider(cfg *config.Config) (provider.Provider, error) {
	pc := provider.Config{
		APIKey:    cfg.ModelAPIKey(),
		Model:     cfg.ModelName(),
		MaxTokens: cfg.LLM.MaxTokens,
	}
	if pc.APIKey == "" {
		return nil, common.ErrConfiguration.WithMessage(cfg.LLM.Provider + " API key is not configured")
	}

	switch cfg.LLM.Provider {
	case config.ProviderOpenRouter:
		pc.BaseURL = cfg.OpenRouter.BaseURL
		return openrouter.New(pc), nil
	case config.ProviderAnthropic:
		pc.BaseURL = cfg.Anthropic.BaseURL
		return anthropic.New(pc), nil
	default:
		return nil, common.ErrConfiguration.WithMessage("unsupported llm provider " + cfg.LLM.Provider)
	}
}

// Complete 取得完整回應
func (s *Service) Complete(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	resp, err := s.provider.Complete(ctx, req)
	common.LogAICall(s.provider.Name(), s.provider.GetModel(), time.Since(start), err)
	return resp, err
}

// Stream 串流回應，不套用 timeout，由呼叫端的 ctx 控制
func (s *Service) Stream(ctx context.Context, req *provider.Request, onChunk provider.ChunkFunc) error {
	start := time.Now()
	err := s.provider.Stream(ctx, req, onChunk)
	common.LogAICall(s.provider.Name(), s.provider.GetModel(), time.Since(start), err)
	return err
}

// ProviderName 供健康檢查顯示
func (s *Service) ProviderName() string {
	return s.provider.Name() + "/" + s.provider.GetModel()
}

// Close 關閉提供者
func (s *Service) Close() error {
	return s.provider.Close()
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
