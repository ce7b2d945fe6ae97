package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"touille/internal/core/ai/anthropic"
	"touille/internal/core/ai/openrouter"
	"touille/internal/core/ai/provider"
	"touille/internal/infrastructure/config"
	"touille/internal/pkg/common"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Complete(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	args := m.Called(ctx, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*provider.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) Stream(ctx context.Context, req *provider.Request, onChunk provider.ChunkFunc) error {
	args := m.Called(ctx, req, onChunk)
	return args.Error(0)
}

func (m *mockProvider) Name() string     { return "mock" }
func (m *mockProvider) GetModel() string { return "mock-1" }
func (m *mockProvider) Close() error     { return nil }

func TestService_CompleteAppliesTimeout(t *testing.T) {
	p := new(mockProvider)
	p.On("Complete", mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) <= time.Minute
	}), mock.Anything).Return(&provider.Response{Content: "ok"}, nil)

	resp, err := NewService(p, time.Minute).Complete(context.Background(), &provider.Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	p.AssertExpectations(t)
}

func TestService_CompletePropagatesError(t *testing.T) {
	p := new(mockProvider)
	boom := errors.New("boom")
	p.On("Complete", mock.Anything, mock.Anything).Return(nil, boom)

	_, err := NewService(p, 0).Complete(context.Background(), &provider.Request{})
	assert.ErrorIs(t, err, boom)
}

func TestService_Stream(t *testing.T) {
	p := new(mockProvider)
	p.On("Stream", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		onChunk := args.Get(2).(provider.ChunkFunc)
		_ = onChunk("a")
		_ = onChunk("b")
	}).Return(nil)

	var got string
	svc := NewService(p, time.Second)
	err := svc.Stream(context.Background(), &provider.Request{}, func(chunk string) error {
		got += chunk
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ab", got)
	assert.Equal(t, "mock/mock-1", svc.ProviderName())
}

func TestNewProvider(t *testing.T) {
	cfg := &config.Config{
		LLM:       config.LLMConfig{Provider: config.ProviderAnthropic, MaxTokens: 1024},
		Anthropic: config.AnthropicConfig{APIKey: "sk-ant", Model: "claude"},
	}
	p, err := NewProvider(cfg)
	require.NoError(t, err)
	assert.IsType(t, &anthropic.Provider{}, p)

	cfg.LLM.Provider = config.ProviderOpenRouter
	cfg.OpenRouter = config.OpenRouterConfig{APIKey: "sk-or", Model: "x/y"}
	p, err = NewProvider(cfg)
	require.NoError(t, err)
	assert.IsType(t, &openrouter.Provider{}, p)
	assert.Equal(t, "x/y", p.GetModel())
}

func TestNewProvider_MissingKey(t *testing.T) {
	cfg := &config.Config{LLM: config.LLMConfig{Provider: config.ProviderAnthropic}}
	_, err := NewProvider(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrConfiguration))
}
