package provider

import "context"

// Message 表示與 AI 模型的對話消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request 表示發送到 AI 提供者的請求
type Request struct {
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

// Usage token 用量
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Response 表示從 AI 提供者收到的響應
type Response struct {
	Content    string `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      Usage  `json:"usage"`
}

// ChunkFunc 每收到一段串流文字呼叫一次，回傳錯誤會中止串流
type ChunkFunc func(chunk string) error

// Provider 定義 AI 提供者介面
type Provider interface {
	// Complete 取得完整回應
	Complete(ctx context.Context, req *Request) (*Response, error)

	// Stream 以串流方式回傳文字
	Stream(ctx context.Context, req *Request, onChunk ChunkFunc) error

	// Name 供應商名稱
	Name() string

	// GetModel 獲取當前使用的模型名稱
	GetModel() string

	// Close 關閉提供者連接
	Close() error
}

// Config 定義 AI 提供者配置
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
}
