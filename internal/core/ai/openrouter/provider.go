package openrouter

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"touille/internal/core/ai/provider"
	"touille/internal/pkg/common"
)

// Provider OpenRouter chat completions 提供者
type Provider struct {
	client    *resty.Client
	model     string
	maxTokens int
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Stream    bool          `json:"stream,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// New 創建 OpenRouter 提供者
// 不設定 client.SetTimeout，它會連串流的 body 讀取一起截斷
func New(cfg provider.Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("HTTP-Referer", "https://github.com/touille").
		SetHeader("X-Title", "Touille")

	return &Provider{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Name 供應商名稱
func (p *Provider) Name() string { return "openrouter" }

// GetModel 獲取當前使用的模型名稱
func (p *Provider) GetModel() string { return p.model }

// Close 關閉閒置連線
func (p *Provider) Close() error {
	p.client.GetClient().CloseIdleConnections()
	return nil
}

// Complete 取得完整回應
func (p *Provider) Complete(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(p.buildRequest(req, false)).
		Post("/chat/completions")
	if err != nil {
		return nil, eris.Wrap(err, "openrouter: send request")
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, eris.Errorf("openrouter: API returned %d: %s", resp.StatusCode(), resp.String())
	}

	var result chatResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, eris.Wrap(err, "openrouter: parse response")
	}

	if len(result.Choices) == 0 {
		return nil, eris.New("openrouter: no choices in response")
	}

	return &provider.Response{
		Content:    result.Choices[0].Message.Content,
		Model:      result.Model,
		StopReason: result.Choices[0].FinishReason,
		Usage: provider.Usage{
			InputTokens:  result.Usage.PromptTokens,
			OutputTokens: result.Usage.CompletionTokens,
		},
	}, nil
}

// Stream 讀取 SSE 串流，遇到 [DONE] 結束
func (p *Provider) Stream(ctx context.Context, req *provider.Request, onChunk provider.ChunkFunc) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/event-stream").
		SetBody(p.buildRequest(req, true)).
		SetDoNotParseResponse(true).
		Post("/chat/completions")
	if err != nil {
		return eris.Wrap(err, "openrouter: send stream request")
	}

	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(body, 4096))
		return eris.Errorf("openrouter: API returned %d: %s", resp.StatusCode(), strings.TrimSpace(string(raw)))
	}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		// 空行與 ": OPENROUTER PROCESSING" 之類的註解行
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			return nil
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			common.LogWarn("OpenRouter 串流資料無法解析", zap.String("data", common.Truncate(data, 80)))
			continue
		}
		if chunk.Error != nil {
			return eris.Errorf("openrouter: stream error: %s", chunk.Error.Message)
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			if err := onChunk(choice.Delta.Content); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return eris.Wrap(err, "openrouter: read stream")
	}
	return nil
}

func (p *Provider) buildRequest(req *provider.Request, stream bool) chatRequest {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.maxTokens
	}
	messages := make([]chatMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	return chatRequest{
		Model:     p.model,
		Messages:  messages,
		MaxTokens: maxTokens,
		Stream:    stream,
	}
}
