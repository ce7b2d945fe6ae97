package recipe

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"touille/internal/core/ai/provider"
	"touille/internal/pkg/common"
)

// Completer 取得模型單次完整回應
type Completer interface {
	Complete(ctx context.Context, req *provider.Request) (*provider.Response, error)
}

// Extractor 從逐字稿與字幕萃取食譜
type Extractor struct {
	model     Completer
	maxTokens int
}

// NewExtractor 創建新的食譜萃取器
func NewExtractor(model Completer, maxTokens int) *Extractor {
	return &Extractor{
		model:     model,
		maxTokens: maxTokens,
	}
}

// Extract 呼叫模型並驗證回傳的食譜文件
// 所有失敗都回傳 ErrExtractionFailed，屬於伺服器端錯誤
func (e *Extractor) Extract(ctx context.Context, transcript string, caption *string, prefs *Settings) (*Recipe, error) {
	req := &provider.Request{
		System:    BuildExtractionPrompt(prefs),
		Messages:  []provider.Message{{Role: RoleUser, Content: BuildExtractionInput(transcript, caption)}},
		MaxTokens: e.maxTokens,
	}

	start := time.Now()
	resp, err := e.model.Complete(ctx, req)
	if err != nil {
		var ce *common.CustomError
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, common.ErrExtractionFailed.Wrap(err)
	}

	common.LogDebug("AI 回應內容 (recipe/extract)",
		zap.Int("ai_response_length", len(resp.Content)),
		zap.String("output", resp.Content),
		zap.Duration("耗時", time.Since(start)),
	)

	doc, err := ParseDocument(resp.Content)
	if err != nil {
		return nil, common.ErrExtractionFailed.Wrap(err)
	}
	return doc, nil
}

// ParseDocument 解析模型輸出並正規化
func ParseDocument(raw string) (*Recipe, error) {
	content, ok := common.ExtractJSONObject(strings.TrimSpace(raw))
	if !ok {
		return nil, fmt.Errorf("model output contains no JSON object")
	}

	var doc Recipe
	if err := common.ParseJSON(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	if err := Normalize(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Normalize 補齊空集合、依宣告的 order 排序並重新編號步驟、去除重複的標籤與器具
func Normalize(doc *Recipe) error {
	doc.Title = strings.TrimSpace(doc.Title)
	if doc.Title == "" {
		return fmt.Errorf("recipe title is required")
	}

	ingredients := make([]Ingredient, 0, len(doc.Ingredients))
	for _, ing := range doc.Ingredients {
		ing.Name = strings.TrimSpace(ing.Name)
		if ing.Name == "" {
			continue
		}
		ingredients = append(ingredients, ing)
	}
	doc.Ingredients = ingredients

	steps := make([]Step, 0, len(doc.Steps))
	declared := true
	for _, step := range doc.Steps {
		step.Instruction = strings.TrimSpace(step.Instruction)
		if step.Instruction == "" {
			continue
		}
		if step.Order <= 0 {
			declared = false
		}
		steps = append(steps, step)
	}
	// 模型全部給了 order 時依它排序，否則保留陣列順序
	if declared {
		slices.SortStableFunc(steps, func(a, b Step) int { return cmp.Compare(a.Order, b.Order) })
	}
	// 確保 order 從 1 開始連續
	for i := range steps {
		steps[i].Order = i + 1
	}
	doc.Steps = steps

	doc.Tags = dedupe(doc.Tags)
	doc.Equipment = dedupe(doc.Equipment)

	if doc.Modifications == nil {
		doc.Modifications = []Modification{}
	}
	return nil
}

// dedupe 不分大小寫去除重複，保留第一次出現的寫法
func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
