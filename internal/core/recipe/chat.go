package recipe

import (
	"fmt"
	"strconv"
	"strings"

	"touille/internal/pkg/common"
)

// ChatRequest 烹飪助理的一輪對話
type ChatRequest struct {
	Recipe         Recipe        `json:"recipe"`
	CurrentStep    int           `json:"current_step"`
	CompletedSteps []int         `json:"completed_steps"`
	Message        string        `json:"message"`
	History        []ChatMessage `json:"history"`
}

// Validate 檢查訊息與對話角色
func (r ChatRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return common.NewValidationError("message is required")
	}
	if strings.TrimSpace(r.Recipe.Title) == "" {
		return common.NewValidationError("recipe.title is required")
	}
	for i, m := range r.History {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return common.NewValidationError(fmt.Sprintf("history[%d].role must be user or assistant", i))
		}
	}
	return nil
}

const chatPrompt = `You are a friendly, hands-on cooking assistant. The user is cooking the recipe below right now and is asking you questions while they cook.

Keep answers short and practical: the user's hands are probably busy. Refer to steps by their number. If the user asks about something unrelated to cooking this recipe, gently steer back to the cook.
`

// BuildChatContext 組合系統提示與訊息序列
// 訊息序列為 history 原始順序，最後加上本輪的使用者訊息
func BuildChatContext(req ChatRequest) (string, []ChatMessage) {
	completed := make(map[int]bool, len(req.CompletedSteps))
	for _, order := range req.CompletedSteps {
		completed[order] = true
	}

	var b strings.Builder
	b.WriteString(chatPrompt)
	b.WriteString("\nRecipe: ")
	b.WriteString(req.Recipe.Title)
	b.WriteString("\n")
	if req.Recipe.Description != nil && *req.Recipe.Description != "" {
		b.WriteString("Description: ")
		b.WriteString(*req.Recipe.Description)
		b.WriteString("\n")
	}

	b.WriteString("\nIngredients:\n")
	for _, ing := range req.Recipe.Ingredients {
		b.WriteString("- ")
		b.WriteString(formatIngredient(ing))
		b.WriteString("\n")
	}

	b.WriteString("\nSteps:\n")
	for _, step := range req.Recipe.Steps {
		fmt.Fprintf(&b, "%d. %s", step.Order, step.Instruction)
		if completed[step.Order] {
			b.WriteString(" [COMPLETED]")
		}
		if step.Order == req.CurrentStep {
			b.WriteString(" [CURRENT]")
		}
		b.WriteString("\n")
	}

	messages := make([]ChatMessage, 0, len(req.History)+1)
	messages = append(messages, req.History...)
	messages = append(messages, ChatMessage{Role: RoleUser, Content: req.Message})
	return b.String(), messages
}

// formatIngredient 例如 "2 tbsp butter (softened)"
func formatIngredient(ing Ingredient) string {
	parts := make([]string, 0, 4)
	if ing.Amount != nil {
		parts = append(parts, strconv.FormatFloat(*ing.Amount, 'f', -1, 64))
	}
	if ing.Unit != nil && *ing.Unit != "" {
		parts = append(parts, *ing.Unit)
	}
	parts = append(parts, ing.Name)
	s := strings.Join(parts, " ")
	if ing.Notes != nil && *ing.Notes != "" {
		s += " (" + *ing.Notes + ")"
	}
	return s
}
