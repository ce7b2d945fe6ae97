package recipe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"touille/internal/core/ai/provider"
	"touille/internal/pkg/common"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	args := m.Called(ctx, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*provider.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

const omelette = "```json\n" + `{
  "title": "  Omelette ",
  "servings": {"amount": 1, "unit": "serving"},
  "ingredients": [{"name": "eggs", "amount": 2, "unit": null}, {"name": " "}],
  "steps": [
    {"order": 4, "instruction": "Whisk the eggs"},
    {"order": 9, "instruction": "Cook for 3 minutes", "duration_minutes": 3, "require_timer": true}
  ],
  "tags": ["Breakfast", "breakfast", "quick"],
  "equipment": ["pan", "Pan"]
}` + "\n```"

func TestParseDocument_Normalizes(t *testing.T) {
	doc, err := ParseDocument(omelette)
	require.NoError(t, err)

	assert.Equal(t, "Omelette", doc.Title)
	require.Len(t, doc.Ingredients, 1)
	assert.Equal(t, "eggs", doc.Ingredients[0].Name)
	require.Len(t, doc.Steps, 2)
	assert.Equal(t, 1, doc.Steps[0].Order)
	assert.Equal(t, 2, doc.Steps[1].Order)
	assert.True(t, doc.Steps[1].RequireTimer)
	assert.Equal(t, []string{"Breakfast", "quick"}, doc.Tags)
	assert.Equal(t, []string{"pan"}, doc.Equipment)
	assert.NotNil(t, doc.Modifications)
	assert.Empty(t, doc.Modifications)
}

func TestParseDocument_EmptyCollections(t *testing.T) {
	doc, err := ParseDocument(`{"title":"Toast"}`)
	require.NoError(t, err)
	assert.NotNil(t, doc.Ingredients)
	assert.NotNil(t, doc.Steps)
	assert.NotNil(t, doc.Tags)
	assert.NotNil(t, doc.Equipment)
	assert.NotNil(t, doc.Modifications)
}

func TestParseDocument_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no json", "I could not find a recipe in this video."},
		{"missing title", `{"ingredients": []}`},
		{"wrong shape", `{"title": "Soup", "steps": "boil water"}`},
		{"truncated", `{"title": "Soup", "steps": [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestExtractor_Extract(t *testing.T) {
	m := new(mockCompleter)
	caption := "2 eggs"
	prefs := &Settings{UserID: "u1", SpiceTolerance: 3}

	m.On("Complete", mock.Anything, mock.MatchedBy(func(req *provider.Request) bool {
		return req.MaxTokens == 4096 &&
			len(req.Messages) == 1 &&
			req.Messages[0].Role == RoleUser &&
			req.Messages[0].Content == "Video caption:\n\n2 eggs\n\n---\n\nTranscript:\n\nwhisk eggs" &&
			assert.Contains(t, req.System, "- Spice tolerance: medium")
	})).Return(&provider.Response{Content: `{"title":"Omelette","modifications":[{"what":"added chili","why":"spice"}]}`}, nil).Once()

	doc, err := NewExtractor(m, 4096).Extract(context.Background(), "whisk eggs", &caption, prefs)
	require.NoError(t, err)
	assert.Equal(t, "Omelette", doc.Title)
	assert.Equal(t, []Modification{{What: "added chili", Why: "spice"}}, doc.Modifications)
	m.AssertExpectations(t)
}

func TestExtractor_ModelOutputInvalid(t *testing.T) {
	m := new(mockCompleter)
	m.On("Complete", mock.Anything, mock.Anything).Return(&provider.Response{Content: "not json"}, nil)

	_, err := NewExtractor(m, 1024).Extract(context.Background(), "t", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrExtractionFailed))
}

func TestExtractor_ModelCallFails(t *testing.T) {
	m := new(mockCompleter)
	m.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("upstream 529"))

	_, err := NewExtractor(m, 1024).Extract(context.Background(), "t", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrExtractionFailed))
}

func TestExtractor_KeepsTypedProviderError(t *testing.T) {
	m := new(mockCompleter)
	m.On("Complete", mock.Anything, mock.Anything).Return(nil, common.ErrConfiguration.WithMessage("ANTHROPIC_API_KEY is not configured"))

	_, err := NewExtractor(m, 1024).Extract(context.Background(), "t", nil, nil)
	assert.True(t, errors.Is(err, common.ErrConfiguration))
}

func TestNormalize_StepOrder(t *testing.T) {
	tests := []struct {
		name  string
		steps []Step
		want  []string
	}{
		{
			name:  "sorted by declared order",
			steps: []Step{{Order: 2, Instruction: "bake"}, {Order: 1, Instruction: "mix"}},
			want:  []string{"mix", "bake"},
		},
		{
			name:  "ties keep array position",
			steps: []Step{{Order: 1, Instruction: "a"}, {Order: 3, Instruction: "c"}, {Order: 1, Instruction: "b"}},
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "missing order keeps array position",
			steps: []Step{{Order: 2, Instruction: "bake"}, {Instruction: "mix"}},
			want:  []string{"bake", "mix"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &Recipe{Title: "Bread", Steps: tt.steps}
			require.NoError(t, Normalize(doc))

			got := make([]string, len(doc.Steps))
			for i, s := range doc.Steps {
				got[i] = s.Instruction
				assert.Equal(t, i+1, s.Order)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
