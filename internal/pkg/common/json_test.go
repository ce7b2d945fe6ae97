package common

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"bare", `{"a":1}`, `{"a":1}`, true},
		{"fenced", "```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`, true},
		{"prose around", `Here you go: {"a":1} enjoy`, `{"a":1}`, true},
		{"no object", "sorry, I cannot help", "", false},
		{"reversed braces", "} {", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJSON_RejectsTrailingData(t *testing.T) {
	var v map[string]any
	require.NoError(t, ParseJSON(`{"a":1}`, &v))
	assert.Error(t, ParseJSON(`{"a":1} {"b":2}`, &v))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab…", Truncate("abcdef", 2))
	assert.Equal(t, "番茄…", Truncate("番茄炒蛋", 2))
}

func TestParseJSON_KeepsNumbers(t *testing.T) {
	var v map[string]any
	require.NoError(t, ParseJSONBytes([]byte("{\"amount\": 1.50}\n"), &v))
	assert.Equal(t, "1.50", v["amount"].(fmt.Stringer).String())
}

func TestTruncate_NonPositive(t *testing.T) {
	assert.Equal(t, "", Truncate("abc", 0))
}
