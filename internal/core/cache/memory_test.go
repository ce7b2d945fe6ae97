package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"touille/internal/core/recipe"
	"touille/internal/infrastructure/config"
)

func testConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:         true,
		Driver:          config.CacheMemory,
		MaxSize:         2,
		TTL:             time.Hour,
		CleanupInterval: time.Hour,
	}
}

func record(id int64, title string) *recipe.Record {
	return &recipe.Record{ID: id, URL: "https://x/video", UserID: recipe.AnonymousUserID, Recipe: recipe.Recipe{Title: title}}
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("https://x/video?si=abc#frag", ""), Key("https://x/video", recipe.AnonymousUserID))
	assert.NotEqual(t, Key("https://x/video", "alice"), Key("https://x/video", "bob"))
	assert.NotEqual(t, Key("https://x/video", ""), Key("https://x/video", "alice"))
}

func TestMemoryCache_SetGet(t *testing.T) {
	m := NewMemory(testConfig())
	defer m.Close()
	ctx := context.Background()

	rec, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, rec)

	require.NoError(t, m.Set(ctx, "k", record(1, "Soup")))
	rec, ok, err = m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Soup", rec.Recipe.Title)

	// 回傳的是副本
	rec.Recipe.Title = "changed"
	again, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "Soup", again.Recipe.Title)

	require.NoError(t, m.Delete(ctx, "k"))
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryCache_Expiry(t *testing.T) {
	cfg := testConfig()
	cfg.TTL = time.Millisecond
	m := NewMemory(cfg)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", record(1, "Soup")))
	time.Sleep(5 * time.Millisecond)

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(1), m.Stats()["evictions"])
}

func TestMemoryCache_EvictsLeastUsed(t *testing.T) {
	m := NewMemory(testConfig())
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", record(1, "A")))
	require.NoError(t, m.Set(ctx, "b", record(2, "B")))
	_, _, _ = m.Get(ctx, "a")

	require.NoError(t, m.Set(ctx, "c", record(3, "C")))

	_, okA, _ := m.Get(ctx, "a")
	_, okB, _ := m.Get(ctx, "b")
	_, okC, _ := m.Get(ctx, "c")
	assert.True(t, okA)
	assert.False(t, okB)
	assert.True(t, okC)
	assert.Equal(t, 2, m.Stats()["size"])
}

func TestMemoryCache_OverwriteDoesNotEvict(t *testing.T) {
	m := NewMemory(testConfig())
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", record(1, "A")))
	require.NoError(t, m.Set(ctx, "b", record(2, "B")))
	require.NoError(t, m.Set(ctx, "a", record(1, "A2")))

	a, ok, _ := m.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "A2", a.Recipe.Title)
	_, okB, _ := m.Get(ctx, "b")
	assert.True(t, okB)
}

func TestMemoryCache_CloseIsIdempotent(t *testing.T) {
	m := NewMemory(testConfig())
	assert.NoError(t, m.Close())
	assert.NoError(t, m.Close())
}

func TestMemoryCache_ResultsDoNotShareState(t *testing.T) {
	m := NewMemory(testConfig())
	defer m.Close()
	ctx := context.Background()

	in := record(1, "Pancakes")
	in.Recipe.Steps = []recipe.Step{{Order: 1, Instruction: "mix"}}
	in.Recipe.Tags = []string{"breakfast"}
	require.NoError(t, m.Set(ctx, "k", in))
	in.Recipe.Tags[0] = "changed after set"

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	got.Recipe.Steps[0].Instruction = "changed after get"
	got.Recipe.Tags = append(got.Recipe.Tags, "extra")

	again, _, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "mix", again.Recipe.Steps[0].Instruction)
	assert.Equal(t, []string{"breakfast"}, again.Recipe.Tags)
}
