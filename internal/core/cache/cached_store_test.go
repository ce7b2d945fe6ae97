package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"touille/internal/core/recipe"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Lookup(ctx context.Context, rawURL, userID string) (*recipe.Record, error) {
	args := m.Called(ctx, rawURL, userID)
	if rec := args.Get(0); rec != nil {
		return rec.(*recipe.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) Save(ctx context.Context, rawURL, transcript string, caption *string, doc recipe.Recipe, userID string) (int64, error) {
	args := m.Called(ctx, rawURL, transcript, caption, doc, userID)
	return args.Get(0).(int64), args.Error(1)
}

func TestCachedRecipes_LookupPopulatesCache(t *testing.T) {
	store := new(mockStore)
	mem := NewMemory(testConfig())
	defer mem.Close()
	c := NewCachedRecipes(store, mem)
	ctx := context.Background()

	store.On("Lookup", ctx, "https://x/video?si=1", "alice").Return(record(3, "Curry"), nil).Once()

	rec, err := c.Lookup(ctx, "https://x/video?si=1", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.ID)

	// 第二次由快取回應，即使參數不同也會命中同一個鍵
	rec, err = c.Lookup(ctx, "https://x/video#frag", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.ID)
	store.AssertExpectations(t)
}

func TestCachedRecipes_MissIsNotCached(t *testing.T) {
	store := new(mockStore)
	mem := NewMemory(testConfig())
	defer mem.Close()
	c := NewCachedRecipes(store, mem)
	ctx := context.Background()

	store.On("Lookup", ctx, "https://x/video", "").Return(nil, nil).Twice()

	for i := 0; i < 2; i++ {
		rec, err := c.Lookup(ctx, "https://x/video", "")
		require.NoError(t, err)
		assert.Nil(t, rec)
	}
	store.AssertExpectations(t)
}

func TestCachedRecipes_SaveInvalidates(t *testing.T) {
	store := new(mockStore)
	mem := NewMemory(testConfig())
	defer mem.Close()
	c := NewCachedRecipes(store, mem)
	ctx := context.Background()

	require.NoError(t, mem.Set(ctx, Key("https://x/video", ""), record(1, "Old")))
	doc := recipe.Recipe{Title: "New"}
	store.On("Save", ctx, "https://x/video?si=2", "t", (*string)(nil), doc, "").Return(int64(1), nil)

	id, err := c.Save(ctx, "https://x/video?si=2", "t", nil, doc, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	_, ok, _ := mem.Get(ctx, Key("https://x/video", ""))
	assert.False(t, ok)
}

func TestCachedRecipes_StoreErrorsPropagate(t *testing.T) {
	store := new(mockStore)
	mem := NewMemory(testConfig())
	defer mem.Close()
	c := NewCachedRecipes(store, mem)
	ctx := context.Background()
	down := errors.New("db down")

	store.On("Lookup", ctx, "u", "").Return(nil, down)
	store.On("Save", ctx, "u", "t", (*string)(nil), recipe.Recipe{}, "").Return(int64(0), down)

	_, err := c.Lookup(ctx, "u", "")
	assert.ErrorIs(t, err, down)
	_, err = c.Save(ctx, "u", "t", nil, recipe.Recipe{}, "")
	assert.ErrorIs(t, err, down)
}
