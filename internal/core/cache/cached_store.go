package cache

import (
	"context"

	"go.uber.org/zap"

	"touille/internal/core/recipe"
	"touille/internal/pkg/common"
)

// RecipeStore 被快取包裝的儲存層操作
type RecipeStore interface {
	Lookup(ctx context.Context, rawURL, userID string) (*recipe.Record, error)
	Save(ctx context.Context, rawURL, transcript string, caption *string, doc recipe.Recipe, userID string) (int64, error)
}

// CachedRecipes 在 Lookup 前加一層快取，Save 成功後讓對應的鍵失效
// 快取錯誤只記錄，不影響結果
type CachedRecipes struct {
	store RecipeStore
	cache Cache
}

// NewCachedRecipes 創建帶快取的 RecipeStore
func NewCachedRecipes(store RecipeStore, cache Cache) *CachedRecipes {
	return &CachedRecipes{store: store, cache: cache}
}

// Lookup 先查快取，未命中再查資料庫並回填
func (c *CachedRecipes) Lookup(ctx context.Context, rawURL, userID string) (*recipe.Record, error) {
	key := Key(rawURL, userID)

	rec, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		common.LogWarn("快取讀取失敗", zap.String("key", key), zap.Error(err))
	}
	if ok {
		return rec, nil
	}

	rec, err = c.store.Lookup(ctx, rawURL, userID)
	if err != nil || rec == nil {
		return rec, err
	}

	if err := c.cache.Set(ctx, key, rec); err != nil {
		common.LogWarn("快取寫入失敗", zap.String("key", key), zap.Error(err))
	}
	return rec, nil
}

// Save 寫入資料庫後刪除舊的快取項目
func (c *CachedRecipes) Save(ctx context.Context, rawURL, transcript string, caption *string, doc recipe.Recipe, userID string) (int64, error) {
	id, err := c.store.Save(ctx, rawURL, transcript, caption, doc, userID)
	if err != nil {
		return 0, err
	}

	if err := c.cache.Delete(ctx, Key(rawURL, userID)); err != nil {
		common.LogWarn("快取失效失敗", zap.Error(err))
	}
	return id, nil
}
