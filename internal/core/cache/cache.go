package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"touille/internal/core/recipe"
)

// Cache 處理結果的快取，放在 RecipeStore.Lookup 前面
type Cache interface {
	Get(ctx context.Context, key string) (*recipe.Record, bool, error)
	Set(ctx context.Context, key string, rec *recipe.Record) error
	Delete(ctx context.Context, key string) error
	Stats() map[string]interface{}
	Close() error
}

// Key 依正規化 URL 與使用者範圍生成快取鍵
func Key(rawURL, userID string) string {
	return "touille:recipe:" + hashString(recipe.NormalizeURL(rawURL)+"|"+recipe.EffectiveUserID(userID))
}

// hashString 計算字符串的 SHA-256 哈希值
func hashString(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:])
}
