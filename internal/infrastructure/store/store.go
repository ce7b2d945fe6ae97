package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"

	"touille/internal/core/recipe"
	"touille/internal/pkg/common"
)

// Store 食譜與使用者偏好的持久化介面
type Store interface {
	// Lookup 以正規化 URL 與使用者範圍查詢，沒有資料時回傳 nil, nil
	Lookup(ctx context.Context, rawURL, userID string) (*recipe.Record, error)
	// Save 以 (url, user_id) 原子性 upsert，回傳資料列 id
	Save(ctx context.Context, rawURL, transcript string, caption *string, doc recipe.Recipe, userID string) (int64, error)
	// GetByID 只回傳屬於 userID 的資料，否則回傳 nil, nil
	GetByID(ctx context.Context, id int64, userID string) (*recipe.Record, error)
	// ListForUser 依 created_at 由新到舊
	ListForUser(ctx context.Context, userID string) ([]recipe.Summary, error)

	GetSettings(ctx context.Context, userID string) (*recipe.Settings, error)
	// SetSettings 部分更新，未設定的欄位保留原值
	SetSettings(ctx context.Context, userID string, update recipe.SettingsUpdate) (*recipe.Settings, error)

	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// Pool pgxpool.Pool 與 pgxmock 共同實作的查詢介面
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// unavailable 儲存層錯誤一律視為暫時性的基礎設施錯誤
func unavailable(err error, msg string) error {
	return common.ErrStorageUnavailable.Wrap(eris.Wrap(err, msg))
}

// scope 正規化輸入，回傳實際的查詢鍵
func scope(rawURL, userID string) (string, string) {
	return recipe.NormalizeURL(rawURL), recipe.EffectiveUserID(userID)
}

func encodeRecipe(doc recipe.Recipe) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal recipe")
	}
	return data, nil
}

func decodeRecipe(data []byte, doc *recipe.Recipe) error {
	if err := common.ParseJSONBytes(data, doc); err != nil {
		return eris.Wrap(err, "store: unmarshal recipe")
	}
	return nil
}

// validateUpdate 拒絕負的辣度，大於 5 的值照存，顯示時才夾住
func validateUpdate(update recipe.SettingsUpdate) error {
	if update.SpiceTolerance.Value != nil && *update.SpiceTolerance.Value < 0 {
		return common.NewValidationError("spice_tolerance must be between 0 and 5")
	}
	return nil
}

// spiceArg null 代表回到預設值
func spiceArg(update recipe.SettingsUpdate) *int {
	if update.SpiceTolerance.Value == nil {
		return nil
	}
	v := *update.SpiceTolerance.Value
	return &v
}

// rowScanner pgx.Row 與 *sql.Row 共同的 Scan
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*recipe.Record, error) {
	var rec recipe.Record
	var data []byte
	if err := row.Scan(&rec.ID, &rec.URL, &rec.UserID, &rec.Transcript, &rec.Caption, &data, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := decodeRecipe(data, &rec.Recipe); err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanSettings(row rowScanner) (*recipe.Settings, error) {
	var st recipe.Settings
	if err := row.Scan(&st.UserID, &st.DietaryRestrictions, &st.SpiceTolerance, &st.CustomRules, &st.UpdatedAt); err != nil {
		return nil, err
	}
	return &st, nil
}

// wrapRowErr 查無資料回傳 nil，其餘視為儲存層錯誤
func wrapRowErr(err error, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return unavailable(err, msg)
}
