package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"touille/internal/core/recipe"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// 每個 :memory: 連線都是獨立的資料庫
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS recipes (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	url        TEXT NOT NULL,
	user_id    TEXT NOT NULL DEFAULT '__anonymous__',
	transcript TEXT NOT NULL,
	caption    TEXT,
	recipe     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (url, user_id)
);

CREATE INDEX IF NOT EXISTS ix_recipes_user_id ON recipes(user_id);

CREATE TABLE IF NOT EXISTS user_settings (
	user_id              TEXT PRIMARY KEY,
	dietary_restrictions TEXT,
	spice_tolerance      INTEGER NOT NULL DEFAULT 2,
	custom_rules         TEXT,
	updated_at           DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return unavailable(err, "sqlite: migrate")
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable(err, "sqlite: ping")
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Lookup(ctx context.Context, rawURL, userID string) (*recipe.Record, error) {
	url, user := scope(rawURL, userID)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, user_id, transcript, caption, recipe, created_at FROM recipes WHERE url = ? AND user_id = ?`,
		url, user,
	)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, wrapRowErr(err, "sqlite: lookup recipe")
	}
	return rec, nil
}

func (s *SQLiteStore) Save(ctx context.Context, rawURL, transcript string, caption *string, doc recipe.Recipe, userID string) (int64, error) {
	url, user := scope(rawURL, userID)
	data, err := encodeRecipe(doc)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO recipes (url, user_id, transcript, caption, recipe, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (url, user_id) DO UPDATE SET
			transcript = excluded.transcript,
			caption = excluded.caption,
			recipe = excluded.recipe
		 RETURNING id`,
		url, user, transcript, caption, string(data), s.now(),
	).Scan(&id)
	if err != nil {
		return 0, unavailable(err, "sqlite: save recipe")
	}
	return id, nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id int64, userID string) (*recipe.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, user_id, transcript, caption, recipe, created_at FROM recipes WHERE id = ? AND user_id = ?`,
		id, recipe.EffectiveUserID(userID),
	)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, wrapRowErr(err, "sqlite: get recipe")
	}
	return rec, nil
}

func (s *SQLiteStore) ListForUser(ctx context.Context, userID string) ([]recipe.Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, recipe, created_at FROM recipes WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		recipe.EffectiveUserID(userID),
	)
	if err != nil {
		return nil, unavailable(err, "sqlite: list recipes")
	}
	defer rows.Close()

	summaries := make([]recipe.Summary, 0)
	for rows.Next() {
		var sum recipe.Summary
		var data []byte
		if err := rows.Scan(&sum.ID, &sum.URL, &data, &sum.CreatedAt); err != nil {
			return nil, unavailable(err, "sqlite: scan recipe")
		}
		if err := decodeRecipe(data, &sum.Recipe); err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err, "sqlite: list recipes")
	}
	return summaries, nil
}

func (s *SQLiteStore) GetSettings(ctx context.Context, userID string) (*recipe.Settings, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, dietary_restrictions, spice_tolerance, custom_rules, updated_at FROM user_settings WHERE user_id = ?`,
		userID,
	)
	st, err := scanSettings(row)
	if err != nil {
		return nil, wrapRowErr(err, "sqlite: get settings")
	}
	return st, nil
}

func (s *SQLiteStore) SetSettings(ctx context.Context, userID string, update recipe.SettingsUpdate) (*recipe.Settings, error) {
	if err := validateUpdate(update); err != nil {
		return nil, err
	}

	now := s.now()
	var st recipe.Settings
	// RETURNING 的欄位沒有宣告型別，updated_at 直接使用寫入的值
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO user_settings (user_id, dietary_restrictions, spice_tolerance, custom_rules, updated_at)
		 VALUES (?, ?, COALESCE(?, 2), ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
			dietary_restrictions = CASE WHEN ? THEN excluded.dietary_restrictions ELSE user_settings.dietary_restrictions END,
			spice_tolerance = CASE WHEN ? THEN excluded.spice_tolerance ELSE user_settings.spice_tolerance END,
			custom_rules = CASE WHEN ? THEN excluded.custom_rules ELSE user_settings.custom_rules END,
			updated_at = excluded.updated_at
		 RETURNING user_id, dietary_restrictions, spice_tolerance, custom_rules`,
		userID,
		update.DietaryRestrictions.Value,
		spiceArg(update),
		update.CustomRules.Value,
		now,
		update.DietaryRestrictions.Set,
		update.SpiceTolerance.Set,
		update.CustomRules.Set,
	).Scan(&st.UserID, &st.DietaryRestrictions, &st.SpiceTolerance, &st.CustomRules)
	if err != nil {
		return nil, unavailable(err, "sqlite: set settings")
	}
	st.UpdatedAt = now
	return &st, nil
}
