package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"touille/internal/core/recipe"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig 連線池大小
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// NewPostgres 建立連線池並確認資料庫可連線
func NewPostgres(ctx context.Context, connString string, poolCfg PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	if poolCfg.MaxConns > 0 {
		pgxCfg.MaxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		pgxCfg.MinConns = poolCfg.MinConns
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, unavailable(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, unavailable(err, "postgres: ping")
	}

	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS recipes (
	id         BIGSERIAL PRIMARY KEY,
	url        TEXT NOT NULL,
	user_id    VARCHAR(255) NOT NULL DEFAULT '__anonymous__',
	transcript TEXT NOT NULL,
	caption    TEXT,
	recipe     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT uq_recipes_url_user_id UNIQUE (url, user_id)
);

CREATE INDEX IF NOT EXISTS ix_recipes_user_id ON recipes(user_id);

CREATE TABLE IF NOT EXISTS user_settings (
	user_id              VARCHAR(255) PRIMARY KEY,
	dietary_restrictions TEXT,
	spice_tolerance      INTEGER NOT NULL DEFAULT 2,
	custom_rules         TEXT,
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return unavailable(err, "postgres: migrate")
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return unavailable(err, "postgres: ping")
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Lookup(ctx context.Context, rawURL, userID string) (*recipe.Record, error) {
	url, user := scope(rawURL, userID)
	row := s.pool.QueryRow(ctx,
		`SELECT id, url, user_id, transcript, caption, recipe, created_at FROM recipes WHERE url = $1 AND user_id = $2`,
		url, user,
	)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, wrapRowErr(err, "postgres: lookup recipe")
	}
	return rec, nil
}

func (s *PostgresStore) Save(ctx context.Context, rawURL, transcript string, caption *string, doc recipe.Recipe, userID string) (int64, error) {
	url, user := scope(rawURL, userID)
	data, err := encodeRecipe(doc)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO recipes (url, user_id, transcript, caption, recipe)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT ON CONSTRAINT uq_recipes_url_user_id DO UPDATE SET
			transcript = EXCLUDED.transcript,
			caption = EXCLUDED.caption,
			recipe = EXCLUDED.recipe
		 RETURNING id`,
		url, user, transcript, caption, data,
	).Scan(&id)
	if err != nil {
		return 0, unavailable(err, "postgres: save recipe")
	}
	return id, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id int64, userID string) (*recipe.Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, url, user_id, transcript, caption, recipe, created_at FROM recipes WHERE id = $1 AND user_id = $2`,
		id, recipe.EffectiveUserID(userID),
	)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, wrapRowErr(err, "postgres: get recipe")
	}
	return rec, nil
}

func (s *PostgresStore) ListForUser(ctx context.Context, userID string) ([]recipe.Summary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, url, recipe, created_at FROM recipes WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		recipe.EffectiveUserID(userID),
	)
	if err != nil {
		return nil, unavailable(err, "postgres: list recipes")
	}
	defer rows.Close()

	summaries := make([]recipe.Summary, 0)
	for rows.Next() {
		var sum recipe.Summary
		var data []byte
		if err := rows.Scan(&sum.ID, &sum.URL, &data, &sum.CreatedAt); err != nil {
			return nil, unavailable(err, "postgres: scan recipe")
		}
		if err := decodeRecipe(data, &sum.Recipe); err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err, "postgres: list recipes")
	}
	return summaries, nil
}

func (s *PostgresStore) GetSettings(ctx context.Context, userID string) (*recipe.Settings, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT user_id, dietary_restrictions, spice_tolerance, custom_rules, updated_at FROM user_settings WHERE user_id = $1`,
		userID,
	)
	st, err := scanSettings(row)
	if err != nil {
		return nil, wrapRowErr(err, "postgres: get settings")
	}
	return st, nil
}

func (s *PostgresStore) SetSettings(ctx context.Context, userID string, update recipe.SettingsUpdate) (*recipe.Settings, error) {
	if err := validateUpdate(update); err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO user_settings (user_id, dietary_restrictions, spice_tolerance, custom_rules, updated_at)
		 VALUES ($1, $2, COALESCE($3::int, 2), $4, now())
		 ON CONFLICT (user_id) DO UPDATE SET
			dietary_restrictions = CASE WHEN $5::boolean THEN EXCLUDED.dietary_restrictions ELSE user_settings.dietary_restrictions END,
			spice_tolerance = CASE WHEN $6::boolean THEN EXCLUDED.spice_tolerance ELSE user_settings.spice_tolerance END,
			custom_rules = CASE WHEN $7::boolean THEN EXCLUDED.custom_rules ELSE user_settings.custom_rules END,
			updated_at = now()
		 RETURNING user_id, dietary_restrictions, spice_tolerance, custom_rules, updated_at`,
		userID,
		update.DietaryRestrictions.Value,
		spiceArg(update),
		update.CustomRules.Value,
		update.DietaryRestrictions.Set,
		update.SpiceTolerance.Set,
		update.CustomRules.Set,
	)
	st, err := scanSettings(row)
	if err != nil {
		return nil, unavailable(err, "postgres: set settings")
	}
	return st, nil
}
