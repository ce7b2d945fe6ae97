package app

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"touille/internal/core/recipe"
	"touille/internal/infrastructure/config"
	"touille/internal/pkg/common"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_DRIVER", config.DriverSQLite)
	t.Setenv("DATABASE_URL", ":memory:")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test-key")
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestNew_WiresEverything(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a, err := New(ctx, cfg)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Migrate(ctx))
	assert.NotNil(t, a.Pipeline)
	assert.NotNil(t, a.Assistant)
	assert.NotNil(t, a.Cache)
	assert.Equal(t, "anthropic/"+cfg.Anthropic.Model, a.AI.ProviderName())

	_, err = a.Store.Save(ctx, "https://x/video", "t", nil, recipe.Recipe{Title: "Soup"}, "")
	require.NoError(t, err)
	rec, err := a.Store.Lookup(ctx, "https://x/video?si=1", "")
	require.NoError(t, err)
	require.NotNil(t, rec)

	require.NoError(t, a.Close())
	assert.NoError(t, a.Close())
}

func TestNew_RedisCache(t *testing.T) {
	cfg := testConfig(t)
	mr := miniredis.RunT(t)
	cfg.Cache.Driver = config.CacheRedis
	cfg.Cache.RedisAddr = mr.Addr()

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, "redis", a.Cache.Stats()["driver"])
}

func TestNew_UnreachableRedisIsConfigurationError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Driver = config.CacheRedis
	cfg.Cache.RedisAddr = "127.0.0.1:1"

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrConfiguration))
}

func TestNew_MissingCredentials(t *testing.T) {
	cfg := testConfig(t)
	cfg.Anthropic.APIKey = ""

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrConfiguration))
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}

func TestOpenStore_RequiresURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.URL = ""

	_, err := OpenStore(context.Background(), cfg)
	assert.True(t, errors.Is(err, common.ErrConfiguration))
}

func TestNewTranscriptPipeline(t *testing.T) {
	cfg := testConfig(t)
	assert.NotNil(t, NewTranscriptPipeline(cfg))
}
