package app

import (
	"context"

	"go.uber.org/zap"

	"touille/internal/core/ai/service"
	"touille/internal/core/cache"
	"touille/internal/core/media"
	"touille/internal/core/pipeline"
	"touille/internal/core/queue"
	"touille/internal/core/recipe"
	"touille/internal/infrastructure/config"
	"touille/internal/infrastructure/store"
	"touille/internal/pkg/common"
)

// App 啟動時建立的所有資源，依建立的相反順序釋放
type App struct {
	Config    *config.Config
	Store     store.Store
	Cache     cache.Cache
	AI        *service.Service
	Queue     *queue.Manager
	Pipeline  *pipeline.Pipeline
	Assistant *recipe.Assistant

	closers []func() error
}

// New 建立完整的應用程式，缺少連線字串或模型憑證時回傳 ConfigurationError
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.RequireServices(); err != nil {
		return nil, err
	}

	a := &App{Config: cfg}

	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Store = st
	a.closers = append(a.closers, st.Close)

	var recipes pipeline.RecipeStore = st
	if cfg.Cache.Enabled {
		c, err := openCache(ctx, cfg.Cache)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Cache = c
		a.closers = append(a.closers, c.Close)
		recipes = cache.NewCachedRecipes(st, c)
	}

	p, err := service.NewProvider(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.AI = service.NewService(p, cfg.LLM.Timeout)
	a.closers = append(a.closers, a.AI.Close)

	a.Queue = queue.NewManager(cfg.Queue)
	a.closers = append(a.closers, func() error {
		a.Queue.Close()
		return nil
	})

	a.Pipeline = pipeline.New(
		recipes,
		st,
		media.NewDownloader(cfg.Downloader),
		media.NewTranscriber(cfg.Transcriber),
		recipe.NewExtractor(a.AI, cfg.LLM.MaxTokens),
	).WithQueue(a.Queue)
	a.Assistant = recipe.NewAssistant(a.AI, cfg.LLM.MaxTokens)

	common.LogInfo("Application initialized",
		zap.String("database", cfg.Database.Driver),
		zap.String("model", a.AI.ProviderName()),
		zap.Bool("cache", cfg.Cache.Enabled),
		zap.Int("workers", cfg.Queue.Workers),
	)
	return a, nil
}

// NewTranscriptPipeline 只下載與轉錄，不需要資料庫與模型
func NewTranscriptPipeline(cfg *config.Config) *pipeline.Pipeline {
	return pipeline.New(nil, nil,
		media.NewDownloader(cfg.Downloader),
		media.NewTranscriber(cfg.Transcriber),
		nil,
	)
}

// OpenStore 依 database.driver 開啟儲存層
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Database.URL == "" {
		return nil, common.ErrConfiguration.WithMessage("DATABASE_URL is not configured")
	}
	if cfg.Database.Driver == config.DriverSQLite {
		st, err := store.NewSQLite(cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	st, err := store.NewPostgres(ctx, cfg.Database.URL, store.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

func openCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	if cfg.Driver == config.CacheRedis {
		c, err := cache.NewRedis(ctx, cfg)
		if err != nil {
			return nil, common.ErrConfiguration.WithMessage("redis cache is unavailable").Wrap(err)
		}
		return c, nil
	}
	return cache.NewMemory(cfg), nil
}

// Migrate 建立資料表
func (a *App) Migrate(ctx context.Context) error {
	return a.Store.Migrate(ctx)
}

// Close 依相反順序釋放資源，可重複呼叫
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			common.LogWarn("Failed to release resource", zap.Error(err))
			if first == nil {
				first = err
			}
		}
	}
	a.closers = nil
	return first
}
