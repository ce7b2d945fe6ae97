package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"touille/internal/api/handlers/health"
	recipeHandler "touille/internal/api/handlers/recipe"
	"touille/internal/api/middleware"
	"touille/internal/infrastructure/config"
	"touille/internal/pkg/common"
)

// Services 路由需要的服務
type Services struct {
	Processor recipeHandler.Processor
	Store     StoreService
	Assistant recipeHandler.Assistant
	Queue     health.QueueReporter
	Cache     health.StatsReporter
	Model     string
}

// StoreService handler 與健康檢查共用的儲存層
type StoreService interface {
	recipeHandler.Store
	health.Pinger
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svc Services) *gin.Engine {
	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.New().String()
	})))
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg.App.Version, svc.Model, svc.Store, svc.Queue, svc.Cache)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	api := router.Group("/")
	api.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	api.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	h := recipeHandler.NewHandler(svc.Processor, svc.Store, svc.Assistant, cfg.App.Debug)
	{
		api.POST("/process", h.HandleProcess)
		api.GET("/recipes", h.HandleListRecipes)
		api.GET("/recipes/:id", h.HandleGetRecipe)
		api.GET("/settings", h.HandleGetSettings)
		api.PUT("/settings", h.HandlePutSettings)
		api.POST("/chat", h.HandleChat)
	}

	common.LogInfo("Router setup completed",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router
}
