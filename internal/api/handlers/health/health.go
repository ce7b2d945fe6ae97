package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"touille/internal/core/queue"
	"touille/internal/pkg/common"
)

const readinessTimeout = 2 * time.Second

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Model     string                 `json:"model,omitempty"`
	Runtime   map[string]interface{} `json:"runtime"`
	Queue     *queue.Status          `json:"queue,omitempty"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
}

// Pinger 確認儲存層可連線
type Pinger interface {
	Ping(ctx context.Context) error
}

// QueueReporter 提供隊列狀態
type QueueReporter interface {
	GetQueueStatus() *queue.Status
}

// StatsReporter 提供快取統計
type StatsReporter interface {
	Stats() map[string]interface{}
}

// Handler 健康檢查處理器
type Handler struct {
	version string
	model   string
	store   Pinger
	queue   QueueReporter
	cache   StatsReporter
}

// NewHandler 創建健康檢查處理器，queue 與 cache 可為 nil
func NewHandler(version, model string, store Pinger, q QueueReporter, cache StatsReporter) *Handler {
	return &Handler{
		version: version,
		model:   model,
		store:   store,
		queue:   q,
		cache:   cache,
	}
}

// HealthCheck 健康檢查
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Model:     h.model,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.queue != nil {
		response.Queue = h.queue.GetQueueStatus()
	}
	if h.cache != nil {
		response.Cache = h.cache.Stats()
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 確認儲存層可用
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		if err := h.store.Ping(ctx); err != nil {
			common.LogWarn("Readiness check failed", zap.Error(err))
			ce := common.AsCustomError(err)
			c.JSON(http.StatusServiceUnavailable, common.ErrorResponse{
				Error:     ce.Message,
				Code:      ce.Code,
				Retryable: true,
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
