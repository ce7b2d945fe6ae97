package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"touille/internal/infrastructure/config"
	"touille/internal/pkg/common"
)

// Status 隊列狀態
type Status struct {
	QueueLength    int   `json:"queue_length"`
	ProcessedCount int64 `json:"processed_count"`
	SkippedCount   int64 `json:"skipped_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

type job struct {
	ctx context.Context
	run func(ctx context.Context)
}

// Manager 固定數量 worker 與有上限的等待隊列
type Manager struct {
	workers   int
	maxSize   int
	queue     chan *job
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	processed int64
	skipped   int64
}

// NewManager 創建隊列管理器並啟動 worker
func NewManager(cfg config.QueueConfig) *Manager {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	maxSize := cfg.MaxSize
	if maxSize < 0 {
		maxSize = 0
	}

	m := &Manager{
		workers: workers,
		maxSize: maxSize,
		queue:   make(chan *job, maxSize),
	}
	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker()
	}
	return m
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for j := range m.queue {
		// 呼叫端已離開的工作不再執行
		if j.ctx.Err() != nil {
			atomic.AddInt64(&m.skipped, 1)
			continue
		}
		j.run(j.ctx)
		atomic.AddInt64(&m.processed, 1)
	}
}

// Submit 將工作加入隊列，隊列已滿時立即回傳 ErrQueueFull
func (m *Manager) Submit(ctx context.Context, run func(ctx context.Context)) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return common.ErrQueueFull.WithMessage("queue manager is closed")
	}

	select {
	case m.queue <- &job{ctx: ctx, run: run}:
		common.LogDebug("Job enqueued",
			zap.Int("queue_length", len(m.queue)),
			zap.Int("max_queue_size", m.maxSize),
		)
		return nil
	default:
		common.LogWarn("Queue is full", zap.Int("max_queue_size", m.maxSize))
		return common.ErrQueueFull
	}
}

// Do 在 worker 上執行 fn 並等待結果，ctx 結束時不再等待
func Do[T any](ctx context.Context, m *Manager, fn func(ctx context.Context) (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	var zero T

	done := make(chan result, 1)
	err := m.Submit(ctx, func(ctx context.Context) {
		v, err := fn(ctx)
		done <- result{val: v, err: err}
	})
	if err != nil {
		return zero, err
	}

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, common.ErrRequestTimeout.Wrap(ctx.Err())
		}
		return zero, ctx.Err()
	}
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		QueueLength:    len(m.queue),
		ProcessedCount: atomic.LoadInt64(&m.processed),
		SkippedCount:   atomic.LoadInt64(&m.skipped),
		MaxQueueSize:   m.maxSize,
		Workers:        m.workers,
	}
}

// Close 停止接收新工作，等待已排入的工作完成
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	m.wg.Wait()
}
