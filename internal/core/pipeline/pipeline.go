package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"touille/internal/core/media"
	"touille/internal/core/queue"
	"touille/internal/core/recipe"
	"touille/internal/pkg/common"
)

// RecipeStore 查詢與寫入快取的食譜
type RecipeStore interface {
	Lookup(ctx context.Context, rawURL, userID string) (*recipe.Record, error)
	Save(ctx context.Context, rawURL, transcript string, caption *string, doc recipe.Recipe, userID string) (int64, error)
}

// SettingsReader 讀取使用者偏好
type SettingsReader interface {
	GetSettings(ctx context.Context, userID string) (*recipe.Settings, error)
}

// Downloader 下載影片到暫存目錄
type Downloader interface {
	Download(ctx context.Context, rawURL string) (*media.Media, error)
}

// Transcriber 將影片轉成逐字稿
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Extractor 從逐字稿萃取食譜
type Extractor interface {
	Extract(ctx context.Context, transcript string, caption *string, prefs *recipe.Settings) (*recipe.Recipe, error)
}

// Options 單次處理的選項
type Options struct {
	UserID         string
	RequestID      string
	NoCache        bool   // 跳過快取查詢，結果仍會寫入
	TranscriptOnly bool   // 轉錄後即結束，不萃取也不寫入
	KeepVideo      string // 清理前把影片複製到此路徑
}

// Result 處理結果
type Result struct {
	Transcript string         `json:"transcript"`
	Caption    *string        `json:"caption"`
	Recipe     *recipe.Recipe `json:"recipe,omitempty"`
	RecipeID   *int64         `json:"recipe_id,omitempty"`
	Cached     bool           `json:"cached"`
}

// Pipeline 影片到食譜的處理流程
type Pipeline struct {
	recipes     RecipeStore
	settings    SettingsReader
	downloader  Downloader
	transcriber Transcriber
	extractor   Extractor
	queue       *queue.Manager
}

// New 創建處理流程
func New(recipes RecipeStore, settings SettingsReader, downloader Downloader, transcriber Transcriber, extractor Extractor) *Pipeline {
	return &Pipeline{
		recipes:     recipes,
		settings:    settings,
		downloader:  downloader,
		transcriber: transcriber,
		extractor:   extractor,
	}
}

// WithQueue 未命中快取的工作改由隊列的 worker 執行
func (p *Pipeline) WithQueue(q *queue.Manager) *Pipeline {
	p.queue = q
	return p
}

// Process 先查快取，未命中時依序下載、轉錄、萃取、寫入
func (p *Pipeline) Process(ctx context.Context, rawURL string, opts Options) (*Result, error) {
	if rawURL == "" {
		return nil, common.ErrInvalidRequest.WithMessage("url is required")
	}

	if !opts.NoCache && !opts.TranscriptOnly {
		start := time.Now()
		rec, err := p.recipes.Lookup(ctx, rawURL, opts.UserID)
		common.LogStage(opts.RequestID, string(StageCacheCheck), time.Since(start), err)
		if err != nil {
			return nil, fail(StageCacheCheck, err)
		}
		if rec != nil {
			common.LogInfo("Recipe served from cache",
				zap.String("request_id", opts.RequestID),
				zap.String("url", rec.URL),
				zap.Int64("recipe_id", rec.ID),
			)
			doc := rec.Recipe
			id := rec.ID
			return &Result{
				Transcript: rec.Transcript,
				Caption:    rec.Caption,
				Recipe:     &doc,
				RecipeID:   &id,
				Cached:     true,
			}, nil
		}
	}

	if p.queue == nil {
		return p.run(ctx, rawURL, opts)
	}
	return queue.Do(ctx, p.queue, func(ctx context.Context) (*Result, error) {
		return p.run(ctx, rawURL, opts)
	})
}

func (p *Pipeline) run(ctx context.Context, rawURL string, opts Options) (*Result, error) {
	start := time.Now()
	m, err := p.downloader.Download(ctx, rawURL)
	if err == nil && opts.KeepVideo != "" {
		if err = m.Keep(opts.KeepVideo); err != nil {
			p.release(m, opts.RequestID)
			err = common.ErrInternalError.WithMessage("failed to keep video").Wrap(err)
		}
	}
	common.LogStage(opts.RequestID, string(StageDownload), time.Since(start), err)
	if err != nil {
		return nil, fail(StageDownload, err)
	}
	defer p.release(m, opts.RequestID)

	start = time.Now()
	transcript, err := p.transcriber.Transcribe(ctx, m.Path)
	common.LogStage(opts.RequestID, string(StageTranscribe), time.Since(start), err)
	if err != nil {
		return nil, fail(StageTranscribe, err)
	}

	result := &Result{Transcript: transcript, Caption: m.Caption}
	if opts.TranscriptOnly {
		return result, nil
	}

	start = time.Now()
	doc, err := p.extract(ctx, transcript, m.Caption, opts.UserID)
	common.LogStage(opts.RequestID, string(StageExtract), time.Since(start), err)
	if err != nil {
		return nil, fail(StageExtract, err)
	}
	result.Recipe = doc

	start = time.Now()
	id, err := p.recipes.Save(ctx, rawURL, transcript, m.Caption, *doc, opts.UserID)
	common.LogStage(opts.RequestID, string(StagePersist), time.Since(start), err)
	if err != nil {
		return nil, fail(StagePersist, err)
	}
	result.RecipeID = &id

	common.LogInfo("Recipe extracted",
		zap.String("request_id", opts.RequestID),
		zap.String("url", recipe.NormalizeURL(rawURL)),
		zap.Int64("recipe_id", id),
		zap.String("title", doc.Title),
	)
	return result, nil
}

// extract 只有真實使用者才讀取偏好
func (p *Pipeline) extract(ctx context.Context, transcript string, caption *string, userID string) (*recipe.Recipe, error) {
	var prefs *recipe.Settings
	if userID != "" && userID != recipe.AnonymousUserID && p.settings != nil {
		var err error
		prefs, err = p.settings.GetSettings(ctx, userID)
		if err != nil {
			return nil, err
		}
	}
	return p.extractor.Extract(ctx, transcript, caption, prefs)
}

// release 清理失敗只記錄，不覆蓋原本的結果
func (p *Pipeline) release(m *media.Media, requestID string) {
	if err := m.Cleanup(); err != nil {
		common.LogWarn("Failed to remove temporary media",
			zap.String("request_id", requestID),
			zap.String("dir", m.Dir),
			zap.Error(err),
		)
	}
}
