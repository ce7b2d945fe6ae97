package media

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"touille/internal/infrastructure/config"
	"touille/internal/pkg/common"
)

const videoBaseName = "video"

// Media 下載到暫存目錄的影片
type Media struct {
	Path    string
	Dir     string
	Caption *string
}

// Cleanup 刪除暫存目錄，可重複呼叫
func (m *Media) Cleanup() error {
	if m == nil || m.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(m.Dir); err != nil {
		return eris.Wrapf(err, "media: remove %s", m.Dir)
	}
	return nil
}

// Keep 在清理前把影片複製到 dest
func (m *Media) Keep(dest string) error {
	src, err := os.Open(m.Path)
	if err != nil {
		return eris.Wrap(err, "media: open video")
	}
	defer src.Close()

	if dir := filepath.Dir(dest); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrap(err, "media: create destination dir")
		}
	}
	dst, err := os.Create(dest)
	if err != nil {
		return eris.Wrap(err, "media: create destination")
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return eris.Wrap(err, "media: copy video")
	}
	return eris.Wrap(dst.Close(), "media: close destination")
}

// Downloader 以 yt-dlp 下載影片與說明文字
type Downloader struct {
	cfg config.DownloaderConfig
	run CommandRunner
}

// NewDownloader 創建下載器
func NewDownloader(cfg config.DownloaderConfig) *Downloader {
	if cfg.Binary == "" {
		cfg.Binary = "yt-dlp"
	}
	return &Downloader{cfg: cfg, run: execRunner}
}

// WithCommandRunner 替換指令執行器（測試用）
func (d *Downloader) WithCommandRunner(runner CommandRunner) {
	d.run = runner
}

// Download 下載影片到新的暫存目錄，失敗時不留下任何檔案
func (d *Downloader) Download(ctx context.Context, rawURL string) (*Media, error) {
	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}

	caption := d.caption(ctx, rawURL)

	dir, err := os.MkdirTemp(d.cfg.TempDir, "touille-")
	if err != nil {
		return nil, common.ErrInternalError.Wrap(eris.Wrap(err, "media: create temp dir"))
	}

	args := []string{"--no-playlist", "-o", filepath.Join(dir, videoBaseName+".%(ext)s")}
	if d.cfg.Format != "" {
		args = append(args, "-f", d.cfg.Format)
	}
	args = append(args, rawURL)

	if _, err := d.run(ctx, d.cfg.Binary, args...); err != nil {
		os.RemoveAll(dir)
		return nil, common.ErrDownloadFailed.WithMessage("Failed to download video").Wrap(err)
	}

	path, err := findVideo(dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, common.ErrDownloadFailed.WithMessage("Failed to download video").Wrap(err)
	}

	return &Media{Path: path, Dir: dir, Caption: caption}, nil
}

// caption 讀取影片說明，失敗時視為沒有說明
func (d *Downloader) caption(ctx context.Context, rawURL string) *string {
	out, err := d.run(ctx, d.cfg.Binary, "--no-playlist", "--skip-download", "--dump-json", rawURL)
	if err != nil {
		common.LogWarn("Failed to read video metadata", zap.String("url", rawURL), zap.Error(err))
		return nil
	}

	var meta struct {
		Description string `json:"description"`
	}
	if err := common.ParseJSONBytes(out, &meta); err != nil {
		common.LogWarn("Failed to parse video metadata", zap.String("url", rawURL), zap.Error(err))
		return nil
	}
	desc := strings.TrimSpace(meta.Description)
	if desc == "" {
		return nil
	}
	return &desc
}

func findVideo(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, videoBaseName+".*"))
	if err != nil {
		return "", eris.Wrap(err, "media: find video")
	}
	for _, m := range matches {
		// yt-dlp 的未完成檔案
		if strings.HasSuffix(m, ".part") || strings.HasSuffix(m, ".ytdl") {
			continue
		}
		return m, nil
	}
	return "", eris.New("media: downloader produced no file")
}
