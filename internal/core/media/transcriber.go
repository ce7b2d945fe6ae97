package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"touille/internal/infrastructure/config"
	"touille/internal/pkg/common"
)

// Transcriber 以 whisper CLI 轉錄影片語音
type Transcriber struct {
	cfg config.TranscriberConfig
	run CommandRunner
}

// NewTranscriber 創建轉錄器
func NewTranscriber(cfg config.TranscriberConfig) *Transcriber {
	if cfg.Binary == "" {
		cfg.Binary = "whisper"
	}
	if cfg.Model == "" {
		cfg.Model = "base"
	}
	return &Transcriber{cfg: cfg, run: execRunner}
}

// WithCommandRunner 替換指令執行器（測試用）
func (t *Transcriber) WithCommandRunner(runner CommandRunner) {
	t.run = runner
}

// Transcribe 回傳去除前後空白的逐字稿，允許空字串
func (t *Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	outDir := filepath.Dir(path)
	if _, err := t.run(ctx, t.cfg.Binary, t.buildArgs(path, outDir)...); err != nil {
		return "", common.ErrTranscriptionFailed.WithMessage("Transcription failed").Wrap(err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	data, err := os.ReadFile(filepath.Join(outDir, base+".txt"))
	if err != nil {
		return "", common.ErrTranscriptionFailed.WithMessage("Transcription failed").Wrap(eris.Wrap(err, "whisper: read transcript"))
	}
	return strings.TrimSpace(string(data)), nil
}

func (t *Transcriber) buildArgs(path, outDir string) []string {
	args := []string{
		path,
		"--model", t.cfg.Model,
		"--output_format", "txt",
		"--output_dir", outDir,
	}
	if t.cfg.Language != "" {
		args = append(args, "--language", t.cfg.Language)
	}
	return args
}
