package media

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"touille/internal/pkg/common"
)

// CommandRunner 執行外部指令並回傳 stdout，測試時可替換
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	common.LogDebug("Running external command", zap.String("command", name), zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return out, eris.Wrapf(ctx.Err(), "%s", name)
		}
		return out, eris.Wrapf(err, "%s: %s", name, lastLine(stderr.String()))
	}
	return out, nil
}

// lastLine 外部工具的錯誤通常在最後一行
func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
