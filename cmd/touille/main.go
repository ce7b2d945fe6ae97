package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"touille/internal/infrastructure/config"
	"touille/internal/pkg/common"
)

var (
	cfg        *config.Config
	configFile string
)

var rootCmd = &cobra.Command{
	Use:          "touille",
	Short:        "Turn cooking videos into structured recipes",
	Long:         "Downloads a short cooking video, transcribes it, extracts a structured recipe with a language model and caches the result per user.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		// 只有 serve 寫入日誌檔
		dir := ""
		if cmd == serveCmd {
			dir = cfg.Log.Dir
		}
		if err := common.InitLogger(cfg.Log.Level, dir); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		common.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml)")
}

// exitCode 輸入錯誤回傳 2，其餘失敗回傳 1
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case common.IsValidationError(err):
		return 2
	default:
		return 1
	}
}

func main() {
	os.Exit(exitCode(rootCmd.Execute()))
}
