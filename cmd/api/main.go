package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"touille/internal/api"
	"touille/internal/app"
	"touille/internal/infrastructure/config"
	"touille/internal/pkg/common"
)

func main() {
	configFile := flag.String("config", "", "config file (yaml)")
	flag.Parse()

	// 載入設定
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.Log.Level, cfg.Log.Dir); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		common.LogError("Server stopped", zap.Error(err))
		common.Sync()
		os.Exit(1)
	}
	common.Sync()
}

func run(cfg *config.Config) error {
	common.LogInfo("載入設定", zap.Any("config", cfg.Summary()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Migrate(ctx); err != nil {
		return err
	}

	return api.Serve(ctx, cfg, api.ServicesFrom(a))
}
