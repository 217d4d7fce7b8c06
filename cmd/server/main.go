package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/annel0/voxelworld/internal/app"
	"github.com/annel0/voxelworld/internal/config"
	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/observability"
	"github.com/annel0/voxelworld/internal/world/block"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию ENV VOXEL_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if errors.Is(err, config.ErrNoConfig) {
		cfg = config.Default()
	} else if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	logOpts, err := loggingOptions(cfg.Logging)
	if err != nil {
		log.Fatalf("❌ Ошибка настройки логирования: %v", err)
	}
	if err := logging.InitDefaultLogger("server", logOpts); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	logging.GetLoggerManager().Enable(logOpts)
	defer logging.GetLoggerManager().CloseAll()

	logging.Info("🎮 Запуск сервера воксельного мира (seed=%d)", cfg.World.Seed)

	if cfg.World.BlockTable != "" {
		if err := block.LoadFile(cfg.World.BlockTable); err != nil {
			logging.Error("❌ Ошибка загрузки таблицы блоков: %v", err)
			os.Exit(1)
		}
		logging.Info("🧱 Таблица блоков загружена из %s", cfg.World.BlockTable)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		logging.Error("❌ Ошибка инициализации телеметрии: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logging.Warn("⚠️ Ошибка остановки телеметрии: %v", err)
		}
	}()

	server, err := app.New(cfg)
	if err != nil {
		logging.Error("❌ Ошибка создания сервера: %v", err)
		os.Exit(1)
	}

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 REST API: http://localhost:%d", cfg.Server.GetRESTPort())
	logging.Info("   📈 Метрики: http://localhost:%d/metrics", cfg.Server.GetMetricsPort())
	logging.Info("   ❤️  Health check: http://localhost:%d/health", cfg.Server.GetRESTPort())

	if err := server.Run(ctx); err != nil {
		logging.Error("❌ Сервер остановлен с ошибкой: %v", err)
		return
	}
	logging.Info("👋 Сервер успешно остановлен")
}

func loggingOptions(cfg config.LoggingConfig) (logging.Options, error) {
	opts := logging.DefaultOptions()
	if cfg.Dir != "" {
		opts.Dir = cfg.Dir
	}
	if cfg.ConsoleLevel != "" {
		level, err := logging.ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return opts, err
		}
		opts.ConsoleLevel = level
	}
	if cfg.FileLevel != "" {
		level, err := logging.ParseLevel(cfg.FileLevel)
		if err != nil {
			return opts, err
		}
		opts.FileLevel = level
	}
	return opts, nil
}
