package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/docflow/internal/config"
	"github.com/garyjia/docflow/internal/container"
	consolehttp "github.com/garyjia/docflow/internal/interfaces/http"
	"github.com/garyjia/docflow/pkg/utils"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting document validation console",
		zap.String("version", version),
		zap.String("api", cfg.API.BaseURL+cfg.API.BasePath),
		zap.Int("port", cfg.Server.Port))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}
	if err := c.Start(ctx); err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Container close failed", zap.Error(err))
		}
	}()

	// Set Gin mode based on logger level
	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := consolehttp.Deps{
		API:           c.API(),
		Notifier:      c.Notifications(),
		Notifications: c.Notifications(),
		Exports:       c.Reports(),
		Dispatcher:    c.Dispatcher(),
		HistoryLimit:  cfg.Notification.HistoryLimit,
		Health: func(ctx context.Context) (bool, interface{}) {
			h := c.Health(ctx)
			return h.Overall, h
		},
	}
	if poller := c.UnreadPoller(); poller != nil {
		deps.Unread = poller
	}

	server := consolehttp.NewServer(consolehttp.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, deps, c.FlowLogger())

	if err := server.Start(ctx); err != nil {
		logger.Error("HTTP server failed", zap.Error(err))
		return
	}

	logger.Info("Console exited successfully")
}
