package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/tour-confirmation/internal/config"
	"github.com/garyjia/tour-confirmation/internal/container"
	httpiface "github.com/garyjia/tour-confirmation/internal/interfaces/http"
	"github.com/garyjia/tour-confirmation/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	// .env is optional
	_ = gotenv.Load()

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

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Server exited successfully")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting tour confirmation service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	cc := cfg.ToContainerConfig()
	c, err := container.NewContainer(cc, logger)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Container shutdown error", zap.Error(err))
		}
	}()

	services := c.Services()
	srv := httpiface.NewServer(
		httpiface.ServerConfig{
			Host:            cc.Server.Host,
			Port:            cc.Server.Port,
			ReadTimeout:     cc.Server.ReadTimeout,
			WriteTimeout:    cc.Server.WriteTimeout,
			ShutdownTimeout: cc.Server.ShutdownTimeout,
		},
		services.Confirmation,
		services.Itinerary,
		c.ServiceLogger(),
		httpiface.WithHealthCheck(func(ctx context.Context) (bool, interface{}) {
			h := c.Health(ctx)
			return h.Overall, h.Components
		}),
	)

	// Blocks until SIGINT/SIGTERM
	return srv.Start(ctx)
}
