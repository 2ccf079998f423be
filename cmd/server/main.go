package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/BillEdwards42/green-moment-BE/internal/api"
	"github.com/BillEdwards42/green-moment-BE/internal/config"
	"github.com/BillEdwards42/green-moment-BE/internal/store"
)

// Read-only reporting API over the pipeline's persisted tables.
func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	logger.Info("Starting generation reporting server")

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	segmented := store.NewSegmentedStore(cfg.Paths.DataDir, logger)
	logs := store.NewLogs(
		cfg.Paths.FluctuationLog,
		cfg.Paths.UnknownUnitsLog,
		cfg.Paths.UnitDetailsLog,
		cfg.Paths.DemandFile,
		logger,
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: errorHandler,
	})

	handler := api.NewHandler(segmented, logs, logger)
	api.SetupRoutes(app, handler, logger)

	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func errorHandler(c *fiber.Ctx, err error) error {
	zap.L().Error("HTTP error",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))

	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   err.Error(),
		"success": false,
	})
}
