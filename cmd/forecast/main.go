package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/BillEdwards42/green-moment-BE/internal/config"
	"github.com/BillEdwards42/green-moment-BE/internal/forecast"
	"github.com/BillEdwards42/green-moment-BE/pkg/client"
)

// Refreshes the CWA forecast cache the pipeline enriches from. Scheduled
// out-of-band on a longer cycle than the pipeline itself (every 6 hours).
func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	logger.Info("Starting forecast cache refresh")

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.CWA.APIKey == "" {
		logger.Fatal("CWA_API_KEY is required")
	}

	cwa := client.NewCWAClient(cfg.CWA.BaseURL, cfg.CWA.APIKey, client.ClientConfig{
		Timeout:        30 * time.Second,
		MaxRetries:     cfg.Retry.MaxRetries,
		RetryDelay:     cfg.Retry.Delay,
		Multiplier:     cfg.Retry.Multiplier,
		BreakerTimeout: cfg.CircuitBreaker.Timeout,
	}, logger)

	refresher := forecast.NewRefresher(
		cwa,
		cfg.Paths.ForecastCacheDir,
		cfg.Paths.FingerprintFile,
		cfg.Paths.StructureLog,
		cfg.Paths.WeatherDataLog,
		logger,
	)

	counties := make([]forecast.County, 0, len(client.VitalLocations))
	for _, loc := range client.VitalLocations {
		counties = append(counties, forecast.County{Name: loc.County, LocationID: loc.LocationID})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := refresher.RefreshAll(ctx, counties); err != nil {
		logger.Error("Forecast cache refresh failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Forecast cache refresh complete")
}
