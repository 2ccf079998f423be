package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/BillEdwards42/green-moment-BE/internal/config"
	"github.com/BillEdwards42/green-moment-BE/internal/forecast"
	"github.com/BillEdwards42/green-moment-BE/internal/pipeline"
	"github.com/BillEdwards42/green-moment-BE/internal/region"
	"github.com/BillEdwards42/green-moment-BE/internal/scheduler"
	"github.com/BillEdwards42/green-moment-BE/internal/store"
	"github.com/BillEdwards42/green-moment-BE/internal/weather"
	"github.com/BillEdwards42/green-moment-BE/pkg/client"
)

func main() {
	loop := flag.Bool("loop", false, "keep running on the configured cron schedule instead of exiting after one run")
	flag.Parse()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	logger.Info("Starting generation pipeline")

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	feed := client.NewTaipowerClient(cfg.Feed.GenerationURL, cfg.Feed.DemandURL, client.ClientConfig{
		Timeout:        cfg.Feed.Timeout,
		MaxRetries:     cfg.Retry.MaxRetries,
		RetryDelay:     cfg.Retry.Delay,
		Multiplier:     cfg.Retry.Multiplier,
		BreakerTimeout: cfg.CircuitBreaker.Timeout,
	}, logger)

	resolver := region.NewResolver(cfg.Paths.PlantMapFile, logger)
	cache := forecast.NewCache(cfg.Paths.ForecastCacheDir, logger)
	enricher := weather.NewEnricher(cache, logger)
	segmented := store.NewSegmentedStore(cfg.Paths.DataDir, logger)
	logs := store.NewLogs(
		cfg.Paths.FluctuationLog,
		cfg.Paths.UnknownUnitsLog,
		cfg.Paths.UnitDetailsLog,
		cfg.Paths.DemandFile,
		logger,
	)

	p := pipeline.New(feed, resolver, enricher, segmented, logs, cfg.Paths.StateFile, logger)

	if !*loop {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := p.Run(ctx); err != nil {
			logger.Error("Pipeline run failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	sched := scheduler.NewScheduler(p, cfg.Scheduler.CronSpec, 2*time.Minute, logger)
	if err := sched.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down pipeline")
	sched.Stop()
}
