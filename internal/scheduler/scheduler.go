// Package scheduler runs the pipeline on a cron cadence for deployments
// without an external scheduler.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner is one pipeline invocation.
type Runner interface {
	Run(ctx context.Context) error
}

// Scheduler triggers the runner on a cron spec. Runs are serialized: if a
// run is still going when the next tick fires, the tick is skipped rather
// than racing the state file and table rewrites.
type Scheduler struct {
	runner     Runner
	spec       string
	runTimeout time.Duration
	logger     *zap.Logger

	cron *cron.Cron
	mu   sync.Mutex
}

func NewScheduler(runner Runner, spec string, runTimeout time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		runner:     runner,
		spec:       spec,
		runTimeout: runTimeout,
		logger:     logger,
	}
}

// Start registers the cron entry and begins scheduling. The first run
// fires on the first matching tick, not immediately.
func (s *Scheduler) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.spec, s.runOnce); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.String("cron", s.spec))
	return nil
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) runOnce() {
	if !s.mu.TryLock() {
		s.logger.Warn("Skipping scheduled run, previous run still in progress")
		return
	}
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	start := time.Now()
	if err := s.runner.Run(ctx); err != nil {
		s.logger.Error("Scheduled pipeline run failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}
	s.logger.Info("Scheduled pipeline run completed",
		zap.Duration("duration", time.Since(start)))
}
