// Package client holds the HTTP clients for the Taipower live feeds and
// the CWA open-data forecast API.
package client

import (
	"context"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// BaseClient is a GET client with exponential-backoff retry behind a
// circuit breaker.
type BaseClient struct {
	client         HTTPClient
	logger         *zap.Logger
	circuitBreaker *gobreaker.CircuitBreaker
	maxRetries     int
	retryDelay     time.Duration
	multiplier     float64
}

type ClientConfig struct {
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	Multiplier     float64
	BreakerTimeout time.Duration
}

func NewBaseClient(name string, config ClientConfig, logger *zap.Logger) *BaseClient {
	breakerSettings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("client", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &BaseClient{
		client:         &http.Client{Timeout: config.Timeout},
		logger:         logger,
		circuitBreaker: gobreaker.NewCircuitBreaker(breakerSettings),
		maxRetries:     config.MaxRetries,
		retryDelay:     config.RetryDelay,
		multiplier:     config.Multiplier,
	}
}

// GetWithRetry fetches url through the circuit breaker, retrying transient
// failures with exponential backoff.
func (c *BaseClient) GetWithRetry(ctx context.Context, url string) ([]byte, error) {
	body, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.doGetWithRetry(ctx, url)
	})
	if err != nil {
		return nil, err
	}
	return body.([]byte), nil
}

func (c *BaseClient) doGetWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(c.retryDelay) * math.Pow(c.multiplier, float64(attempt-1)))
			c.logger.Debug("Retrying request",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))

			select {
			case <-ctx.Done():
				return nil, eris.Wrap(ctx.Err(), "client: request cancelled")
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, eris.Wrap(err, "client: build request")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			c.logger.Warn("HTTP request failed",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				lastErr = err
				continue
			}
			return body, nil
		}

		resp.Body.Close()
		lastErr = eris.Errorf("HTTP %d", resp.StatusCode)

		// 4xx will not get better on retry; 429 is the exception.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			break
		}
	}

	return nil, eris.Wrap(lastErr, "client: retries exhausted")
}
