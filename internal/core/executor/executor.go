// Package executor wraps a single provider call with retry, backoff and
// timing instrumentation.
package executor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/strand-ai/strand/internal/provider"
	"github.com/strand-ai/strand/pkg/types"
)

// Policy bounds the retry loop. MaxRetries counts retries beyond the
// first attempt; the backoff delay is BaseDelay * 2^retry.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultPolicy returns the standard retry budget.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
	}
}

// Result is the outcome of executing one agent step. ElapsedMS and
// Retries are populated on failure too, so callers can record them.
type Result struct {
	Output    string
	Usage     types.TokenUsage
	ElapsedMS int64
	Retries   int
}

// Executor runs provider calls under a retry policy.
type Executor struct {
	policy Policy
	logger *zap.Logger
}

// New creates an Executor.
func New(policy Policy, logger *zap.Logger) *Executor {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{policy: policy, logger: logger}
}

// Execute calls the adapter, retrying rate-limit and transport failures
// with exponential backoff. Elapsed time spans all attempts, backoff
// sleeps included.
func (e *Executor) Execute(ctx context.Context, adapter provider.Adapter, req provider.GenerateRequest) (Result, error) {
	start := time.Now()

	for attempt := 0; ; attempt++ {
		resp, err := adapter.Generate(ctx, req)
		if err == nil {
			return Result{
				Output:    resp.Text,
				Usage:     resp.Usage,
				ElapsedMS: time.Since(start).Milliseconds(),
				Retries:   attempt,
			}, nil
		}

		if !provider.Retryable(err) {
			e.logger.Debug("provider error is not retryable",
				zap.String("provider", adapter.Name()),
				zap.Error(err),
			)
			return e.failure(start, attempt), err
		}
		if attempt >= e.policy.MaxRetries {
			e.logger.Warn("retry budget exhausted",
				zap.String("provider", adapter.Name()),
				zap.Int("attempts", attempt+1),
				zap.Error(err),
			)
			return e.failure(start, attempt), fmt.Errorf("failed after %d attempts: %w", attempt+1, err)
		}

		delay := e.policy.BaseDelay * (1 << attempt)
		e.logger.Info("retrying provider call",
			zap.String("provider", adapter.Name()),
			zap.Int("retry", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return e.failure(start, attempt), ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (e *Executor) failure(start time.Time, attempt int) Result {
	return Result{
		ElapsedMS: time.Since(start).Milliseconds(),
		Retries:   attempt,
	}
}
