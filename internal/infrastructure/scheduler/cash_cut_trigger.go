// Package scheduler runs periodic ledger jobs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	appledger "github.com/vaultledger/backend/internal/application/ledger"
	"go.uber.org/zap"
)

// CashCutRunner produces and stores one cash-cut report.
type CashCutRunner interface {
	Run(ctx context.Context, asOf *time.Time) (*appledger.CashCutResponse, error)
}

// CashCutTriggerConfig holds configuration for the cash-cut trigger
type CashCutTriggerConfig struct {
	// Interval between two scheduled cash cuts
	Interval time.Duration
	// Timeout bounds a single run
	Timeout time.Duration
	// RunOnStart performs a cash cut as soon as the trigger starts
	RunOnStart bool
}

// DefaultCashCutTriggerConfig returns the daily schedule
func DefaultCashCutTriggerConfig() CashCutTriggerConfig {
	return CashCutTriggerConfig{
		Interval: 24 * time.Hour,
		Timeout:  5 * time.Minute,
	}
}

// CashCutTrigger runs the integrity validation on a fixed interval and
// persists each report through the runner. Runs never overlap.
type CashCutTrigger struct {
	config  CashCutTriggerConfig
	runner  CashCutRunner
	logger  *zap.Logger
	running atomic.Bool
	runs    atomic.Int64
}

// NewCashCutTrigger creates a new cash-cut trigger
func NewCashCutTrigger(config CashCutTriggerConfig, runner CashCutRunner, logger *zap.Logger) (*CashCutTrigger, error) {
	if config.Interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultCashCutTriggerConfig().Timeout
	}
	return &CashCutTrigger{
		config: config,
		runner: runner,
		logger: logger,
	}, nil
}

// Run blocks until ctx is cancelled, triggering a cash cut on every tick.
// It always returns nil on cancellation so it can live in an errgroup.
func (c *CashCutTrigger) Run(ctx context.Context) error {
	c.logger.Info("Cash-cut trigger started",
		zap.Duration("interval", c.config.Interval),
		zap.Duration("timeout", c.config.Timeout),
		zap.Bool("run_on_start", c.config.RunOnStart),
	)

	if c.config.RunOnStart {
		c.trigger(ctx)
	}

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Cash-cut trigger stopped", zap.Int64("runs", c.runs.Load()))
			return nil
		case <-ticker.C:
			c.trigger(ctx)
		}
	}
}

// TriggerNow performs a cash cut immediately, as of now.
func (c *CashCutTrigger) TriggerNow(ctx context.Context) (*appledger.CashCutResponse, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer c.running.Store(false)

	runCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	c.runs.Add(1)
	return c.runner.Run(runCtx, nil)
}

// Runs returns the number of cash cuts started so far
func (c *CashCutTrigger) Runs() int64 {
	return c.runs.Load()
}

func (c *CashCutTrigger) trigger(ctx context.Context) {
	start := time.Now()
	resp, err := c.TriggerNow(ctx)
	switch {
	case errors.Is(err, ErrRunInProgress):
		c.logger.Warn("Skipping cash cut, previous run still in progress")
	case err != nil:
		c.logger.Error("Cash cut failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
	default:
		c.logger.Info("Cash cut completed",
			zap.String("cash_cut_id", resp.ID.String()),
			zap.Int("violation_count", resp.ViolationCount),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
