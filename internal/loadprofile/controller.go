// Package loadprofile keeps the number of running actors on a staged ramp.
package loadprofile

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/totegamma/concrnt-loadtest/internal/metrics"
)

const defaultTick = 50 * time.Millisecond

// Stage ramps linearly from the previous stage's target to Target over Duration.
type Stage struct {
	Duration time.Duration
	Target   int
}

type Config struct {
	Stages     []Stage
	MaxActors  int
	Thresholds []metrics.Threshold
	// Tick is how often idle slots re-check the current target.
	Tick time.Duration
}

// ActorFunc runs one actor to completion. vu identifies the slot running it.
type ActorFunc func(ctx context.Context, vu int) error

type Controller struct {
	config  Config
	metrics *metrics.Aggregator
	logger  *zap.Logger

	active atomic.Int64
	start  time.Time
}

func New(config Config, agg *metrics.Aggregator, logger *zap.Logger) (*Controller, error) {
	if len(config.Stages) == 0 {
		return nil, errors.New("load profile has no stages")
	}
	if config.MaxActors <= 0 {
		return nil, errors.New("max actors must be positive")
	}
	for i, s := range config.Stages {
		if s.Duration < 0 || s.Target < 0 {
			return nil, errors.Errorf("stage %d: duration and target must not be negative", i)
		}
	}
	if config.Tick <= 0 {
		config.Tick = defaultTick
	}
	if agg == nil {
		agg = metrics.NewAggregator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{config: config, metrics: agg, logger: logger}, nil
}

// TotalDuration is the sum of all stage durations.
func (c *Controller) TotalDuration() time.Duration {
	var total time.Duration
	for _, s := range c.config.Stages {
		total += s.Duration
	}
	return total
}

// TargetAt returns the number of actors that should be running elapsed into the run,
// capped at MaxActors.
func (c *Controller) TargetAt(elapsed time.Duration) int {
	prev := 0
	var offset time.Duration
	for _, s := range c.config.Stages {
		if elapsed < offset+s.Duration {
			frac := float64(elapsed-offset) / float64(s.Duration)
			target := int(math.Round(float64(prev) + frac*float64(s.Target-prev)))
			return c.clamp(target)
		}
		offset += s.Duration
		prev = s.Target
	}
	return c.clamp(prev)
}

func (c *Controller) clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > c.config.MaxActors {
		return c.config.MaxActors
	}
	return n
}

// Active returns the number of actors currently running.
func (c *Controller) Active() int {
	return int(c.active.Load())
}

// Run drives actors until the last stage ends, then waits for the ones still in flight.
// Running actors are never interrupted by the ramp; only ctx cancellation reaches them.
func (c *Controller) Run(ctx context.Context, fn ActorFunc) (*metrics.Summary, error) {
	c.start = time.Now()
	total := c.TotalDuration()

	c.logger.Info("starting load profile",
		zap.Int("stages", len(c.config.Stages)),
		zap.Int("maxActors", c.config.MaxActors),
		zap.Duration("duration", total),
	)

	var wg sync.WaitGroup
	for vu := 1; vu <= c.config.MaxActors; vu++ {
		wg.Add(1)
		go func(vu int) {
			defer wg.Done()
			c.slot(ctx, vu, total, fn)
		}(vu)
	}
	wg.Wait()

	summary := c.metrics.Summarize(c.start, time.Now(), c.config.Thresholds)
	c.logger.Info("load profile finished",
		zap.Int64("actorsCompleted", summary.ActorsComplete),
		zap.Int64("actorsAborted", summary.ActorsAborted),
		zap.Bool("passed", summary.Passed()),
	)

	return summary, ctx.Err()
}

// slot vu runs actors back to back while vu is within the current target.
func (c *Controller) slot(ctx context.Context, vu int, total time.Duration, fn ActorFunc) {
	ticker := time.NewTicker(c.config.Tick)
	defer ticker.Stop()

	for {
		elapsed := time.Since(c.start)
		if elapsed >= total || ctx.Err() != nil {
			return
		}

		if vu <= c.TargetAt(elapsed) {
			c.runActor(ctx, vu, fn)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *Controller) runActor(ctx context.Context, vu int, fn ActorFunc) {
	c.active.Add(1)
	c.metrics.ActorStarted()

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("vu %d panicked: %v", vu, r)
		}
		c.active.Add(-1)
		c.metrics.ActorFinished(err)
		if err != nil {
			c.logger.Debug("actor aborted", zap.Int("vu", vu), zap.Error(err))
		}
	}()

	err = fn(ctx, vu)
}
