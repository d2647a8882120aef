// Package updater refreshes the on-disk database and requests a process
// restart once fresh data is in place.
package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Controller runs the update procedure on a schedule. It never touches the
// open database handle: on success it signals the handoff and the process is
// expected to exit and be restarted by its supervisor.
type Controller struct {
	schedule  Schedule
	procedure Procedure
	handoff   *Handoff
	logger    *slog.Logger
	newTicker func(time.Duration) (<-chan time.Time, func())
	observe   func(error)
}

// ControllerOption customises a Controller.
type ControllerOption func(*Controller)

// WithTicker replaces the ticker used for the schedule.
func WithTicker(newTicker func(time.Duration) (<-chan time.Time, func())) ControllerOption {
	return func(c *Controller) { c.newTicker = newTicker }
}

// WithRunObserver registers a callback invoked after every procedure run.
func WithRunObserver(observe func(error)) ControllerOption {
	return func(c *Controller) { c.observe = observe }
}

// NewController creates an update controller.
func NewController(schedule Schedule, procedure Procedure, handoff *Handoff, logger *slog.Logger, opts ...ControllerOption) *Controller {
	c := &Controller{
		schedule:  schedule,
		procedure: procedure,
		handoff:   handoff,
		logger:    logger,
		newTicker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
		observe: func(error) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bootstrap makes sure a database file exists at path before the handle is
// opened. When the file is missing the procedure runs synchronously; its
// failure is returned and must abort startup.
func (c *Controller) Bootstrap(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat database %s: %w", path, err)
	}

	c.logger.Info("database file missing, running update procedure", "path", path)
	if err := c.runProcedure(ctx); err != nil {
		return fmt.Errorf("bootstrap update: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("bootstrap update did not produce %s: %w", path, err)
	}
	c.logger.Info("bootstrap update succeeded", "path", path)
	return nil
}

// Run waits for schedule ticks and runs the procedure on each. It returns
// ErrHandoff after a successful run and nil when ctx is cancelled or the
// handoff was signalled elsewhere. With a disabled schedule it only waits.
func (c *Controller) Run(ctx context.Context) error {
	interval, enabled := c.schedule.Interval()
	if !enabled {
		c.logger.Info("periodic updates disabled")
		select {
		case <-ctx.Done():
		case <-c.handoff.Done():
		}
		return nil
	}

	tick, stop := c.newTicker(interval)
	defer stop()
	c.logger.Info("periodic updates enabled", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.handoff.Done():
			return nil
		case <-tick:
		}

		c.logger.Info("running update procedure")
		if err := c.runProcedure(ctx); err != nil {
			c.logger.Error("update failed, keeping current database", "error", err, "next_attempt_in", interval.String())
			continue
		}

		c.logger.Info("update succeeded, requesting restart")
		c.handoff.Signal("scheduled update succeeded")
		return ErrHandoff
	}
}

// runProcedure blocks until the procedure exits; cancellation of ctx does not
// interrupt it.
func (c *Controller) runProcedure(ctx context.Context) error {
	start := time.Now()
	err := c.procedure.Run(context.WithoutCancel(ctx))
	c.observe(err)
	c.logger.Debug("update procedure finished", "duration_ms", time.Since(start).Milliseconds(), "ok", err == nil)
	return err
}
