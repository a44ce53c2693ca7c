package snowman

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// CoordinatorOpts are options for a sync coordinator.
type CoordinatorOpts struct {
	// Strip is the shared LED strip.
	Strip Strip
	// Clock paces the coordinator. Defaults to WallClock.
	Clock Clock
	// Barrier is shared with every unit controller.
	Barrier *Barrier
	// Units is the number of units on the chain.
	Units int
	// Interval is the time between two sync shows.
	Interval time.Duration
	// Window is when the sync show may display.
	Window Window
	// Colors is the ambient color source.
	Colors ColorSource
	// Show is the chain pattern to run. Defaults to SyncShow.
	Show ChainPatternFunc
	// Logger is the logger to use for the coordinator.
	Logger *slog.Logger
}

// Coordinator periodically stops every unit at the barrier and runs a single
// show across the whole chain.
type Coordinator struct {
	opts  CoordinatorOpts
	chain Chain
	shows atomic.Int64
}

// NewCoordinator creates a new sync coordinator.
func NewCoordinator(opts CoordinatorOpts) *Coordinator {
	if opts.Clock == nil {
		opts.Clock = WallClock
	}
	if opts.Barrier == nil {
		opts.Barrier = NewBarrier()
	}
	if opts.Colors == nil {
		opts.Colors = StaticColor(DefaultAmbientColor)
	}
	if opts.Show == nil {
		opts.Show = SyncShow
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Coordinator{
		opts: opts,
		chain: Chain{
			Strip: opts.Strip,
			Clock: opts.Clock,
			Units: opts.Units,
		},
	}
}

// Shows returns the number of sync shows that have been run.
func (c *Coordinator) Shows() int {
	return int(c.shows.Load())
}

// Run runs sync cycles until every unit has terminated or ctx is cancelled.
// It never turns the units off itself.
func (c *Coordinator) Run(ctx context.Context) error {
	for c.opts.Barrier.Alive() > 0 {
		if err := c.waitInterval(ctx); err != nil {
			return err
		}

		if err := c.cycle(ctx); err != nil {
			return err
		}
	}

	c.opts.Logger.DebugContext(ctx, "all units have terminated")
	return nil
}

// waitInterval waits out the interval between two shows, returning early if
// every unit terminates.
func (c *Coordinator) waitInterval(ctx context.Context) error {
	for waited := time.Duration(0); waited < c.opts.Interval; waited += CoordinatorPoll {
		if c.opts.Barrier.Alive() == 0 {
			return nil
		}
		if err := c.opts.Clock.Sleep(ctx, CoordinatorPoll); err != nil {
			return err
		}
	}
	return nil
}

func (c *Coordinator) cycle(ctx context.Context) error {
	barrier := c.opts.Barrier
	defer barrier.Release()

	c.opts.Logger.DebugContext(ctx, "waiting for all units to be idle")
	barrier.Request()

	ok, err := barrier.AwaitIdle(ctx, c.opts.Clock, func(status BarrierStatus) {
		c.opts.Logger.DebugContext(ctx,
			"waiting for sync",
			"idle", status.Idle,
			"alive", status.Alive)
	})
	if err != nil || !ok {
		return err
	}

	if c.opts.Window.Open(c.opts.Clock.Now()) {
		c.opts.Logger.DebugContext(ctx,
			"all units idle, running sync show",
			"units", c.opts.Units)

		if err := c.opts.Show(ctx, c.chain, c.opts.Colors); err != nil {
			return err
		}
		c.shows.Add(1)
	}

	c.opts.Logger.DebugContext(ctx, "out of sync")
	return nil
}
