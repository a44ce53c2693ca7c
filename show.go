package snowman

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/typ.v4/sync2"
)

// unitStagger is the pause between starting two units, so that their
// startup demos do not run in lockstep.
const unitStagger = 100 * time.Millisecond

// ShowOpts are options for a show.
type ShowOpts struct {
	// Strip is the LED strip that the units are chained on.
	Strip Strip
	// Clock paces the show. Defaults to WallClock.
	Clock Clock
	// Units is the number of units on the chain.
	Units int
	// Window is when the units may display.
	Window Window
	// Sensor triggers the units. If nil, units use the synthetic trigger.
	Sensor Sensor
	// Colors is the ambient color source.
	Colors ColorSource
	// Categories are the enabled pattern categories. Defaults to all.
	Categories Category
	// Sleep is how long a unit sleeps between displays.
	Sleep time.Duration
	// NumDisp is the number of consecutive displays of the synthetic
	// trigger.
	NumDisp int
	// SyncInterval is the time between two sync shows.
	SyncInterval time.Duration
	// SyncShow is the chain pattern of the sync shows. Defaults to SyncShow.
	SyncShow ChainPatternFunc
	// Quiet skips the units' startup demo.
	Quiet bool
	// Seed seeds the units' pattern choices. Zero picks a random seed.
	Seed uint64
	// Logger is the logger to use for the show.
	Logger *slog.Logger
}

// Show runs a chain of units along with their sync coordinator.
type Show struct {
	opts        ShowOpts
	logger      *slog.Logger
	barrier     *Barrier
	units       []*Controller
	coordinator *Coordinator
	status      sync2.Map[int, UnitStatus]
}

// ShowStatus is a snapshot of a running show.
type ShowStatus struct {
	Units     []UnitStatus  `json:"units"`
	Barrier   BarrierStatus `json:"barrier"`
	SyncShows int           `json:"sync_shows"`
	Ambient   string        `json:"ambient"`
}

// NewShow creates a new show.
func NewShow(opts ShowOpts) (*Show, error) {
	if opts.Units < 1 {
		return nil, fmt.Errorf("need at least one unit, got %d", opts.Units)
	}
	if opts.Strip == nil {
		return nil, fmt.Errorf("no LED strip")
	}
	if need := opts.Units * LEDsPerUnit; opts.Strip.Len() < need {
		return nil, fmt.Errorf("strip has %d LEDs, %d units need %d", opts.Strip.Len(), opts.Units, need)
	}
	if opts.SyncInterval < 0 {
		return nil, fmt.Errorf("negative sync interval %v", opts.SyncInterval)
	}
	if err := opts.Window.Validate(); err != nil {
		return nil, fmt.Errorf("invalid display window: %w", err)
	}

	if opts.Clock == nil {
		opts.Clock = WallClock
	}
	if opts.Colors == nil {
		opts.Colors = NewAmbientColor(DefaultAmbientColor)
	}
	if opts.Seed == 0 {
		opts.Seed = rand.Uint64()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Show{
		opts:    opts,
		logger:  opts.Logger,
		barrier: NewBarrier(),
	}

	s.units = make([]*Controller, opts.Units)
	for i := range s.units {
		s.units[i] = NewController(UnitOpts{
			Index:      i,
			Strip:      opts.Strip,
			Clock:      opts.Clock,
			Barrier:    s.barrier,
			Window:     opts.Window,
			Sensor:     opts.Sensor,
			NumDisp:    opts.NumDisp,
			Sleep:      opts.Sleep,
			Categories: opts.Categories,
			Colors:     opts.Colors,
			Rand:       rand.New(rand.NewPCG(opts.Seed, uint64(i))),
			Quiet:      opts.Quiet,
			Logger:     opts.Logger.With("component", "unit"),
			Report:     func(status UnitStatus) { s.status.Store(status.Unit, status) },
			KeepLit:    true,
		})
	}

	s.coordinator = NewCoordinator(CoordinatorOpts{
		Strip:    opts.Strip,
		Clock:    opts.Clock,
		Barrier:  s.barrier,
		Units:    opts.Units,
		Interval: opts.SyncInterval,
		Window:   opts.Window,
		Colors:   opts.Colors,
		Show:     opts.SyncShow,
		Logger:   opts.Logger.With("component", "coordinator"),
	})

	return s, nil
}

// Run starts every unit and the sync coordinator, and blocks until ctx is
// cancelled or every unit has terminated. A unit whose sensor fails
// terminates on its own and is cleared while the others carry on; its error
// is returned once the show is over. The other units are only cleared once
// the coordinator and every unit have returned. Each unit is cleared exactly
// once.
func (s *Show) Run(ctx context.Context) error {
	// Deferred first so that it runs after the units have been cancelled
	// and waited on.
	defer func() {
		if err := s.Off(); err != nil {
			s.logger.Warn(
				"failed to clear units",
				"error", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var units errgroup.Group
	for i, unit := range s.units {
		if i > 0 {
			if err := s.opts.Clock.Sleep(ctx, unitStagger); err != nil {
				break
			}
		}

		s.barrier.Join()
		units.Go(func() error {
			defer s.barrier.Leave()

			err := unit.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logger.ErrorContext(ctx,
					"unit terminated",
					"unit", unit.Index(),
					"error", err)

				// The unit failed outside of a sync show and still counts as
				// alive, so nothing else is drawing on the chain.
				if err := unit.Clear(); err != nil {
					s.logger.Warn(
						"failed to clear unit",
						"unit", unit.Index(),
						"error", err)
				}

				return fmt.Errorf("unit %d: %w", unit.Index(), err)
			}

			return nil
		})
	}

	s.logger.InfoContext(ctx,
		"show started",
		"units", len(s.units),
		"sync_interval", s.opts.SyncInterval)

	err := s.coordinator.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		err = fmt.Errorf("sync coordinator: %w", err)
		cancel()
	}

	return errors.Join(err, units.Wait())
}

// Off turns every unit off. Each unit is only ever cleared once, so calling
// Off after Run has returned does nothing.
func (s *Show) Off() error {
	var errs []error
	for _, unit := range s.units {
		if err := unit.Clear(); err != nil {
			errs = append(errs, fmt.Errorf("unit %d: %w", unit.Index(), err))
		}
	}
	return errors.Join(errs...)
}

// Time runs every unit pattern once on the first unit and reports how long
// each one took.
func (s *Show) Time(ctx context.Context, report func(name string, took time.Duration)) error {
	region := UnitRegion(s.opts.Strip, s.opts.Clock, 0)

	for _, pattern := range Patterns {
		start := s.opts.Clock.Now()
		if err := pattern.Run(ctx, region, s.opts.Colors); err != nil {
			return fmt.Errorf("pattern %s: %w", pattern.Name, err)
		}
		report(pattern.Name, s.opts.Clock.Now().Sub(start))
	}

	return s.Off()
}

// Status returns a snapshot of the show.
func (s *Show) Status() ShowStatus {
	status := ShowStatus{
		Units:     make([]UnitStatus, 0, len(s.units)),
		Barrier:   s.barrier.Status(),
		SyncShows: s.coordinator.Shows(),
		Ambient:   Hex(s.opts.Colors.Color()),
	}
	for _, unit := range s.units {
		if st, ok := s.status.Load(unit.Index()); ok {
			status.Units = append(status.Units, st)
		}
	}
	return status
}
