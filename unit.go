package snowman

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	// DarkCooldown is how long a unit stays dark after the display window
	// closes on it mid-show.
	DarkCooldown = 30 * time.Second
	// WindowPoll is how often a dark unit outside the display window checks
	// whether the window has opened.
	WindowPoll = time.Second
)

// UnitState is the state of a unit's display cycle.
type UnitState uint8

const (
	// Idle is a unit waiting for a trigger with nothing on display.
	Idle UnitState = iota
	// Displaying is a unit that has been triggered and is showing patterns.
	Displaying
	// Dark is a unit that has just turned itself off after displaying.
	Dark
)

func (s UnitState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Displaying:
		return "displaying"
	case Dark:
		return "dark"
	default:
		return fmt.Sprintf("UnitState(%d)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s UnitState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StepResult describes what a single controller step did.
type StepResult uint8

const (
	_ StepResult = iota
	// StepParked means the unit waited out a sync show at the barrier.
	StepParked
	// StepDisplayed means the unit was triggered and chose a display.
	StepDisplayed
	// StepSlept means the trigger was not active and the unit slept.
	StepSlept
	// StepCooldown means the display window closed on a displaying unit,
	// which turned itself off and cooled down.
	StepCooldown
	// StepClosed means the display window is closed and the unit left its
	// LEDs alone.
	StepClosed
)

// Sensor is a motion sensor.
type Sensor interface {
	// Motion returns true if the sensor currently sees motion.
	Motion() (bool, error)
}

// UnitStatus is a snapshot of a unit controller, for reporting.
type UnitStatus struct {
	Unit        int       `json:"unit"`
	State       UnitState `json:"state"`
	Parked      bool      `json:"parked"`
	Displays    int       `json:"displays"`
	LastPattern string    `json:"last_pattern,omitempty"`
	Updated     time.Time `json:"updated"`
}

// UnitOpts are options for a unit controller.
type UnitOpts struct {
	// Index is the unit's position on the chain.
	Index int
	// Strip is the shared LED strip.
	Strip Strip
	// Clock paces the controller. Defaults to WallClock.
	Clock Clock
	// Barrier is shared with the sync coordinator and the other units.
	Barrier *Barrier
	// Window is when the unit may display.
	Window Window
	// Sensor triggers displays. If nil, the unit triggers itself NumDisp
	// times in a row between sleeps.
	Sensor Sensor
	// NumDisp is the number of consecutive displays of the synthetic
	// trigger. Defaults to 1.
	NumDisp int
	// Sleep is how long the unit sleeps when it is not triggered.
	Sleep time.Duration
	// Categories are the enabled pattern categories. Defaults to all.
	Categories Category
	// Colors is the ambient color source.
	Colors ColorSource
	// Rand chooses the patterns. It must not be shared with other units.
	Rand *rand.Rand
	// Quiet skips the startup demo.
	Quiet bool
	// Logger is the logger to use for the unit.
	Logger *slog.Logger
	// Report, if not nil, is called with the unit's status every time it
	// changes.
	Report func(UnitStatus)
	// KeepLit stops Run from clearing the unit when it returns. Whoever runs
	// the unit is then responsible for calling Clear.
	KeepLit bool
}

// Controller runs the display cycle of a single unit.
type Controller struct {
	opts   UnitOpts
	region Region
	logger *slog.Logger

	state     UnitState
	countdown int
	// resumed is set after the unit has waited out a sync show, so that it
	// gets a cycle of its own before it can park again.
	resumed   bool
	displays  int
	last      string

	clearOnce sync.Once
	clearErr  error
}

// NewController creates a new unit controller.
func NewController(opts UnitOpts) *Controller {
	if opts.Clock == nil {
		opts.Clock = WallClock
	}
	if opts.Barrier == nil {
		opts.Barrier = NewBarrier()
	}
	if opts.NumDisp < 1 {
		opts.NumDisp = 1
	}
	if opts.Categories == 0 {
		opts.Categories = AllCategories
	}
	if opts.Colors == nil {
		opts.Colors = StaticColor(DefaultAmbientColor)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), uint64(opts.Index)))
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Controller{
		opts:   opts,
		region: UnitRegion(opts.Strip, opts.Clock, opts.Index),
		logger: opts.Logger.With("unit", opts.Index),
	}
}

// Index returns the unit's position on the chain.
func (c *Controller) Index() int {
	return c.opts.Index
}

// State returns the current state of the unit. It must only be called from
// the goroutine running the controller.
func (c *Controller) State() UnitState {
	return c.state
}

// Run runs the unit until ctx is cancelled or the motion sensor fails. The
// unit's LEDs are cleared before Run returns unless KeepLit is set.
func (c *Controller) Run(ctx context.Context) error {
	defer func() {
		if c.opts.KeepLit {
			return
		}
		if err := c.Clear(); err != nil {
			c.logger.Warn(
				"failed to clear unit",
				"error", err)
		}
	}()

	c.logger.DebugContext(ctx, "unit started")
	c.report(false)

	if !c.opts.Quiet {
		if err := demo(ctx, c.region, c.opts.Colors); err != nil {
			return err
		}
	}

	for {
		if _, err := c.Step(ctx); err != nil {
			return err
		}
	}
}

// Step runs a single cycle of the unit's state machine.
func (c *Controller) Step(ctx context.Context) (StepResult, error) {
	if c.resumed {
		c.resumed = false
	} else if c.opts.Barrier.Requested() {
		c.report(true)
		parked, err := c.opts.Barrier.Park(ctx, c.opts.Clock)
		c.report(false)
		if err != nil {
			return StepParked, err
		}
		if parked {
			c.resumed = true
			return StepParked, nil
		}
	}

	if !c.opts.Window.Open(c.opts.Clock.Now()) {
		return c.closed(ctx)
	}

	triggered, err := c.trigger()
	if err != nil {
		return 0, err
	}

	if triggered {
		return StepDisplayed, c.display(ctx)
	}

	return StepSlept, c.rest(ctx)
}

// Clear turns the unit's LEDs off. Only the first call does anything; later
// calls return the first call's result.
func (c *Controller) Clear() error {
	c.clearOnce.Do(func() {
		c.clearErr = allOff(0)(context.Background(), c.region, c.opts.Colors)
	})
	return c.clearErr
}

func (c *Controller) trigger() (bool, error) {
	if c.opts.Sensor != nil {
		motion, err := c.opts.Sensor.Motion()
		if err != nil {
			return false, fmt.Errorf("failed to read motion sensor: %w", err)
		}
		return motion, nil
	}

	if c.countdown == 0 {
		c.countdown = c.opts.NumDisp
	} else {
		c.countdown--
	}
	return c.countdown > 0, nil
}

func (c *Controller) outcomes() int {
	if c.opts.Sensor != nil {
		return sensorOutcomes
	}
	return syntheticOutcomes
}

func (c *Controller) display(ctx context.Context) error {
	if c.state != Displaying {
		c.logger.DebugContext(ctx, "motion detected")

		if err := AllOn.Run(ctx, c.region, c.opts.Colors); err != nil {
			return err
		}
		c.setState(Displaying)
	}

	o := chooseOutcome(c.opts.Rand, c.outcomes())
	if !c.opts.Categories.Has(o.category) {
		c.logger.DebugContext(ctx,
			"skipping disabled pattern",
			"pattern", o.name,
			"category", o.category)
		return nil
	}

	c.logger.DebugContext(ctx,
		"displaying pattern",
		"pattern", o.name)

	c.displays++
	c.last = o.name
	c.report(false)

	return o.run(ctx, c.region, c.opts.Colors)
}

func (c *Controller) rest(ctx context.Context) error {
	if c.state == Displaying {
		c.logger.DebugContext(ctx, "idle")

		if err := AllOff.Run(ctx, c.region, c.opts.Colors); err != nil {
			return err
		}
		c.setState(Dark)
	}

	if err := c.opts.Clock.Sleep(ctx, c.opts.Sleep); err != nil {
		return err
	}

	if c.state == Dark {
		c.setState(Idle)
	}
	return nil
}

func (c *Controller) closed(ctx context.Context) (StepResult, error) {
	if c.state != Displaying {
		return StepClosed, c.opts.Clock.Sleep(ctx, WindowPoll)
	}

	c.logger.DebugContext(ctx, "dark")

	if err := AllOff.Run(ctx, c.region, c.opts.Colors); err != nil {
		return StepCooldown, err
	}
	c.setState(Dark)

	if err := c.opts.Clock.Sleep(ctx, DarkCooldown); err != nil {
		return StepCooldown, err
	}
	c.setState(Idle)

	return StepCooldown, nil
}

func (c *Controller) setState(state UnitState) {
	c.state = state
	c.report(false)
}

func (c *Controller) report(parked bool) {
	if c.opts.Report == nil {
		return
	}
	c.opts.Report(UnitStatus{
		Unit:        c.opts.Index,
		State:       c.state,
		Parked:      parked,
		Displays:    c.displays,
		LastPattern: c.last,
		Updated:     c.opts.Clock.Now(),
	})
}
