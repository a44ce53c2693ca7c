package snowman

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dev.acmcsuf.com/christmas/lib/xcolor"
	"github.com/neilotoole/slogt"
)

// guardStrip counts every write made to it while the sync show is on.
type guardStrip struct {
	*MemStrip
	showing    atomic.Bool
	violations atomic.Int64
}

func (s *guardStrip) SetLED(i int, color xcolor.RGB) {
	if s.showing.Load() {
		s.violations.Add(1)
	}
	s.MemStrip.SetLED(i, color)
}

func (s *guardStrip) Flush() error {
	if s.showing.Load() {
		s.violations.Add(1)
	}
	return s.MemStrip.Flush()
}

func TestShowSyncExclusion(t *testing.T) {
	const units = 3

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	strip := &guardStrip{MemStrip: NewMemStrip(units * LEDsPerUnit)}

	var show *Show
	var shows int

	show, err := NewShow(ShowOpts{
		Strip:        strip,
		Clock:        newFakeClock(noon),
		Units:        units,
		Window:       AlwaysOn,
		Sleep:        time.Second,
		SyncInterval: 2 * time.Second,
		Quiet:        true,
		Seed:         42,
		Logger:       slogt.New(t),
		SyncShow: func(ctx context.Context, c Chain, colors ColorSource) error {
			assertEq(t, BarrierStatus{
				Requested: true,
				Idle:      units,
				Parked:    units,
				Alive:     units,
				Cycle:     shows + 1,
			}, show.Status().Barrier)

			strip.showing.Store(true)
			err := SyncShow(ctx, Chain{Strip: strip.MemStrip, Clock: c.Clock, Units: c.Units}, colors)
			// Give any unit that is not parked a chance to draw.
			time.Sleep(2 * time.Millisecond)
			strip.showing.Store(false)

			shows++
			if shows == 5 {
				cancel()
			}
			return err
		},
	})
	if err != nil {
		t.Fatal("failed to create show:", err)
	}

	if err := show.Run(ctx); err != nil {
		t.Fatal("unexpected error:", err)
	}

	assertEq(t, int64(0), strip.violations.Load())
	assertEq(t, repeatHex(Black, units*LEDsPerUnit), hexes(strip.LEDs()))

	status := show.Status()
	assertEq(t, 5, status.SyncShows)
	assertEq(t, units, len(status.Units))
	assertEq(t, BarrierStatus{Cycle: 5}, status.Barrier)

	// Every unit has already been cleared once.
	flushes := strip.Flushes()
	if err := show.Off(); err != nil {
		t.Fatal("unexpected error:", err)
	}
	assertEq(t, flushes, strip.Flushes())
}

func TestShowUnitFails(t *testing.T) {
	const units = 3
	errBroken := errors.New("sensor is broken")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int64
	var failed atomic.Bool
	sensor := sensorFunc(func() (bool, error) {
		if calls.Add(1) == 20 {
			failed.Store(true)
			return false, errBroken
		}
		return true, nil
	})

	var show *Show
	var shows int
	var lastAlive int

	show, err := NewShow(ShowOpts{
		Strip:        NewMemStrip(units * LEDsPerUnit),
		Clock:        newFakeClock(noon),
		Units:        units,
		Window:       AlwaysOn,
		Sensor:       sensor,
		SyncInterval: time.Second,
		Quiet:        true,
		Logger:       slogt.New(t),
		SyncShow: func(ctx context.Context, c Chain, colors ColorSource) error {
			shows++
			if shows >= 5 && failed.Load() {
				lastAlive = show.Status().Barrier.Alive
				cancel()
			}
			return nil
		},
	})
	if err != nil {
		t.Fatal("failed to create show:", err)
	}

	err = show.Run(ctx)
	if !errors.Is(err, errBroken) {
		t.Fatalf("expected the sensor error, got %v", err)
	}

	assertEq(t, units-1, lastAlive)
}

func TestShowAllUnitsFail(t *testing.T) {
	errBroken := errors.New("sensor is broken")

	strip := NewMemStrip(2 * LEDsPerUnit)

	show, err := NewShow(ShowOpts{
		Strip:        strip,
		Clock:        newFakeClock(noon),
		Units:        2,
		Window:       AlwaysOn,
		Sensor:       sensorFunc(func() (bool, error) { return false, errBroken }),
		SyncInterval: time.Hour,
		Quiet:        true,
		Logger:       slogt.New(t),
	})
	if err != nil {
		t.Fatal("failed to create show:", err)
	}

	done := make(chan error, 1)
	go func() { done <- show.Run(context.Background()) }()

	select {
	case err := <-done:
		if !errors.Is(err, errBroken) {
			t.Fatalf("expected the sensor error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("show did not end after every unit failed")
	}

	assertEq(t, 0, show.Status().SyncShows)
	assertEq(t, repeatHex(Black, 2*LEDsPerUnit), hexes(strip.LEDs()))
}

func TestShowBackToBackSyncs(t *testing.T) {
	const units = 2

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var shows int

	show, err := NewShow(ShowOpts{
		Strip:        NewMemStrip(units * LEDsPerUnit),
		Clock:        newFakeClock(noon),
		Units:        units,
		Window:       AlwaysOn,
		Sleep:        time.Second,
		SyncInterval: 0,
		Quiet:        true,
		Seed:         7,
		Logger:       slogt.New(t),
		SyncShow: func(ctx context.Context, c Chain, colors ColorSource) error {
			shows++
			if shows == 20 {
				cancel()
			}
			return nil
		},
	})
	if err != nil {
		t.Fatal("failed to create show:", err)
	}

	done := make(chan error, 1)
	go func() { done <- show.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal("unexpected error:", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("sync shows stopped coming")
	}

	// Every unit got a cycle of its own between two sync shows, and every
	// other cycle is a display.
	status := show.Status()
	assertEq(t, units, len(status.Units))
	for _, unit := range status.Units {
		if unit.Displays < 5 {
			t.Errorf("unit %d displayed %d times in %d sync shows", unit.Unit, unit.Displays, shows)
		}
	}
}

// cancelStrip cancels the show partway through the sync show.
type cancelStrip struct {
	*MemStrip
	armed  atomic.Bool
	writes atomic.Int64
	after  int64
	cancel context.CancelFunc
}

func (s *cancelStrip) SetLED(i int, color xcolor.RGB) {
	s.MemStrip.SetLED(i, color)
	if s.armed.Load() && Hex(color) != Hex(Black) && s.writes.Add(1) == s.after {
		s.cancel()
	}
}

func TestShowCancelledDuringSyncShow(t *testing.T) {
	const units = 3

	for _, after := range []int64{1, 10, 40} {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		strip := &cancelStrip{
			MemStrip: NewMemStrip(units * LEDsPerUnit),
			after:    after,
			cancel:   cancel,
		}

		show, err := NewShow(ShowOpts{
			Strip:        strip,
			Clock:        newFakeClock(noon),
			Units:        units,
			Window:       AlwaysOn,
			Sleep:        time.Second,
			SyncInterval: time.Second,
			Quiet:        true,
			Seed:         42,
			Logger:       slogt.New(t),
			SyncShow: func(ctx context.Context, c Chain, colors ColorSource) error {
				strip.armed.Store(true)
				return SyncShow(ctx, c, colors)
			},
		})
		if err != nil {
			t.Fatal("failed to create show:", err)
		}

		if err := show.Run(ctx); err != nil {
			t.Fatal("unexpected error:", err)
		}

		assertEq(t, repeatHex(Black, units*LEDsPerUnit), hexes(strip.LEDs()))

		flushes := strip.Flushes()
		if err := show.Off(); err != nil {
			t.Fatal("unexpected error:", err)
		}
		assertEq(t, flushes, strip.Flushes())
	}
}

func TestShowOff(t *testing.T) {
	strip := NewMemStrip(2 * LEDsPerUnit)
	for i := 0; i < strip.Len(); i++ {
		strip.SetLED(i, White)
	}
	strip.Flush()

	show, err := NewShow(ShowOpts{
		Strip:  strip,
		Clock:  newFakeClock(noon),
		Units:  2,
		Logger: slogt.New(t),
	})
	if err != nil {
		t.Fatal("failed to create show:", err)
	}

	if err := show.Off(); err != nil {
		t.Fatal("unexpected error:", err)
	}
	assertEq(t, repeatHex(Black, 2*LEDsPerUnit), hexes(strip.LEDs()))
}

func TestShowTime(t *testing.T) {
	strip := NewMemStrip(LEDsPerUnit)

	show, err := NewShow(ShowOpts{
		Strip:  strip,
		Clock:  newFakeClock(noon),
		Units:  1,
		Logger: slogt.New(t),
	})
	if err != nil {
		t.Fatal("failed to create show:", err)
	}

	var mu sync.Mutex
	var names []string
	err = show.Time(context.Background(), func(name string, took time.Duration) {
		mu.Lock()
		defer mu.Unlock()

		names = append(names, name)
		if took <= 0 {
			t.Errorf("pattern %s took %v", name, took)
		}
	})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	want := make([]string, len(Patterns))
	for i, p := range Patterns {
		want[i] = p.Name
	}
	assertEq(t, want, names)
	assertEq(t, repeatHex(Black, LEDsPerUnit), hexes(strip.LEDs()))
}

func TestNewShowInvalid(t *testing.T) {
	tests := []struct {
		name string
		opts ShowOpts
	}{
		{
			name: "no units",
			opts: ShowOpts{Strip: NewMemStrip(LEDsPerUnit)},
		},
		{
			name: "no strip",
			opts: ShowOpts{Units: 1},
		},
		{
			name: "short strip",
			opts: ShowOpts{Strip: NewMemStrip(2*LEDsPerUnit - 1), Units: 2},
		},
		{
			name: "negative sync interval",
			opts: ShowOpts{
				Strip:        NewMemStrip(LEDsPerUnit),
				Units:        1,
				SyncInterval: -time.Second,
			},
		},
		{
			name: "bad window",
			opts: ShowOpts{
				Strip:  NewMemStrip(LEDsPerUnit),
				Units:  1,
				Window: Window{{Start: 10, End: 5}},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := NewShow(test.opts); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
