package snowman

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"

	"dev.acmcsuf.com/christmas/lib/leddraw"
	"dev.acmcsuf.com/christmas/lib/xcolor"
	"github.com/google/go-cmp/cmp"
)

// fakeClock is a Clock whose sleeps return right away and move its time
// forward instead.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps int
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

// noon is a time inside every display window used by the tests.
var noon = time.Date(2023, time.December, 24, 12, 0, 0, 0, time.Local)

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = now
}

func (c *fakeClock) Sleeps() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sleeps
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	c.now = c.now.Add(d)
	c.sleeps++
	c.mu.Unlock()

	runtime.Gosched()
	return nil
}

type sensorFunc func() (bool, error)

func (f sensorFunc) Motion() (bool, error) { return f() }

func assertEq[T any](t *testing.T, expected, actual T, opts ...cmp.Option) {
	t.Helper()

	if diff := cmp.Diff(expected, actual, opts...); diff != "" {
		t.Errorf("unexpected diff (-want +got):\n%s", diff)
	}
}

// hexes formats a strip as "#rrggbb" strings so that diffs stay readable.
func hexes(leds leddraw.LEDStrip) []string {
	s := make([]string, len(leds))
	for i, c := range leds {
		s[i] = Hex(c)
	}
	return s
}

// unitHexes returns the colors of a single unit on the strip.
func unitHexes(leds leddraw.LEDStrip, unit int) []string {
	return hexes(leds[unit*LEDsPerUnit : (unit+1)*LEDsPerUnit])
}

func repeatHex(c xcolor.RGB, n int) []string {
	s := make([]string, n)
	for i := range s {
		s[i] = Hex(c)
	}
	return s
}

// eventually fails the test if cond does not become true within a few
// seconds of real time.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
