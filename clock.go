package snowman

import (
	"context"
	"time"
)

// Clock is the source of time for everything that paces itself. Every
// suspension point in the show goes through a Clock so that cancellation is
// observed at each sleep.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// Sleep pauses for d or until ctx is done, whichever happens first. It
	// returns ctx.Err() if the context ended the sleep. A non-positive
	// duration returns immediately with a nil error.
	Sleep(ctx context.Context, d time.Duration) error
}

// WallClock is the Clock backed by the system clock.
var WallClock Clock = wallClock{}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func (wallClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
