package snowman

import (
	"context"
	"sync"
	"time"
)

const (
	// ParkPoll is how often a parked unit checks whether the sync show is
	// over.
	ParkPoll = 200 * time.Millisecond
	// CoordinatorPoll is how often the coordinator checks on the units.
	CoordinatorPoll = time.Second
)

// Barrier is the meeting point between the unit controllers and the sync
// coordinator. The coordinator requests a sync, every live unit parks at the
// barrier between two display cycles, the coordinator draws on the whole
// chain, then releases the units.
//
// Both sides poll the barrier on their own Clock; nothing blocks on it.
type Barrier struct {
	mu        sync.Mutex
	requested bool
	// idle counts the units that have arrived at the barrier during the
	// current cycle. It is only ever reset by the coordinator and only ever
	// incremented by units.
	idle int
	// parked is the number of live units waiting at the barrier right now.
	parked int
	alive  int
	cycle  int
	// released is the last cycle that the coordinator has released.
	released int
}

// BarrierStatus is a snapshot of a Barrier.
type BarrierStatus struct {
	Requested bool `json:"requested"`
	Idle      int  `json:"idle"`
	Parked    int  `json:"parked"`
	Alive     int  `json:"alive"`
	Cycle     int  `json:"cycle"`
}

// NewBarrier creates a new barrier with no units.
func NewBarrier() *Barrier {
	return &Barrier{}
}

// Join registers a live unit.
func (b *Barrier) Join() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.alive++
}

// Leave unregisters a unit that has terminated.
func (b *Barrier) Leave() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.alive--
}

// Alive returns the number of live units.
func (b *Barrier) Alive() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.alive
}

// Requested returns true if a sync has been requested and not yet released.
func (b *Barrier) Requested() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.requested
}

// Status returns a snapshot of the barrier.
func (b *Barrier) Status() BarrierStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BarrierStatus{
		Requested: b.requested,
		Idle:      b.idle,
		Parked:    b.parked,
		Alive:     b.alive,
		Cycle:     b.cycle,
	}
}

// Request starts a new barrier cycle: the idle count is reset, then the sync
// is requested.
func (b *Barrier) Request() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idle = 0
	b.cycle++
	b.requested = true
}

// Release ends the current barrier cycle and lets the parked units go.
func (b *Barrier) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.requested = false
	b.idle = 0
	b.released = b.cycle
}

// Park parks the calling unit if a sync has been requested, and returns once
// the cycle it parked in has been released, even if the next cycle has
// already been requested. The unit is counted as idle once per barrier cycle.
// It returns true if the unit had to park.
func (b *Barrier) Park(ctx context.Context, clock Clock) (bool, error) {
	var cycle int
	var parked bool

	defer func() {
		if parked {
			b.mu.Lock()
			b.parked--
			b.mu.Unlock()
		}
	}()

	for {
		b.mu.Lock()
		if !b.requested || (parked && b.released >= cycle) {
			b.mu.Unlock()
			return parked, nil
		}
		if b.cycle != cycle {
			cycle = b.cycle
			b.idle++
			if !parked {
				parked = true
				b.parked++
			}
		}
		b.mu.Unlock()

		if err := clock.Sleep(ctx, ParkPoll); err != nil {
			return parked, err
		}
	}
}

// AwaitIdle waits until every live unit is parked and has been counted as
// idle in the current cycle. It returns false if every unit has terminated
// instead. poll, if not nil, is called before every wait.
func (b *Barrier) AwaitIdle(ctx context.Context, clock Clock, poll func(BarrierStatus)) (bool, error) {
	for {
		status := b.Status()
		if status.Alive <= 0 {
			return false, nil
		}
		if status.Parked >= status.Alive && status.Idle >= status.Alive {
			return true, nil
		}
		if poll != nil {
			poll(status)
		}
		if err := clock.Sleep(ctx, CoordinatorPoll); err != nil {
			return false, err
		}
	}
}
