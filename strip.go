package snowman

import (
	"sync"

	"dev.acmcsuf.com/christmas/lib/leddraw"
	"dev.acmcsuf.com/christmas/lib/xcolor"
)

// Strip is the shared chain of addressable LEDs that every unit draws on.
// Implementations must be safe for concurrent use: units write disjoint
// ranges of the same buffer and flush it independently.
type Strip interface {
	// Len returns the number of LEDs on the strip.
	Len() int
	// SetLED sets the buffered color of the LED at index i. The change is not
	// visible until Flush is called. Out of range indices are ignored.
	SetLED(i int, color xcolor.RGB)
	// Flush writes the buffered colors out to the LEDs.
	Flush() error
}

// MemStrip is a Strip that only exists in memory. It backs the simulator and
// the tests.
type MemStrip struct {
	mu      sync.Mutex
	leds    leddraw.LEDStrip
	shown   leddraw.LEDStrip
	flushes int
	onFlush func(leddraw.LEDStrip)
}

var _ Strip = (*MemStrip)(nil)

// NewMemStrip creates a new MemStrip with n LEDs, all off.
func NewMemStrip(n int) *MemStrip {
	s := &MemStrip{
		leds:  make(leddraw.LEDStrip, n),
		shown: make(leddraw.LEDStrip, n),
	}
	for i := range s.leds {
		s.leds[i] = Black
		s.shown[i] = Black
	}
	return s
}

// OnFlush sets a function that is called with a copy of the strip every time
// it is flushed. The function is called with the strip's lock held, so it
// must not call back into the strip.
func (s *MemStrip) OnFlush(f func(leddraw.LEDStrip)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onFlush = f
}

func (s *MemStrip) Len() int {
	return len(s.leds)
}

func (s *MemStrip) SetLED(i int, color xcolor.RGB) {
	if i < 0 || i >= len(s.leds) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.leds[i] = color
}

func (s *MemStrip) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy(s.shown, s.leds)
	s.flushes++

	if s.onFlush != nil {
		frame := make(leddraw.LEDStrip, len(s.shown))
		copy(frame, s.shown)
		s.onFlush(frame)
	}

	return nil
}

// LEDs returns a copy of the colors that were last flushed.
func (s *MemStrip) LEDs() leddraw.LEDStrip {
	s.mu.Lock()
	defer s.mu.Unlock()

	leds := make(leddraw.LEDStrip, len(s.shown))
	copy(leds, s.shown)
	return leds
}

// Flushes returns the number of times the strip has been flushed.
func (s *MemStrip) Flushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.flushes
}
