package snowman

import (
	"context"
	"fmt"
	"time"

	"dev.acmcsuf.com/christmas/lib/xcolor"
)

// LEDsPerUnit is the number of LEDs on a single snowman.
//
//	   11   10
//	      9
//	   2  5  8
//	 1    4   7
//	 0    3   6
const LEDsPerUnit = 12

// PixelTarget is either a Single LED or a Group of LEDs within a unit.
type PixelTarget interface {
	pixels() []int
}

// Single is a single LED within a unit.
type Single int

// Group is an ordered group of LEDs within a unit.
type Group []int

func (s Single) pixels() []int { return []int{int(s)} }
func (g Group) pixels() []int  { return g }

// Parts of a snowman.
var (
	Arms      = Group{0, 1, 2, 8, 7, 6}
	ArmsBack  = Group{6, 7, 8, 2, 1, 0}
	ArmLeft   = Group{0, 1, 2}
	ArmRight  = Group{6, 7, 8}
	Tie       = Group{5, 4, 3}
	Eyes      = Group{10, 11}
	EyeLeft   = Single(10)
	EyeRight  = Single(11)
	Nose      = Single(9)
	WholeUnit = Group{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
)

// faceColors is the resting color of each LED of a snowman.
var faceColors = [LEDsPerUnit]xcolor.RGB{
	White, White, White,
	Green, Green, Green,
	White, White, White,
	Orange,
	Blue, Blue,
}

// Region is the part of a Strip that belongs to a single unit.
type Region struct {
	Strip Strip
	Clock Clock
	// Base is the index of the unit's first LED on the strip.
	Base int
}

// UnitRegion returns the region of the unit with the given index.
func UnitRegion(strip Strip, clock Clock, unit int) Region {
	return Region{
		Strip: strip,
		Clock: clock,
		Base:  unit * LEDsPerUnit,
	}
}

// Chain is the whole strip seen as a row of units.
type Chain struct {
	Strip Strip
	Clock Clock
	Units int
}

// painter draws onto a strip one LED at a time. The first error it meets,
// including cancellation during a wait, sticks, and every later call becomes
// a no-op.
type painter struct {
	ctx   context.Context
	strip Strip
	clock Clock
	base  int
	err   error
}

func newPainter(ctx context.Context, r Region) *painter {
	return &painter{
		ctx:   ctx,
		strip: r.Strip,
		clock: r.Clock,
		base:  r.Base,
	}
}

func newChainPainter(ctx context.Context, c Chain) *painter {
	return &painter{
		ctx:   ctx,
		strip: c.Strip,
		clock: c.Clock,
	}
}

func (p *painter) ok() bool { return p.err == nil }

// onUnit moves the painter onto the given unit of the chain.
func (p *painter) onUnit(unit int) {
	p.base = unit * LEDsPerUnit
}

func (p *painter) set(px int, color xcolor.RGB) {
	if p.err != nil {
		return
	}
	p.strip.SetLED(p.base+px, color)
}

func (p *painter) light(t PixelTarget, color xcolor.RGB) {
	for _, px := range t.pixels() {
		p.set(px, color)
	}
}

func (p *painter) release(t PixelTarget) {
	p.light(t, Black)
}

func (p *painter) show() {
	if p.err != nil {
		return
	}
	if err := p.strip.Flush(); err != nil {
		p.err = fmt.Errorf("failed to flush strip: %w", err)
	}
}

func (p *painter) wait(d time.Duration) {
	if p.err != nil {
		return
	}
	p.err = p.clock.Sleep(p.ctx, d)
}

// step lights each LED of t in turn with the given color, showing each one
// and waiting d after it.
func (p *painter) step(t PixelTarget, color xcolor.RGB, d time.Duration) {
	for _, px := range t.pixels() {
		p.set(px, color)
		p.show()
		p.wait(d)
	}
}
