package snowman

import (
	"context"
	"time"

	"dev.acmcsuf.com/christmas/lib/xcolor"
)

// ChainPatternFunc draws an animation across every unit of a chain.
type ChainPatternFunc func(ctx context.Context, c Chain, colors ColorSource) error

func paintChain(f func(p *painter, units int, colors ColorSource)) ChainPatternFunc {
	return func(ctx context.Context, c Chain, colors ColorSource) error {
		p := newChainPainter(ctx, c)
		f(p, c.Units, colors)
		return p.err
	}
}

// The chain patterns.
var (
	// ArmChase runs a light in the ambient color around the arms of each
	// unit in turn, down the chain and back.
	ArmChase ChainPatternFunc = paintChain(armChase)
	// VerticalSweep sweeps vertical bars across the chain and back.
	VerticalSweep ChainPatternFunc = paintChain(verticalSweep)
	// HorizontalSweep lights the same row on every unit at once, top to
	// bottom and back up.
	HorizontalSweep ChainPatternFunc = paintChain(horizontalSweep)
)

// SyncShow is the coordinated show run across the whole chain while every
// unit is parked.
var SyncShow ChainPatternFunc = paintChain(func(p *painter, units int, colors ColorSource) {
	clearChain(p, units, colors)
	for n := 0; n < 2; n++ {
		armChase(p, units, colors)
	}
	verticalSweep(p, units, colors)
	for n := 0; n < 3; n++ {
		horizontalSweep(p, units, colors)
	}
	p.wait(time.Second)
})

func clearChain(p *painter, units int, _ ColorSource) {
	for u := 0; u < units; u++ {
		p.onUnit(u)
		p.step(WholeUnit, Black, 0)
	}
}

func armChase(p *painter, units int, colors ColorSource) {
	chase := func(u int, arms Group) {
		p.onUnit(u)
		for _, px := range arms {
			p.set(px, colors.Color())
			p.show()
			p.wait(30 * time.Millisecond)
			p.set(px, Black)
			p.show()
		}
	}
	for u := 0; u < units && p.ok(); u++ {
		chase(u, Arms)
	}
	for u := units - 1; u >= 0 && p.ok(); u-- {
		chase(u, ArmsBack)
	}
}

// colorLoop is the palette that the sweeps cycle through.
var colorLoop = []xcolor.RGB{White, Red, Green, Blue, Orange}

// colorCycle steps through colorLoop, starting after its first color.
type colorCycle int

func (c *colorCycle) next() xcolor.RGB {
	*c = (*c + 1) % colorCycle(len(colorLoop))
	return colorLoop[*c]
}

// verticalBars are the columns of a snowman from left to right.
var verticalBars = []Group{
	{0, 1},
	{2, 11},
	{3, 4, 5, 9},
	{8, 10},
	{6, 7},
}

func verticalSweep(p *painter, units int, _ ColorSource) {
	var colors colorCycle
	flash := func(bar Group) {
		p.light(bar, colors.next())
		p.show()
		p.wait(75 * time.Millisecond)
		p.release(bar)
		p.show()
	}
	for u := 0; u < units && p.ok(); u++ {
		p.onUnit(u)
		for _, bar := range verticalBars {
			flash(bar)
		}
	}
	for u := units - 1; u >= 0 && p.ok(); u-- {
		p.onUnit(u)
		for i := len(verticalBars) - 1; i >= 0; i-- {
			flash(verticalBars[i])
		}
	}
}

func horizontalSweep(p *painter, units int, _ ColorSource) {
	var colors colorCycle
	sweep := func(rows []Group) {
		for _, row := range rows {
			color := colors.next()
			for u := 0; u < units; u++ {
				p.onUnit(u)
				p.light(row, color)
				p.show()
			}
			p.wait(75 * time.Millisecond)
			for u := 0; u < units; u++ {
				p.onUnit(u)
				p.release(row)
				p.show()
			}
		}
		p.wait(75 * time.Millisecond)
	}
	sweep(rowsDown)
	sweep(rowsUp)
}
