package snowman

import (
	"context"
	"time"

	"dev.acmcsuf.com/christmas/lib/xcolor"
)

// PatternFunc draws a scripted, time-paced animation on a unit's region. It
// blocks until the animation is done or ctx is cancelled. Patterns keep no
// state between calls.
type PatternFunc func(ctx context.Context, r Region, colors ColorSource) error

// Pattern is a named animation.
type Pattern struct {
	Name     string
	Category Category
	Run      PatternFunc
}

func paint(f func(p *painter, colors ColorSource)) PatternFunc {
	return func(ctx context.Context, r Region, colors ColorSource) error {
		p := newPainter(ctx, r)
		f(p, colors)
		return p.err
	}
}

// sequence runs the given patterns one after the other.
func sequence(patterns ...PatternFunc) PatternFunc {
	return func(ctx context.Context, r Region, colors ColorSource) error {
		for _, pattern := range patterns {
			if err := pattern(ctx, r, colors); err != nil {
				return err
			}
		}
		return nil
	}
}

// The unit patterns. Patterns that leave LEDs lit say so.
var (
	// HeadTieOn lights the nose, the eyes and the tie in turn and leaves them
	// lit.
	HeadTieOn = Pattern{"head-tie-on", CategoryAction, headTieOn(100 * time.Millisecond)}
	// Spin chases a light clockwise around the arms and leaves them lit.
	Spin = Pattern{"spin", CategoryAction, spin(Arms)}
	// SpinBack chases a light counterclockwise around the arms and leaves
	// them lit.
	SpinBack = Pattern{"spin-back", CategoryAction, spin(ArmsBack)}
	// Wink blinks the left eye and leaves it lit.
	Wink = Pattern{"wink", CategoryAction, wink(EyeLeft)}
	// WinkRight blinks the right eye and leaves it lit.
	WinkRight = Pattern{"wink-right", CategoryAction, wink(EyeRight)}
	// UpDown blinks the snowman row by row, up and back down.
	UpDown = Pattern{"up-down", CategoryAction, paint(upDown)}
	// Wobble flaps the arms.
	Wobble = Pattern{"wobble", CategoryAction, paint(wobble)}
	// AllOn lights the snowman part by part and leaves it lit.
	AllOn = Pattern{"all-on", CategoryAction, allOn(100 * time.Millisecond)}
	// AllOff turns every LED off one at a time.
	AllOff = Pattern{"all-off", CategoryAction, allOff(100 * time.Millisecond)}
	// TheaterChase runs theater-marquee chases in white, red, blue and the
	// ambient color.
	TheaterChase = Pattern{"theater-chase", CategoryTheater, paint(runTheaterChase)}
	// TheaterChaseRainbow runs a theater-marquee chase through the rainbow.
	TheaterChaseRainbow = Pattern{"theater-chase-rainbow", CategoryTheater, paint(theaterChaseRainbow)}
	// ColorWipe wipes red, green and blue across the snowman three times,
	// then wipes the ambient color and leaves it lit.
	ColorWipe = Pattern{"color-wipe", CategoryWipe, paint(runColorWipe)}
	// Rainbow fades the whole snowman through the rainbow.
	Rainbow = Pattern{"rainbow", CategoryRainbow, paint(rainbow)}
	// RainbowCycle spreads the rainbow over the snowman and rotates it.
	RainbowCycle = Pattern{"rainbow-cycle", CategoryRainbow, paint(rainbowCycle)}
)

// Patterns lists every unit pattern in the order they are timed.
var Patterns = []Pattern{
	HeadTieOn,
	Spin,
	SpinBack,
	AllOn,
	Wink,
	WinkRight,
	Wobble,
	UpDown,
	TheaterChase,
	TheaterChaseRainbow,
	ColorWipe,
	Rainbow,
	RainbowCycle,
}

// LookupPattern returns the unit pattern with the given name.
func LookupPattern(name string) (Pattern, bool) {
	for _, pattern := range Patterns {
		if pattern.Name == name {
			return pattern, true
		}
	}
	return Pattern{}, false
}

func headTieOn(wait time.Duration) PatternFunc {
	return paint(func(p *painter, _ ColorSource) {
		p.step(Nose, Orange, wait)
		p.step(Eyes, Blue, wait)
		p.step(Tie, Green, wait)
	})
}

func allOn(wait time.Duration) PatternFunc {
	return paint(func(p *painter, _ ColorSource) {
		p.step(Arms, White, wait)
		p.step(Tie, Green, wait)
		p.step(Nose, Orange, wait)
		p.step(Eyes, Blue, wait)
	})
}

func allOff(wait time.Duration) PatternFunc {
	return paint(func(p *painter, _ ColorSource) {
		p.step(WholeUnit, Black, wait)
	})
}

func spin(order Group) PatternFunc {
	return paint(func(p *painter, _ ColorSource) {
		p.step(Arms, Black, 0)
		for n := 0; n < 10 && p.ok(); n++ {
			for _, px := range order {
				p.set(px, White)
				p.show()
				p.wait(70 * time.Millisecond)
				p.set(px, Black)
				p.show()
			}
		}
		p.step(order, White, 0)
		p.wait(300 * time.Millisecond)
	})
}

func wink(eye Single) PatternFunc {
	return paint(func(p *painter, _ ColorSource) {
		for n := 0; n < 4 && p.ok(); n++ {
			p.release(eye)
			p.show()
			p.wait(200 * time.Millisecond)
			p.light(eye, Blue)
			p.show()
			p.wait(time.Second)
		}
	})
}

// rowsUp are the rows of a snowman from the bottom up.
var rowsUp = []Group{
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{9},
	{11, 10},
}

// rowsDown are the rows of a snowman from the top down.
var rowsDown = []Group{
	{11, 10},
	{9},
	{2, 5, 8},
	{1, 4, 7},
	{0, 3, 6},
}

func upDown(p *painter, _ ColorSource) {
	blink := func(rows []Group) {
		for _, row := range rows {
			p.step(row, Black, 0)
			p.wait(200 * time.Millisecond)
			for _, px := range row {
				p.set(px, faceColors[px])
				p.show()
			}
			p.wait(200 * time.Millisecond)
		}
	}
	blink(rowsUp)
	blink(rowsDown)
	p.wait(500 * time.Millisecond)
}

func wobble(p *painter, _ ColorSource) {
	flap := func(arm Group) {
		p.release(arm)
		p.show()
		p.wait(100 * time.Millisecond)
		p.light(arm, White)
		p.show()
		p.wait(300 * time.Millisecond)
	}
	for n := 0; n < 6 && p.ok(); n++ {
		flap(ArmLeft)
		flap(ArmRight)
	}
}

func colorWipe(p *painter, color xcolor.RGB) {
	p.step(WholeUnit, color, 50*time.Millisecond)
}

func runColorWipe(p *painter, colors ColorSource) {
	for n := 0; n < 3 && p.ok(); n++ {
		colorWipe(p, Red)
		colorWipe(p, Green)
		colorWipe(p, Blue)
	}
	colorWipe(p, colors.Color())
}

// theaterChase lights every third LED, shifting the lit set along the unit
// like a theater marquee.
func theaterChase(p *painter, color func(px, j int) xcolor.RGB, iterations int) {
	for j := 0; j < iterations && p.ok(); j++ {
		for q := 0; q < 3; q++ {
			for px := q; px < LEDsPerUnit; px += 3 {
				p.set(px, color(px, j))
			}
			p.show()
			p.wait(50 * time.Millisecond)
			for px := q; px < LEDsPerUnit; px += 3 {
				p.set(px, Black)
			}
		}
	}
	p.show()
}

func solid(color xcolor.RGB) func(px, j int) xcolor.RGB {
	return func(int, int) xcolor.RGB { return color }
}

func runTheaterChase(p *painter, colors ColorSource) {
	theaterChase(p, solid(rgb(127, 127, 127)), 10)
	theaterChase(p, solid(rgb(127, 0, 0)), 10)
	theaterChase(p, solid(rgb(0, 0, 127)), 10)
	theaterChase(p, solid(colors.Color()), 10)
}

func theaterChaseRainbow(p *painter, _ ColorSource) {
	theaterChase(p, func(px, j int) xcolor.RGB {
		return wheel(uint8((px + j) % 255))
	}, 256)
}

func rainbow(p *painter, _ ColorSource) {
	for j := 0; j < 256 && p.ok(); j++ {
		for px := 0; px < LEDsPerUnit; px++ {
			p.set(px, wheel(uint8((px+j)&255)))
		}
		p.show()
		p.wait(20 * time.Millisecond)
	}
}

func rainbowCycle(p *painter, _ ColorSource) {
	for j := 0; j < 256*5 && p.ok(); j++ {
		for px := 0; px < LEDsPerUnit; px++ {
			p.set(px, wheel(uint8((px*256/LEDsPerUnit+j)&255)))
		}
		p.show()
		p.wait(3 * time.Millisecond)
	}
}
