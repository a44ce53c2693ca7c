package snowman

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// Category is a group of patterns that can be enabled or disabled as a
// whole. Categories combine as a bit set.
type Category uint8

const (
	CategoryAction Category = 1 << iota
	CategoryTheater
	CategoryWipe
	CategoryRainbow

	// AllCategories enables every pattern.
	AllCategories = CategoryAction | CategoryTheater | CategoryWipe | CategoryRainbow
)

var categoryNames = []struct {
	category Category
	name     string
}{
	{CategoryAction, "action"},
	{CategoryTheater, "theater"},
	{CategoryWipe, "wipe"},
	{CategoryRainbow, "rainbow"},
}

// Has returns true if every category in other is also in c.
func (c Category) Has(other Category) bool {
	return c&other == other
}

func (c Category) String() string {
	var names []string
	for _, cn := range categoryNames {
		if c.Has(cn.category) {
			names = append(names, cn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// ParseCategory parses a category name such as "rainbow".
func ParseCategory(name string) (Category, error) {
	for _, cn := range categoryNames {
		if cn.name == name {
			return cn.category, nil
		}
	}
	return 0, fmt.Errorf("unknown pattern category %q", name)
}

// outcome is one of the equally likely results of choosing what a unit
// displays next.
type outcome struct {
	name     string
	category Category
	run      PatternFunc
}

// displayOutcomes are the outcomes a unit chooses from. Any draw past the end
// of the table turns the unit off instead.
var displayOutcomes = []outcome{
	{"spin", CategoryAction, sequence(headTieOn(0), Spin.Run)},
	{"spin-back", CategoryAction, sequence(headTieOn(0), SpinBack.Run)},
	{"wink", CategoryAction, sequence(allOn(0), Wink.Run)},
	{"wink-right", CategoryAction, sequence(allOn(0), WinkRight.Run)},
	{"wobble", CategoryAction, sequence(headTieOn(0), Wobble.Run)},
	{"up-down", CategoryAction, UpDown.Run},
	{"theater-chase", CategoryTheater, TheaterChase.Run},
	{"color-wipe", CategoryWipe, ColorWipe.Run},
	{"rainbow", CategoryRainbow, Rainbow.Run},
	{"rainbow-cycle", CategoryRainbow, RainbowCycle.Run},
}

// offOutcome is the outcome of a draw past the end of displayOutcomes.
var offOutcome = outcome{"off", 0, AllOff.Run}

const (
	// sensorOutcomes is the number of outcomes drawn from when a motion
	// sensor drives the unit: every draw displays something.
	sensorOutcomes = 10
	// syntheticOutcomes is the number of outcomes drawn from when the unit
	// runs on the synthetic trigger. The draws past the pattern table turn the
	// unit off, so it only displays about 60% of the time.
	syntheticOutcomes = 16
)

// chooseOutcome draws one of n equally likely outcomes.
func chooseOutcome(rng *rand.Rand, n int) outcome {
	i := rng.IntN(n)
	if i < len(displayOutcomes) {
		return displayOutcomes[i]
	}
	return offOutcome
}

// demo is the sequence every unit shows once when it starts up.
var demo = sequence(
	AllOn.Run,
	Wobble.Run,
	UpDown.Run,
	UpDown.Run,
	Wink.Run,
	WinkRight.Run,
	AllOff.Run,
	HeadTieOn.Run,
	Spin.Run,
	SpinBack.Run,
	AllOff.Run,
	paint(func(p *painter, _ ColorSource) { p.wait(time.Second) }),
	allOn(0),
	paint(func(p *painter, _ ColorSource) { p.wait(time.Second) }),
	allOff(0),
)
