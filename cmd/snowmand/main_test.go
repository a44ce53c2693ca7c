package main

import (
	"context"
	"testing"

	"dev.acmcsuf.com/christmas/lib/xcolor"
	"github.com/google/go-cmp/cmp"
	"github.com/neilotoole/slogt"

	snowman "github.com/simon3270/pi-snowman-rgb"
)

type fakeDevice struct {
	pixels  []xcolor.RGB
	renders int
	closed  bool
}

func (d *fakeDevice) SetPixel(i int, color xcolor.RGB) {
	d.pixels[i] = color
}

func (d *fakeDevice) Render() error {
	d.renders++
	return nil
}

func (d *fakeDevice) Close() error {
	d.closed = true
	return nil
}

func (d *fakeDevice) hexes() []string {
	hexes := make([]string, len(d.pixels))
	for i, c := range d.pixels {
		hexes[i] = snowman.Hex(c)
	}
	return hexes
}

// saveFlags restores the command line flags once the test is over.
func saveFlags(t *testing.T) {
	units, lcount, bright := numUnits, syncSeconds, brightness
	off, pir, feed := turnOff, usePIR, useFeed
	config, status := configPath, statusAddr
	action, wipe, theater, rainbow := onlyAction, onlyWipe, onlyTheater, onlyRainbow

	t.Cleanup(func() {
		numUnits, syncSeconds, brightness = units, lcount, bright
		turnOff, usePIR, useFeed = off, pir, feed
		configPath, statusAddr = config, status
		onlyAction, onlyWipe, onlyTheater, onlyRainbow = action, wipe, theater, rainbow
	})
}

func TestEnabledCategories(t *testing.T) {
	tests := []struct {
		name                           string
		action, wipe, theater, rainbow bool
		want                           snowman.Category
	}{
		{
			name: "none",
			want: snowman.AllCategories,
		},
		{
			name:   "action",
			action: true,
			want:   snowman.CategoryAction,
		},
		{
			name:    "theater and rainbow",
			theater: true,
			rainbow: true,
			want:    snowman.CategoryTheater | snowman.CategoryRainbow,
		},
		{
			name:    "all",
			action:  true,
			wipe:    true,
			theater: true,
			rainbow: true,
			want:    snowman.AllCategories,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			saveFlags(t)
			onlyAction = test.action
			onlyWipe = test.wipe
			onlyTheater = test.theater
			onlyRainbow = test.rainbow

			assertEq(t, test.want, enabledCategories())
		})
	}
}

func TestRunOff(t *testing.T) {
	const units = 2

	dev := &fakeDevice{pixels: make([]xcolor.RGB, units*snowman.LEDsPerUnit)}
	for i := range dev.pixels {
		dev.pixels[i] = snowman.White
	}

	var opened stripConfig
	saved := newDevice
	newDevice = func(cfg stripConfig) (pixelDevice, error) {
		opened = cfg
		return dev, nil
	}
	t.Cleanup(func() { newDevice = saved })

	saveFlags(t)
	numUnits = units
	turnOff = true
	// --off never touches the sensor or the feed.
	usePIR = true
	useFeed = true
	configPath = ""
	statusAddr = ""

	if err := run(context.Background(), slogt.New(t)); err != nil {
		t.Fatal("unexpected error:", err)
	}

	assertEq(t, units*snowman.LEDsPerUnit, opened.NumPixels)

	want := make([]string, units*snowman.LEDsPerUnit)
	for i := range want {
		want[i] = snowman.Hex(snowman.Black)
	}
	assertEq(t, want, dev.hexes())

	if dev.renders == 0 {
		t.Error("strip was never written out")
	}
	assertEq(t, true, dev.closed)
}

func TestRunInvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		set  func()
	}{
		{"no units", func() { numUnits = 0 }},
		{"zero lcount", func() { syncSeconds = 0 }},
		{"brightness", func() { brightness = 256 }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			saveFlags(t)
			test.set()

			if err := run(context.Background(), slogt.New(t)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func assertEq[T any](t *testing.T, expected, actual T, opts ...cmp.Option) {
	t.Helper()

	if diff := cmp.Diff(expected, actual, opts...); diff != "" {
		t.Errorf("unexpected diff (-want +got):\n%s", diff)
	}
}
