package snowman

import (
	"sync"
	"testing"

	"dev.acmcsuf.com/christmas/lib/xcolor"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in    string
		want  xcolor.RGB
		isErr bool
	}{
		{in: "#ff0000", want: Red},
		{in: "#00FF00", want: Green},
		{in: "0000ff", want: Blue},
		{in: " #ffa500\n", want: Orange},
		{in: "#000000", want: Black},
		{in: "", isErr: true},
		{in: "#", isErr: true},
		{in: "#fff", isErr: true},
		{in: "#ff00000", isErr: true},
		{in: "#gg0000", isErr: true},
		{in: "red", isErr: true},
		{in: "+fffff", isErr: true},
	}

	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			got, err := ParseHex(test.in)
			if test.isErr {
				if err == nil {
					t.Fatalf("expected error, got %s", Hex(got))
				}
				return
			}
			if err != nil {
				t.Fatal("unexpected error:", err)
			}
			assertEq(t, Hex(test.want), Hex(got))
		})
	}
}

func TestAmbientColorSetHex(t *testing.T) {
	ambient := NewAmbientColor(DefaultAmbientColor)
	assertEq(t, "#00ff00", Hex(ambient.Color()))

	if err := ambient.SetHex("#123456"); err != nil {
		t.Fatal("unexpected error:", err)
	}
	assertEq(t, "#123456", Hex(ambient.Color()))

	for _, bad := range []string{"", "purple", "#12345", "#zzzzzz"} {
		if err := ambient.SetHex(bad); err == nil {
			t.Errorf("SetHex(%q) did not fail", bad)
		}
		assertEq(t, "#123456", Hex(ambient.Color()))
	}
}

func TestAmbientColorConcurrent(t *testing.T) {
	colors := []xcolor.RGB{Red, Blue, White, Orange}
	valid := make(map[string]bool, len(colors))
	for _, c := range colors {
		valid[Hex(c)] = true
	}

	ambient := NewAmbientColor(Red)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				ambient.Set(colors[(w+i)%len(colors)])
			}
		}()
	}

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				if c := Hex(ambient.Color()); !valid[c] {
					t.Errorf("read a color that was never written: %s", c)
					return
				}
			}
		}()
	}

	wg.Wait()
}

func TestDim(t *testing.T) {
	tests := []struct {
		name       string
		color      xcolor.RGB
		brightness uint8
		want       string
	}{
		{"full", Orange, 255, "#ffa500"},
		{"off", White, 0, "#000000"},
		{"half", rgb(200, 100, 50), 128, "#643219"},
		{"default brightness", White, 20, "#141414"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assertEq(t, test.want, Hex(Dim(test.color, test.brightness)))
		})
	}
}

func TestWheel(t *testing.T) {
	assertEq(t, "#00ff00", Hex(wheel(0)))
	assertEq(t, "#ff0000", Hex(wheel(85)))
	assertEq(t, "#0000ff", Hex(wheel(170)))
	assertEq(t, "#fc0003", Hex(wheel(86)))
}
