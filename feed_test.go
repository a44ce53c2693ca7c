package snowman

import (
	"testing"

	"github.com/neilotoole/slogt"
)

func TestColorFeedHandle(t *testing.T) {
	ambient := NewAmbientColor(DefaultAmbientColor)

	feed := NewColorFeed(ColorFeedOpts{
		Broker: "tcp://localhost:1883",
		Topic:  "hex",
		Color:  ambient,
		Logger: slogt.New(t),
	})

	steps := []struct {
		payload string
		want    string
	}{
		{"not a color", "#00ff00"},
		{"#ff0000", "#ff0000"},
		{"", "#ff0000"},
		{"#ff00", "#ff0000"},
		{"#fdf5e6", "#fdf5e6"},
		{"oldlace", "#fdf5e6"},
		{"#800080\n", "#800080"},
	}

	for _, step := range steps {
		feed.handle([]byte(step.payload))
		assertEq(t, step.want, Hex(ambient.Color()))
	}
}
