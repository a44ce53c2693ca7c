package snowman

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const secondsPerDay = 24 * 60 * 60

// Span is a half-open range of seconds since midnight, [Start, End).
type Span struct {
	Start int
	End   int
}

// Contains returns true if the given second of the day falls inside the span.
func (s Span) Contains(second int) bool {
	return second >= s.Start && second < s.End
}

func (s Span) String() string {
	return formatSecondOfDay(s.Start) + "-" + formatSecondOfDay(s.End)
}

type yamlSpan struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// UnmarshalYAML implements yaml.Unmarshaler. Spans are written as
// {start: "HH:MM[:SS]", end: "HH:MM[:SS]"}.
func (s *Span) UnmarshalYAML(value *yaml.Node) error {
	var raw yamlSpan
	if err := value.Decode(&raw); err != nil {
		return err
	}

	start, err := parseSecondOfDay(raw.Start)
	if err != nil {
		return fmt.Errorf("invalid start: %w", err)
	}

	end, err := parseSecondOfDay(raw.End)
	if err != nil {
		return fmt.Errorf("invalid end: %w", err)
	}

	*s = Span{Start: start, End: end}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (s Span) MarshalYAML() (any, error) {
	return yamlSpan{
		Start: formatSecondOfDay(s.Start),
		End:   formatSecondOfDay(s.End),
	}, nil
}

// Window is the set of times of day during which units may display. An
// empty Window never allows display.
type Window []Span

// DefaultWindow allows display all day long, save for the first and last
// second.
var DefaultWindow = Window{{Start: 1, End: secondsPerDay - 1}}

// AlwaysOn allows display at every second of the day.
var AlwaysOn = Window{{Start: 0, End: secondsPerDay}}

// Open returns true if display is allowed at t, in t's location.
func (w Window) Open(t time.Time) bool {
	second := 3600*t.Hour() + 60*t.Minute() + t.Second()
	for _, span := range w {
		if span.Contains(second) {
			return true
		}
	}
	return false
}

// Validate checks that every span is a non-empty range within a day.
func (w Window) Validate() error {
	for i, span := range w {
		if span.Start < 0 || span.End > secondsPerDay {
			return fmt.Errorf("span %d (%v) is outside of a day", i, span)
		}
		if span.Start >= span.End {
			return fmt.Errorf("span %d (%v) ends before it starts", i, span)
		}
	}
	return nil
}

func parseSecondOfDay(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%q is not HH:MM or HH:MM:SS", s)
	}

	limits := []int{24, 60, 60}
	units := []int{3600, 60, 1}

	var second int
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil {
			return 0, fmt.Errorf("%q is not HH:MM or HH:MM:SS: %w", s, err)
		}
		// 24:00:00 is allowed as the end of the day.
		if v < 0 || v > limits[i] || (v == limits[i] && i > 0) {
			return 0, fmt.Errorf("%q is out of range", s)
		}
		second += v * units[i]
	}

	if second > secondsPerDay {
		return 0, fmt.Errorf("%q is out of range", s)
	}

	return second, nil
}

func formatSecondOfDay(second int) string {
	return fmt.Sprintf("%02d:%02d:%02d", second/3600, second/60%60, second%60)
}
