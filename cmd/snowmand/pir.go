package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	snowman "github.com/simon3270/pi-snowman-rgb"
)

const (
	pirSettlePoll  = 100 * time.Millisecond
	pirSettleTries = 10
)

// pirSensor is a PIR motion sensor wired to a GPIO pin. The pin reads high
// while motion is detected.
type pirSensor struct {
	pin gpio.PinIO
}

var _ snowman.Sensor = (*pirSensor)(nil)

// openPIR opens the PIR sensor on the named pin and waits for up to a second
// for it to settle low.
func openPIR(ctx context.Context, name string, logger *slog.Logger) (*pirSensor, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GPIO host: %w", err)
	}

	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("no GPIO pin named %q", name)
	}

	if err := pin.In(gpio.Float, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("failed to set up %s as input: %w", name, err)
	}

	logger.DebugContext(ctx,
		"waiting for PIR to settle",
		"pin", name)

	for i := 0; i < pirSettleTries && pin.Read() == gpio.High; i++ {
		if err := snowman.WallClock.Sleep(ctx, pirSettlePoll); err != nil {
			return nil, err
		}
	}

	logger.DebugContext(ctx,
		"PIR ready",
		"pin", name,
		"level", pin.Read())

	return &pirSensor{pin: pin}, nil
}

func (s *pirSensor) Motion() (bool, error) {
	return s.pin.Read() == gpio.High, nil
}
