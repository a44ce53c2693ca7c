//go:build !ws2811

package main

import (
	"fmt"

	"dev.acmcsuf.com/christmas/lib/xcolor"
	"libdb.so/ledctl"

	snowman "github.com/simon3270/pi-snowman-rgb"
)

// RGBController is a controller for RGB LEDs.
type RGBController interface {
	SetRGBAt(i int, color ledctl.RGB)
	Flush() error
}

var ws281xConfig = ledctl.WS281xConfig{
	ColorOrder: ledctl.GRBOrder,
	ColorModel: ledctl.RGBModel,
}

// ledctlDevice drives the strip through ledctl. ledctl has no brightness
// control, so colors are dimmed before they are handed over.
type ledctlDevice struct {
	ctrl       RGBController
	brightness uint8
}

func openDevice(cfg stripConfig) (pixelDevice, error) {
	ws281xCfg := ws281xConfig
	ws281xCfg.NumPixels = cfg.NumPixels
	ws281xCfg.PWMFrequency = cfg.Hardware.PWMFrequency
	ws281xCfg.DMAChannel = cfg.Hardware.DMAChannel
	ws281xCfg.GPIOPins = []int{cfg.Hardware.GPIOPin}

	ws281x, err := ledctl.NewWS281x(ws281xCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create a WS281x controller: %w", err)
	}

	return &ledctlDevice{
		ctrl:       ws281x,
		brightness: cfg.Brightness,
	}, nil
}

func (d *ledctlDevice) SetPixel(i int, color xcolor.RGB) {
	d.ctrl.SetRGBAt(i, ledctl.RGB(snowman.Dim(color, d.brightness)))
}

func (d *ledctlDevice) Render() error {
	return d.ctrl.Flush()
}

func (d *ledctlDevice) Close() error {
	return nil
}
