//go:build ws2811

package main

import (
	"fmt"

	"dev.acmcsuf.com/christmas/lib/xcolor"
	ws2811 "github.com/rpi-ws281x/rpi-ws281x-go"
)

// ws2811Device drives the strip through the rpi_ws281x C library, which
// applies the brightness in hardware.
type ws2811Device struct {
	dev  *ws2811.WS2811
	leds []uint32
}

func openDevice(cfg stripConfig) (pixelDevice, error) {
	opt := ws2811.DefaultOptions
	opt.Frequency = cfg.Hardware.PWMFrequency
	opt.DmaNum = cfg.Hardware.DMAChannel
	opt.Channels[0].GpioPin = cfg.Hardware.GPIOPin
	opt.Channels[0].LedCount = cfg.NumPixels
	opt.Channels[0].Brightness = int(cfg.Brightness)

	dev, err := ws2811.MakeWS2811(&opt)
	if err != nil {
		return nil, fmt.Errorf("failed to create a WS2811 device: %w", err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize the WS2811 device: %w", err)
	}

	return &ws2811Device{
		dev:  dev,
		leds: dev.Leds(0),
	}, nil
}

func (d *ws2811Device) SetPixel(i int, color xcolor.RGB) {
	d.leds[i] = color.ToUint() & 0xFFFFFF
}

func (d *ws2811Device) Render() error {
	return d.dev.Render()
}

func (d *ws2811Device) Close() error {
	d.dev.Fini()
	return nil
}
