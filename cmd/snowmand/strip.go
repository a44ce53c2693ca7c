package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"dev.acmcsuf.com/christmas/lib/xcolor"

	snowman "github.com/simon3270/pi-snowman-rgb"
)

// frameRate caps how often the strip is written out to the hardware.
const frameRate = 100

// pixelDevice is the hardware driver behind the strip.
type pixelDevice interface {
	SetPixel(i int, color xcolor.RGB)
	Render() error
	Close() error
}

type stripConfig struct {
	NumPixels  int
	Brightness uint8
	Hardware   snowman.StripConfig

	Logger *slog.Logger
}

// ledStrip is the hardware LED strip. Flushes are coalesced and written out
// by start at no more than frameRate frames per second.
type ledStrip struct {
	logger *slog.Logger

	drawCh chan struct{}
	dev    pixelDevice
	devMu  sync.Mutex

	cfg stripConfig
}

var _ snowman.Strip = (*ledStrip)(nil)

// newDevice opens the hardware driver. Tests swap it out.
var newDevice = openDevice

func openStrip(cfg stripConfig) (*ledStrip, error) {
	dev, err := newDevice(cfg)
	if err != nil {
		return nil, err
	}

	return &ledStrip{
		logger: cfg.Logger,
		drawCh: make(chan struct{}, 1),
		dev:    dev,
		cfg:    cfg,
	}, nil
}

func (s *ledStrip) start(ctx context.Context) {
	drawCh := s.drawCh

	frameTicker := time.NewTicker(time.Second / time.Duration(frameRate))
	defer frameTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-frameTicker.C:
			drawCh = s.drawCh
			continue
		case <-drawCh:
			drawCh = nil
		}

		if err := s.flush(); err != nil {
			s.logger.Error(
				"error writing LED strip",
				"error", err)
		}
	}
}

func (s *ledStrip) Len() int {
	return s.cfg.NumPixels
}

func (s *ledStrip) SetLED(i int, color xcolor.RGB) {
	if i < 0 || i >= s.cfg.NumPixels {
		return
	}

	s.devMu.Lock()
	defer s.devMu.Unlock()

	s.dev.SetPixel(i, color)
}

// Flush queues the strip to be written out on the next frame.
func (s *ledStrip) Flush() error {
	s.queueDraw()
	return nil
}

// flush writes the strip out right away.
func (s *ledStrip) flush() error {
	s.devMu.Lock()
	defer s.devMu.Unlock()

	return s.dev.Render()
}

func (s *ledStrip) Close() error {
	s.devMu.Lock()
	defer s.devMu.Unlock()

	return s.dev.Close()
}

func (s *ledStrip) queueDraw() {
	select {
	case s.drawCh <- struct{}{}:
	default:
	}
}
