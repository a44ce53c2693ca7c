package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	snowman "github.com/simon3270/pi-snowman-rgb"
)

var (
	numUnits     = 1
	usePIR       = false
	useFeed      = false
	sleepSeconds = 5.0
	numDisp      = 1
	syncSeconds  = 40
	brightness   = 20
	onlyAction   = false
	onlyWipe     = false
	onlyTheater  = false
	onlyRainbow  = false
	quietDemo    = false
	turnOff      = false
	forever      = false
	verbose      = false
	timePatterns = false
	configPath   = ""
	statusAddr   = ""
)

func init() {
	pflag.IntVarP(&numUnits, "men", "m", numUnits, "number of snowmen on the chain")
	pflag.BoolVarP(&usePIR, "pir", "p", usePIR, "use the PIR motion sensor")
	pflag.BoolVarP(&useFeed, "cheerlights", "e", useFeed, "follow the Cheerlights color over MQTT")
	pflag.Float64VarP(&sleepSeconds, "sleep", "s", sleepSeconds, "seconds between displays")
	pflag.IntVarP(&numDisp, "numdisp", "n", numDisp, "number of displays per sleep without a PIR")
	pflag.IntVarP(&syncSeconds, "lcount", "l", syncSeconds, "approximate seconds between all-snowmen displays")
	pflag.IntVarP(&brightness, "brightness", "b", brightness, "brightness, 0-255")
	pflag.BoolVarP(&onlyAction, "action", "a", onlyAction, "only run action patterns")
	pflag.BoolVarP(&onlyWipe, "wipe", "w", onlyWipe, "only run wipe patterns")
	pflag.BoolVarP(&onlyTheater, "theater", "t", onlyTheater, "only run theater chase patterns")
	pflag.BoolVarP(&onlyRainbow, "rainbow", "r", onlyRainbow, "only run rainbow patterns")
	pflag.BoolVarP(&quietDemo, "quietdemo", "q", quietDemo, "skip the startup demo")
	pflag.BoolVar(&turnOff, "off", turnOff, "turn the lights off and exit")
	pflag.BoolVar(&forever, "forever", forever, "ignore the display windows, always display")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose logging")
	pflag.BoolVar(&timePatterns, "time", timePatterns, "time each pattern and exit")
	pflag.StringVarP(&configPath, "config", "c", configPath, "YAML config file")
	pflag.StringVar(&statusAddr, "status-addr", statusAddr, "HTTP address to serve the status on, disabled if empty")
}

func main() {
	log.SetFlags(0)
	pflag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logHandler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05 PM", // extended time.Kitchen
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})

	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	if numUnits < 1 {
		return fmt.Errorf("--men must be at least 1, got %d", numUnits)
	}
	if syncSeconds < 1 {
		return fmt.Errorf("--lcount must be at least 1, got %d", syncSeconds)
	}
	if brightness < 0 || brightness > 255 {
		return fmt.Errorf("--brightness must be between 0 and 255, got %d", brightness)
	}

	cfg := snowman.DefaultConfig()
	if configPath != "" {
		c, err := snowman.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config %q: %w", configPath, err)
		}
		cfg = c
	}

	window := cfg.Windows
	if forever {
		window = snowman.AlwaysOn
	}

	strip, err := openStrip(stripConfig{
		NumPixels:  numUnits * snowman.LEDsPerUnit,
		Brightness: uint8(brightness),
		Hardware:   cfg.Strip,
		Logger:     logger.With("component", "strip"),
	})
	if err != nil {
		return fmt.Errorf("failed to open LED strip: %w", err)
	}
	defer strip.Close()

	ambient := snowman.NewAmbientColor(snowman.DefaultAmbientColor)

	var sensor snowman.Sensor
	if usePIR && !turnOff {
		pir, err := openPIR(ctx, cfg.PIR.Pin, logger.With("component", "pir"))
		if err != nil {
			return fmt.Errorf("failed to set up PIR: %w", err)
		}
		sensor = pir
	}

	show, err := snowman.NewShow(snowman.ShowOpts{
		Strip:        strip,
		Units:        numUnits,
		Window:       window,
		Sensor:       sensor,
		Colors:       ambient,
		Categories:   enabledCategories(),
		Sleep:        time.Duration(sleepSeconds * float64(time.Second)),
		NumDisp:      numDisp,
		SyncInterval: time.Duration(syncSeconds) * time.Second,
		Quiet:        quietDemo,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create show: %w", err)
	}

	if turnOff {
		return errors.Join(show.Off(), strip.flush())
	}

	if timePatterns {
		return timeShow(ctx, show, strip)
	}

	errg, ctx := errgroup.WithContext(ctx)

	if useFeed {
		clientID, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate MQTT client ID: %w", err)
		}

		feed := snowman.NewColorFeed(snowman.ColorFeedOpts{
			Broker:         cfg.Cheerlights.Broker,
			Topic:          cfg.Cheerlights.Topic,
			QoS:            cfg.Cheerlights.QoS,
			ClientID:       "snowmand-" + clientID.String(),
			ConnectTimeout: cfg.Cheerlights.ConnectTimeout(),
			Color:          ambient,
			Logger:         logger.With("component", "cheerlights"),
		})
		if err := feed.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to Cheerlights: %w", err)
		}

		errg.Go(func() error {
			return feed.Run(ctx)
		})
	}

	errg.Go(func() error {
		strip.start(ctx)
		return nil
	})

	if statusAddr != "" {
		errg.Go(func() error {
			return serveStatus(ctx, statusAddr, show, logger.With("component", "status"))
		})
	}

	errg.Go(func() error {
		// The show ending on its own (every unit gone) takes the rest of the
		// daemon down with it.
		err := show.Run(ctx)
		if err == nil {
			err = errShowOver
		}
		return err
	})

	err = errg.Wait()
	if flushErr := strip.flush(); flushErr != nil {
		logger.Warn(
			"failed to flush LED strip on exit",
			"error", flushErr)
	}

	if errors.Is(err, errShowOver) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

var errShowOver = errors.New("show is over")

func enabledCategories() snowman.Category {
	var categories snowman.Category
	if onlyAction {
		categories |= snowman.CategoryAction
	}
	if onlyWipe {
		categories |= snowman.CategoryWipe
	}
	if onlyTheater {
		categories |= snowman.CategoryTheater
	}
	if onlyRainbow {
		categories |= snowman.CategoryRainbow
	}
	if categories == 0 {
		categories = snowman.AllCategories
	}
	return categories
}
