package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"libdb.so/hserve"

	snowman "github.com/simon3270/pi-snowman-rgb"
)

//go:embed frontend
var frontendFS embed.FS
var frontendFilesFS, _ = fs.Sub(frontendFS, "frontend")

var (
	httpAddr     = ":9001"
	numUnits     = 3
	sleepSeconds = 5.0
	numDisp      = 1
	syncSeconds  = 40
	quietDemo    = false
	forever      = true
	seed         = uint64(0)
	verbose      = false
)

func init() {
	pflag.StringVarP(&httpAddr, "http-addr", "a", httpAddr, "HTTP server address")
	pflag.IntVarP(&numUnits, "men", "m", numUnits, "number of snowmen on the chain")
	pflag.Float64VarP(&sleepSeconds, "sleep", "s", sleepSeconds, "seconds between displays")
	pflag.IntVarP(&numDisp, "numdisp", "n", numDisp, "number of displays per sleep")
	pflag.IntVarP(&syncSeconds, "lcount", "l", syncSeconds, "approximate seconds between all-snowmen displays")
	pflag.BoolVarP(&quietDemo, "quietdemo", "q", quietDemo, "skip the startup demo")
	pflag.BoolVar(&forever, "forever", forever, "ignore the display window, always display")
	pflag.Uint64Var(&seed, "seed", seed, "seed for the pattern choices, random if 0")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose logging")
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

	window := snowman.DefaultWindow
	if forever {
		window = snowman.AlwaysOn
	}

	strip := snowman.NewMemStrip(numUnits * snowman.LEDsPerUnit)

	viewers := newViewersHandler(numUnits, logger.With("component", "viewers"))
	strip.OnFlush(viewers.broadcast)

	show, err := snowman.NewShow(snowman.ShowOpts{
		Strip:        strip,
		Units:        numUnits,
		Window:       window,
		Sleep:        time.Duration(sleepSeconds * float64(time.Second)),
		NumDisp:      numDisp,
		SyncInterval: time.Duration(syncSeconds) * time.Second,
		Quiet:        quietDemo,
		Seed:         seed,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create show: %w", err)
	}

	r := chi.NewRouter()
	r.Get("/events", viewers.handleEvents)
	r.Mount("/", http.FileServer(http.FS(frontendFilesFS)))

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		logger.Info(
			"starting HTTP server",
			"addr", httpAddr)

		return hserve.ListenAndServe(ctx, httpAddr, r)
	})

	errg.Go(func() error {
		return show.Run(ctx)
	})

	if err := errg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
