package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"

	snowman "github.com/simon3270/pi-snowman-rgb"
)

var (
	timeColor = color.New(color.FgCyan, color.Bold)
	nameColor = color.New(color.FgWhite)
)

// timeShow runs every pattern once on the first snowman and prints how long
// each one took.
func timeShow(ctx context.Context, show *snowman.Show, strip *ledStrip) error {
	ctx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		strip.start(ctx)
	}()

	var total time.Duration
	err := show.Time(ctx, func(name string, took time.Duration) {
		total += took
		fmt.Fprintf(os.Stdout, "%s %s\n",
			timeColor.Sprintf("%5.2f", took.Seconds()),
			nameColor.Sprint(name))
	})

	cancel()
	wg.Wait()

	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s %s\n",
		timeColor.Sprintf("%5.2f", total.Seconds()),
		nameColor.Sprint("total"))

	return strip.flush()
}
