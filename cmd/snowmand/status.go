package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"libdb.so/hrt"
	"libdb.so/hserve"

	snowman "github.com/simon3270/pi-snowman-rgb"
)

type statusHandler struct {
	*chi.Mux
	show *snowman.Show
}

func newStatusHandler(show *snowman.Show, logger *slog.Logger) *statusHandler {
	h := &statusHandler{
		Mux:  chi.NewRouter(),
		show: show,
	}

	h.Use(httplog.RequestLogger(&httplog.Logger{
		Logger: logger,
		Options: httplog.Options{
			LogLevel: slog.LevelDebug,
			Concise:  true,
		},
	}))

	h.Use(hrt.Use(hrt.Opts{
		Encoder: hrt.CombinedEncoder{
			Encoder: hrt.JSONEncoder,
			Decoder: hrt.URLDecoder,
		},
		ErrorWriter: hrt.TextErrorWriter,
	}))

	h.Get("/status", hrt.Wrap(h.getStatus))
	h.Get("/patterns", hrt.Wrap(h.listPatterns))

	return h
}

func (h *statusHandler) getStatus(ctx context.Context, _ hrt.None) (snowman.ShowStatus, error) {
	return h.show.Status(), nil
}

type patternInfo struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

func (h *statusHandler) listPatterns(ctx context.Context, _ hrt.None) ([]patternInfo, error) {
	patterns := make([]patternInfo, len(snowman.Patterns))
	for i, p := range snowman.Patterns {
		patterns[i] = patternInfo{
			Name:     p.Name,
			Category: p.Category.String(),
		}
	}
	return patterns, nil
}

// serveStatus serves the read-only status API on addr until ctx is
// cancelled.
func serveStatus(ctx context.Context, addr string, show *snowman.Show, logger *slog.Logger) error {
	var handler http.Handler = newStatusHandler(show, logger)

	logger.InfoContext(ctx,
		"serving status",
		"addr", addr)

	return hserve.ListenAndServe(ctx, addr, handler)
}
