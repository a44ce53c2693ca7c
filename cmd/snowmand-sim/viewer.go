package main

import (
	"log/slog"
	"net/http"
	"sync"

	"dev.acmcsuf.com/christmas/lib/leddraw"
	"github.com/gofrs/uuid/v5"
	"gopkg.in/typ.v4/sync2"

	snowman "github.com/simon3270/pi-snowman-rgb"
)

// viewersHandler streams the frames of a simulated strip to browsers.
type viewersHandler struct {
	units  int
	logger *slog.Logger

	frameMu sync.Mutex
	frame   leddraw.LEDStrip

	viewers sync2.Map[string, *viewerInstance]
}

func newViewersHandler(units int, logger *slog.Logger) *viewersHandler {
	return &viewersHandler{
		units:  units,
		logger: logger,
	}
}

// broadcast records the latest frame and wakes every viewer up. Viewers
// that are behind only ever see the latest frame.
func (h *viewersHandler) broadcast(frame leddraw.LEDStrip) {
	h.frameMu.Lock()
	h.frame = frame
	h.frameMu.Unlock()

	h.viewers.Range(func(_ string, v *viewerInstance) bool {
		v.queueDraw()
		return true
	})
}

func (h *viewersHandler) lastFrame() ViewerFrame {
	h.frameMu.Lock()
	defer h.frameMu.Unlock()

	colors := make([]string, len(h.frame))
	for i, c := range h.frame {
		colors[i] = snowman.Hex(c)
	}
	return ViewerFrame{LEDColors: colors}
}

func (h *viewersHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	wflush, ok := w.(writeFlusher)
	if !ok {
		http.Error(w, "server does not support flushing", http.StatusInternalServerError)
		return
	}

	viewer := &viewerInstance{frame: make(chan struct{}, 1)}
	id := h.addViewer(viewer)
	defer h.viewers.Delete(id)

	h.logger.Info(
		"new viewer connected",
		"viewer", id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writeSSE(wflush, viewerEventToSSE(ViewerInit{
		ViewerID:    id,
		Units:       h.units,
		LEDsPerUnit: snowman.LEDsPerUnit,
	}))

	// Catch up on whatever is currently lit.
	viewer.queueDraw()

frameLoop:
	for {
		select {
		case <-r.Context().Done():
			break frameLoop
		case <-viewer.frame:
			writeSSE(wflush, viewerEventToSSE(h.lastFrame()))
		}
	}

	h.logger.Info(
		"viewer has disconnected",
		"viewer", id)
}

func (h *viewersHandler) addViewer(v *viewerInstance) string {
	for {
		uuid, err := uuid.NewV7()
		if err != nil {
			panic(err)
		}

		id := uuid.String()
		if _, collided := h.viewers.LoadOrStore(id, v); !collided {
			return id
		}
	}
}

type viewerInstance struct {
	frame chan struct{}
}

func (v *viewerInstance) queueDraw() {
	select {
	case v.frame <- struct{}{}:
	default:
	}
}
