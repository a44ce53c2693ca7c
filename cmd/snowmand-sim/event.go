package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ViewerEvent is an SSE event sent to a viewer.
type ViewerEvent interface {
	Type() ViewerEventType
}

// ViewerEventType is a type of event sent to a viewer.
type ViewerEventType string

const (
	ViewerEventTypeInit  ViewerEventType = "init"
	ViewerEventTypeFrame ViewerEventType = "frame"
)

// ViewerInit is the first event sent to a viewer. It describes the chain of
// snowmen to draw.
type ViewerInit struct {
	ViewerID    string `json:"viewer_id"`
	Units       int    `json:"units"`
	LEDsPerUnit int    `json:"leds_per_unit"`
}

func (ViewerInit) Type() ViewerEventType {
	return ViewerEventTypeInit
}

// ViewerFrame is a flushed frame of the whole strip.
// Colors are "#rrggbb" strings.
type ViewerFrame struct {
	LEDColors []string `json:"led_colors"`
}

func (ViewerFrame) Type() ViewerEventType {
	return ViewerEventTypeFrame
}

type sseEvent struct {
	Type string
	Data any
}

type writeFlusher interface {
	io.Writer
	http.Flusher
}

func writeSSE(w writeFlusher, ev sseEvent) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, ev.Data)
	w.Flush()
}

func viewerEventToSSE(event ViewerEvent) sseEvent {
	b, err := json.Marshal(event)
	if err != nil {
		panic(err)
	}
	return sseEvent{
		Type: string(event.Type()),
		Data: b,
	}
}
