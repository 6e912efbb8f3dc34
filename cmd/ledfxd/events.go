package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"dev.acmcsuf.com/ledfx"
	"gopkg.in/typ.v4/sync2"
)

// Event describes an SSE event sent to watchers of the LEDs.
type Event interface {
	Type() EventType
}

// EventType is the type of an SSE event.
type EventType string

const (
	EventTypeInit  EventType = "init"
	EventTypeFrame EventType = "frame"
	EventTypeState EventType = "state"
)

// InitEvent is the first event sent to a watcher.
type InitEvent struct {
	Pixels int         `json:"pixels"`
	State  ledfx.State `json:"state"`
}

func (InitEvent) Type() EventType {
	return EventTypeInit
}

// FrameEvent contains the colors of a flushed frame.
type FrameEvent struct {
	LEDColors []ledfx.Color `json:"led_colors"`
}

func (FrameEvent) Type() EventType {
	return EventTypeFrame
}

// StateEvent is sent when the effect state changes.
type StateEvent struct {
	ledfx.State
}

func (StateEvent) Type() EventType {
	return EventTypeState
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

func eventToSSE(event Event) sseEvent {
	b, err := json.Marshal(event)
	if err != nil {
		panic(err)
	}
	return sseEvent{
		Type: string(event.Type()),
		Data: b,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// eventsHandler streams frames and state changes as server-sent events.
type eventsHandler struct {
	controller ledfx.Controller
	frames     *ledfx.Mirror
	logger     *slog.Logger

	watchers sync2.Map[chan ledfx.State, struct{}]
}

func newEventsHandler(controller ledfx.Controller, frames *ledfx.Mirror, logger *slog.Logger) *eventsHandler {
	return &eventsHandler{
		controller: controller,
		frames:     frames,
		logger:     logger,
	}
}

// broadcast queues state for every watcher without blocking.
func (h *eventsHandler) broadcast(state ledfx.State) {
	h.watchers.Range(func(ch chan ledfx.State, _ struct{}) bool {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- state:
		default:
		}
		return true
	})
}

func (h *eventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wflush, ok := w.(writeFlusher)
	if !ok {
		http.Error(w, "server does not support flushing", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()

	states := make(chan ledfx.State, 1)
	h.watchers.Store(states, struct{}{})
	defer h.watchers.Delete(states)

	frames := h.frames.Subscribe(ctx)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writeSSE(wflush, eventToSSE(InitEvent{
		Pixels: h.frames.Len(),
		State:  h.controller.State(),
	}))

	h.logger.Debug("watcher connected")

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("watcher disconnected")
			return
		case frame := <-frames.Frames():
			writeSSE(wflush, eventToSSE(FrameEvent{LEDColors: frame}))
		case state := <-states:
			writeSSE(wflush, eventToSSE(StateEvent{state}))
		}
	}
}
