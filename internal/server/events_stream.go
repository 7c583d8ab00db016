package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/tailrisk/internal/events"
)

// EventsStreamHandler handles Server-Sent Events (SSE) streaming of
// estimation and sweep progress.
type EventsStreamHandler struct {
	broadcaster *events.Broadcaster
	log         zerolog.Logger
}

// NewEventsStreamHandler creates a new SSE stream handler.
func NewEventsStreamHandler(broadcaster *events.Broadcaster, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		broadcaster: broadcaster,
		log:         log.With().Str("handler", "events_stream").Logger(),
	}
}

// ServeHTTP handles GET /api/events/stream requests (SSE).
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.broadcaster == nil {
		http.Error(w, "Event stream not available", http.StatusServiceUnavailable)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Get flusher for streaming
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// Optional run ID filter - if empty, the client receives all events
	runID := r.URL.Query().Get("run_id")

	h.log.Info().
		Str("run_id", runID).
		Msg("Client connected to event stream")

	eventChan := h.broadcaster.Subscribe(runID)
	defer h.broadcaster.Unsubscribe(eventChan)

	// Detect client disconnect
	done := r.Context().Done()

	// Send initial connection message
	fmt.Fprintf(w, "event: connected\n")
	fmt.Fprintf(w, "data: {\"message\": \"Connected to estimation event stream\"}\n\n")
	flusher.Flush()

	// Heartbeat ticker to keep connection alive
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-done:
			h.log.Info().
				Str("run_id", runID).
				Msg("Client disconnected from event stream")
			return

		case event := <-eventChan:
			eventData, err := json.Marshal(event)
			if err != nil {
				h.log.Error().Err(err).Msg("Failed to marshal event")
				continue
			}

			fmt.Fprintf(w, "event: %s\n", event.Type)
			fmt.Fprintf(w, "data: %s\n\n", string(eventData))
			flusher.Flush()

		case <-heartbeat.C:
			fmt.Fprintf(w, "event: heartbeat\n")
			fmt.Fprintf(w, "data: {\"timestamp\": \"%s\"}\n\n", time.Now().Format(time.RFC3339))
			flusher.Flush()
		}
	}
}
