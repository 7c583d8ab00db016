// Package events provides a small in-process broadcaster for estimation
// progress. Services publish typed events; the SSE endpoint and tests
// subscribe, optionally filtered by run ID.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event types published by the estimation services.
const (
	TypeEstimateStarted  = "estimate_started"
	TypeSearchConverged  = "search_converged"
	TypeSweepPointDone   = "sweep_point_done"
	TypeSweepRunFinished = "sweep_run_finished"
)

// Event is a progress notification tied to an estimation or sweep run.
type Event struct {
	Type      string                 `json:"type"`
	RunID     string                 `json:"run_id"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Broadcaster fans events out to subscribers.
type Broadcaster struct {
	subscribers map[chan Event]string // channel -> runID filter ("" = all)
	mu          sync.RWMutex
	log         zerolog.Logger
}

// NewBroadcaster creates an event broadcaster.
func NewBroadcaster(log zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]string),
		log:         log.With().Str("component", "event_broadcaster").Logger(),
	}
}

// Subscribe registers a subscriber. A non-empty runID limits delivery to
// events for that run.
func (b *Broadcaster) Subscribe(runID string) chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 16) // Buffer to prevent blocking publishers
	b.subscribers[ch] = runID

	b.log.Debug().
		Str("run_id", runID).
		Int("total_subscribers", len(b.subscribers)).
		Msg("New subscriber added")

	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[ch]; !ok {
		return
	}
	delete(b.subscribers, ch)
	close(ch)

	b.log.Debug().
		Int("total_subscribers", len(b.subscribers)).
		Msg("Subscriber removed")
}

// Publish delivers an event to every matching subscriber. A subscriber
// whose buffer is full is skipped rather than blocked on.
func (b *Broadcaster) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	event.Timestamp = time.Now()

	for ch, runID := range b.subscribers {
		if event.RunID == "" || runID == "" || runID == event.RunID {
			select {
			case ch <- event:
			default:
				b.log.Warn().
					Str("event_type", event.Type).
					Msg("Subscriber channel full, event dropped")
			}
		}
	}
}
