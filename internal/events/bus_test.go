package events

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterDeliversToMatchingSubscribers(t *testing.T) {
	b := NewBroadcaster(zerolog.Nop())

	all := b.Subscribe("")
	runA := b.Subscribe("run-a")
	runB := b.Subscribe("run-b")
	defer b.Unsubscribe(all)
	defer b.Unsubscribe(runA)
	defer b.Unsubscribe(runB)

	b.Publish(Event{Type: TypeSweepPointDone, RunID: "run-a"})

	select {
	case ev := <-all:
		assert.Equal(t, TypeSweepPointDone, ev.Type)
		assert.False(t, ev.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("unfiltered subscriber did not receive event")
	}

	select {
	case ev := <-runA:
		assert.Equal(t, "run-a", ev.RunID)
	case <-time.After(time.Second):
		t.Fatal("matching subscriber did not receive event")
	}

	select {
	case ev := <-runB:
		t.Fatalf("subscriber for run-b received %q", ev.Type)
	default:
	}
}

func TestBroadcasterDropsOnFullBuffer(t *testing.T) {
	b := NewBroadcaster(zerolog.Nop())

	ch := b.Subscribe("")
	defer b.Unsubscribe(ch)

	// Overfill the subscriber buffer; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(Event{Type: TypeEstimateStarted})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	assert.Equal(t, 16, len(ch))
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster(zerolog.Nop())

	ch := b.Subscribe("run-x")
	b.Unsubscribe(ch)

	_, open := <-ch
	require.False(t, open)

	// Double unsubscribe is a no-op, not a panic.
	b.Unsubscribe(ch)
}
