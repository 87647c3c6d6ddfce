package switchboard

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/illixr/switchboard/internal/logging"
	"github.com/illixr/switchboard/metrics"
)

func blockingSubscription(cfg SubscriptionConfig, release <-chan struct{}, delivered *atomic.Int64) *subscription {
	return newSubscription("acct", "topic", cfg, func(payload any, iteration uint64) {
		<-release
		delivered.Add(1)
	}, logging.NopLogger{}, metrics.NopHooks{})
}

// OverflowDropOldest: once the queue is full, enqueueing a new event
// drops the oldest queued one rather than blocking the caller.
func TestSubscriptionDropOldestNeverBlocksEnqueue(t *testing.T) {
	release := make(chan struct{})
	var delivered atomic.Int64

	cfg := SubscriptionConfig{Capacity: 2, Overflow: OverflowDropOldest}
	s := blockingSubscription(cfg, release, &delivered)
	// Unblock the callback before stopping, or stop would wait forever
	// on a worker stuck inside it.
	defer func() {
		close(release)
		s.stop()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			v := i
			s.enqueue(newEventRef(&v, uint64(i+1)))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked under OverflowDropOldest")
	}
}

// OverflowBlockPublisher: enqueue blocks the caller until the worker
// makes room, trading the no-block guarantee for bounded memory.
func TestSubscriptionBlockPublisherBlocksWhenFull(t *testing.T) {
	var processed atomic.Int64
	s := newSubscription("acct", "topic", SubscriptionConfig{Capacity: 1, Overflow: OverflowBlockPublisher},
		func(payload any, iteration uint64) {
			processed.Add(1)
			time.Sleep(20 * time.Millisecond)
		}, logging.NopLogger{}, metrics.NopHooks{})
	defer s.stop()

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 5; i++ {
		v := i
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			s.enqueue(newEventRef(&v, 1))
		}(v)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// Five enqueues into a capacity-1 queue with a 20ms-per-item
	// consumer must take measurably longer than an instantaneous,
	// non-blocking enqueue would.
	require.Greater(t, elapsed, 20*time.Millisecond)
}

// Drain-on-stop: events still queued when stop() runs are released
// without being handed to the callback. This test checks the accounting
// invariant (processed+unprocessed == enqueued), enforced internally by
// assertInvariant, which panics in this (debug) build if violated.
func TestSubscriptionStopDrainsWithoutInvokingCallback(t *testing.T) {
	var delivered atomic.Int64
	s := newSubscription("acct", "topic", SubscriptionConfig{Capacity: 16, Overflow: OverflowDropOldest},
		func(payload any, iteration uint64) {
			delivered.Add(1)
		}, logging.NopLogger{}, metrics.NopHooks{})

	// Flood the queue before the worker can drain it, by stopping it
	// immediately after.
	for i := 0; i < 10; i++ {
		v := i
		s.enqueue(newEventRef(&v, uint64(i+1)))
	}

	require.NotPanics(t, func() {
		s.stop()
	})
}

func TestSubscriptionStopIsIdempotent(t *testing.T) {
	s := newSubscription("acct", "topic", DefaultSubscriptionConfig,
		func(payload any, iteration uint64) {}, logging.NopLogger{}, metrics.NopHooks{})
	s.stop()
	s.stop()
}

func TestSubscriptionThreadNameTruncatesToFifteenChars(t *testing.T) {
	name := subscriptionThreadName("rendering_engine", "scene_graph_updates")
	require.LessOrEqual(t, len(name), 15)
	require.Equal(t, byte('s'), name[0])
}
