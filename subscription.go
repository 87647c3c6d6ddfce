package switchboard

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/illixr/switchboard/internal/logging"
	"github.com/illixr/switchboard/internal/managedthread"
	"github.com/illixr/switchboard/internal/threadname"
	"github.com/illixr/switchboard/metrics"
)

// dequeueTimeout bounds how long a subscription worker waits on an
// empty queue before re-checking its stop flag, and therefore bounds
// shutdown latency.
const dequeueTimeout = 100 * time.Millisecond

// defaultQueueCapacity is the nominal, soft queue depth used when a
// caller doesn't override SubscriptionConfig. The original source
// special-cased one high-rate consumer at 50; this package generalizes
// that into configuration instead of hardcoding any plugin's name.
const defaultQueueCapacity = 8

// OverflowPolicy controls what a subscription does when its queue is at
// capacity and a new event arrives.
type OverflowPolicy int

const (
	// OverflowDropOldest discards the oldest queued event to make room
	// for the new one. This is the default: publishers never block.
	OverflowDropOldest OverflowPolicy = iota
	// OverflowBlockPublisher makes the publisher wait for room. Using
	// this defeats the no-publisher-blocking guarantee for the topics
	// it's applied to; it exists because the spec names it as a
	// recognized option, not because it's recommended.
	OverflowBlockPublisher
	// OverflowAssert treats a full queue as an internal invariant
	// violation and panics (fatal in debug builds; see
	// invariant_debug.go).
	OverflowAssert
)

// SubscriptionConfig configures a single subscription's backlog
// handling. A Capacity of zero or less is replaced by the default
// capacity, and the zero Overflow is OverflowDropOldest, so the zero
// value behaves like DefaultSubscriptionConfig.
type SubscriptionConfig struct {
	Capacity int
	Overflow OverflowPolicy
}

// DefaultSubscriptionConfig is used when Schedule is called without an
// explicit SubscriptionConfig.
var DefaultSubscriptionConfig = SubscriptionConfig{
	Capacity: defaultQueueCapacity,
	Overflow: OverflowDropOldest,
}

// subscription is a (account, callback, topic) triple backed by a
// bounded queue and a dedicated worker thread, as described in 4.4.
type subscription struct {
	account   string
	topicName string
	callback  func(payload any, iteration uint64)
	cfg       SubscriptionConfig

	queue chan *eventRef

	enqueued atomic.Uint64
	dequeued uint64

	thread *managedthread.Thread
	logger logging.Logger
	hooks  metrics.Hooks
}

func newSubscription(account, topicName string, cfg SubscriptionConfig, callback func(any, uint64), logger logging.Logger, hooks metrics.Hooks) *subscription {
	if cfg.Capacity <= 0 {
		cfg.Capacity = defaultQueueCapacity
	}
	s := &subscription{
		account:   account,
		topicName: topicName,
		callback:  callback,
		cfg:       cfg,
		queue:     make(chan *eventRef, cfg.Capacity),
		logger:    logger,
		hooks:     hooks,
	}
	s.thread = managedthread.New(s.tick, s.onStart, s.onStop)
	// The worker is started as part of construction, the same way the
	// original C++ topic_subscription constructor launches _m_thread in
	// its initializer list: a subscription never exists in a topic's
	// list without its thread already running.
	s.thread.Start()
	return s
}

// enqueue is called from the publisher's thread (topic.put). It never
// blocks the publisher under the default drop-oldest policy.
func (s *subscription) enqueue(ev *eventRef) {
	if s.thread.State() != managedthread.Running {
		assertInvariant(false, ErrWorkerNotRunning)
		ev.release()
		return
	}

	select {
	case s.queue <- ev:
		s.enqueued.Add(1)
		return
	default:
	}

	switch s.cfg.Overflow {
	case OverflowBlockPublisher:
		s.queue <- ev
		s.enqueued.Add(1)
	case OverflowAssert:
		assertInvariant(false, ErrQueueFull)
		ev.release()
	default: // OverflowDropOldest
		select {
		case old := <-s.queue:
			old.release()
			// The dropped event no longer counts as enqueued, so onStop's
			// enqueued-dequeued drain accounting matches what is queued.
			s.enqueued.Add(^uint64(0))
		default:
		}
		select {
		case s.queue <- ev:
			s.enqueued.Add(1)
		default:
			// Another producer (shouldn't happen; single-writer per
			// topic) raced us for the freed slot. Drop the new event
			// rather than block.
			ev.release()
		}
	}
}

func (s *subscription) onStart() {
	runtime.LockOSThread()
	threadname.Set(subscriptionThreadName(s.account, s.topicName))
}

// tick is the body the managed thread runs in a loop: one
// wait-with-timeout dequeue, matching wait_dequeue_timed(100ms).
func (s *subscription) tick() {
	select {
	case ev, ok := <-s.queue:
		if !ok {
			return
		}
		s.dequeued++
		start := time.Now()
		s.callback(ev.payload, s.dequeued)
		s.hooks.OnCallback(s.account, s.topicName, s.dequeued, time.Since(start))
		ev.release()
	case <-time.After(dequeueTimeout):
	}
}

// onStop runs the drain routine: pop exactly enqueued-dequeued items
// and release their references without invoking the callback, so no
// event outlives the subscription by being stuck in its queue.
func (s *subscription) onStop() {
	var unprocessed uint64
	for {
		select {
		case ev, ok := <-s.queue:
			if !ok {
				goto done
			}
			ev.release()
			unprocessed++
		default:
			goto done
		}
	}
done:
	expected := s.enqueued.Load() - s.dequeued
	assertInvariant(unprocessed == expected, ErrDrainFailure)
	s.hooks.OnTopicStop(s.topicName, s.dequeued, unprocessed)
	s.logger.Debugw("subscription drained", map[string]any{
		"account":     s.account,
		"topic":       s.topicName,
		"processed":   s.dequeued,
		"unprocessed": unprocessed,
	})
}

// stop requests the worker to stop and blocks until it has drained and
// joined.
func (s *subscription) stop() {
	s.thread.Stop()
}

// subscriptionThreadName derives the 15-character-safe OS thread name
// "s" + account + topic[:12] the spec's external-interfaces section
// requires, so profilers can tell workers apart.
func subscriptionThreadName(account, topicName string) string {
	if len(topicName) > 12 {
		topicName = topicName[:12]
	}
	name := "s" + account + topicName
	if len(name) > 15 {
		name = name[:15]
	}
	return name
}
