package switchboard

import "errors"

// Sentinel errors returned by the public API. Operational conditions
// (no event yet) are returned normally; invariant violations that
// indicate a programming error in a plugin additionally go through
// checkType or assertInvariant, which panic unless built with the
// switchboard_release tag.
// A full subscription queue is operational under OverflowDropOldest
// and OverflowBlockPublisher (handled silently by the policy) but an
// invariant violation under OverflowAssert, which panics with
// ErrQueueFull instead.
var (
	// ErrNoEvent is returned by Reader.GetRO when the topic has never
	// been published to.
	ErrNoEvent = errors.New("switchboard: no event published yet")

	// ErrTypeMismatch is panicked in debug builds, and returned in
	// release builds, when a reader, writer, or schedule call disagrees
	// with a topic's already-registered event type.
	ErrTypeMismatch = errors.New("switchboard: topic type mismatch")

	// ErrWorkerNotRunning signals an enqueue attempted on a subscription
	// whose worker is not in the running state. This is an internal
	// invariant violation, never a normal operational condition.
	ErrWorkerNotRunning = errors.New("switchboard: subscription worker not running")

	// ErrDrainFailure signals that a subscription's stop-time drain
	// found fewer (or more) items than enqueued minus dequeued, which
	// means bookkeeping lost track of an event. Internal ordering bug.
	ErrDrainFailure = errors.New("switchboard: subscription drain accounting mismatch")

	// ErrQueueFull signals a subscription's queue was at capacity on
	// enqueue under the OverflowAssert policy. Unlike ErrWorkerNotRunning,
	// the worker is running fine — it just isn't draining fast enough for
	// a policy that refuses to drop events or block the publisher.
	ErrQueueFull = errors.New("switchboard: subscription queue full")

	// ErrNilEvent is returned by Writer.Put when given a nil pointer.
	ErrNilEvent = errors.New("switchboard: cannot publish a nil event")
)
