package switchboard

import "sync/atomic"

// Managed is implemented by event payloads that own an external
// resource (a file handle, a pooled buffer, a native pointer) and need
// their lifecycle tracked explicitly alongside Go's garbage collector.
// Ref is called whenever an additional observer acquires a reference
// (not for the publishing reference the event starts with); Release is
// called once, when the last observer is done with it. Most event types hold plain
// data and don't need to implement this — the bus's bookkeeping is then
// purely for the leak-detection property in the test suite, and the
// payload is reclaimed by the garbage collector in the ordinary way.
//
// Adapted from the ManagedItem[T] interface this package's teacher
// exercises in its reference-counting tests (Ref/Cleanup), collapsed to
// a non-generic pair since the bus stores payloads type-erased.
type Managed interface {
	Ref()
	Release()
}

// eventRef is the type-erased, reference-counted handle the bus uses
// internally for a single published value. One eventRef is created per
// Writer.Put; it is shared between the topic's latest-value ring slot,
// every subscription queue entry, and every outstanding reader handle.
// It is destroyed (in the Managed-payload sense) when the last of those
// releases it.
type eventRef struct {
	payload  any
	serialNo uint64
	refcount atomic.Int32
}

func newEventRef(payload any, serialNo uint64) *eventRef {
	er := &eventRef{payload: payload, serialNo: serialNo}
	er.refcount.Store(1)
	return er
}

// acquire records a new observer of er and returns er, to be chained at
// call sites: sub.enqueue(er.acquire()).
func (er *eventRef) acquire() *eventRef {
	er.refcount.Add(1)
	if m, ok := er.payload.(Managed); ok {
		m.Ref()
	}
	return er
}

// release records that an observer is done with er. When the last
// reference drops, the Managed payload (if any) is told to release its
// resource.
func (er *eventRef) release() {
	if er.refcount.Add(-1) == 0 {
		if m, ok := er.payload.(Managed); ok {
			m.Release()
		}
	}
}

// EventHandle is the reader-facing owning reference returned by
// Reader.GetRO and Reader.GetRONullable. Callers that need the explicit
// Managed lifecycle (resource-backed event types) should call Release
// once they're done; for plain-data event types Release is a harmless
// no-op and can be skipped.
type EventHandle[T any] struct {
	ref *eventRef
	val *T
}

// Value returns the underlying event. The returned pointer is shared
// with the topic's latest-value ring and must not be mutated; use
// Reader.GetRW for a private mutable copy.
func (h *EventHandle[T]) Value() *T {
	if h == nil {
		return nil
	}
	return h.val
}

// Release drops this handle's reference to the underlying event.
func (h *EventHandle[T]) Release() {
	if h == nil || h.ref == nil {
		return
	}
	h.ref.release()
	h.ref = nil
}
