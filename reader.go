package switchboard

import "fmt"

// Reader is a typed, zero-copy façade for polling the latest event on a
// topic. A Reader holds only a non-owning back-reference to its topic
// and must not outlive the Switchboard that created it.
type Reader[T any] struct {
	topic *topic
}

// GetRONullable returns the latest published event, or (nil, false) if
// the topic has never been published to. The returned handle shares
// the event with the topic's latest-value ring; call Release when done
// with it if T implements Managed.
func (r *Reader[T]) GetRONullable() (*EventHandle[T], bool) {
	er, ok := r.topic.get()
	if !ok {
		return nil, false
	}
	v, ok := er.payload.(*T)
	if !ok {
		er.release()
		return nil, false
	}
	return &EventHandle[T]{ref: er, val: v}, true
}

// GetRO is GetRONullable but fails with ErrNoEvent instead of
// returning ok=false, for callers that treat an empty topic as an
// error rather than a normal startup condition.
func (r *Reader[T]) GetRO() (*EventHandle[T], error) {
	h, ok := r.GetRONullable()
	if !ok {
		return nil, ErrNoEvent
	}
	return h, nil
}

// Cloner is implemented by event types that need deep-copy semantics
// in GetRW beyond a shallow struct copy — anything holding a pointer,
// slice, or map that must not alias the topic's stored value.
type Cloner[T any] interface {
	Clone() T
}

// GetRW returns an owned, mutable copy of the latest event that has no
// relation to the topic after return. If T implements Cloner[T], Clone
// is used; otherwise a shallow copy of the dereferenced value is
// returned, which is only a true deep copy for event types with no
// pointer/slice/map fields — event types that need more should
// implement Cloner[T].
func (r *Reader[T]) GetRW() (T, error) {
	var zero T
	h, err := r.GetRO()
	if err != nil {
		return zero, err
	}
	defer h.Release()

	if c, ok := any(*h.val).(Cloner[T]); ok {
		return c.Clone(), nil
	}
	return *h.val, nil
}

func newReader[T any](t *topic) (*Reader[T], error) {
	want := t.typ
	got := eventTypeOf[T]()
	if got != want {
		checkType(got, want, t.name)
		return nil, fmt.Errorf("%w: topic %q", ErrTypeMismatch, t.name)
	}
	return &Reader[T]{topic: t}, nil
}
