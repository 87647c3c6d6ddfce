// Package switchboard implements ILLIXR's in-process event bus: typed,
// named, multi-producer/multi-consumer topics with two consumption
// disciplines — latest-value polling via Reader, and per-event callback
// scheduling via Schedule — plus the worker-thread lifecycle backing
// scheduled callbacks and the topic registry plugins go through to
// reach either one.
//
// A Switchboard has no wire protocol and no persisted state; every
// participant lives in the same address space and trusts the others.
// Register it with a phonebook.Phonebook so plugins can find it:
//
//	pb := phonebook.New()
//	sb := switchboard.New()
//	phonebook.Register[*switchboard.Switchboard](pb, sb)
//	pb.Start()
//
//	// elsewhere, after looking sb up from pb:
//	writer, _ := switchboard.GetWriter[ImuSample](sb, "imu")
//	writer.Put(writer.New(ImuSample{...}))
//
//	reader, _ := switchboard.GetReader[ImuSample](sb, "imu")
//	latest, ok := reader.GetRONullable()
//
//	switchboard.Schedule(sb, "imu_integrator", "imu", func(ev *ImuSample, iteration uint64) {
//	        // runs on a dedicated worker, not the publisher's goroutine
//	})
package switchboard

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/illixr/switchboard/internal/logging"
	"github.com/illixr/switchboard/metrics"
)

// Switchboard is the registry of topics: a name-keyed map guarded by a
// readers/writers lock, where insertions (topic creation) are rare and
// lookups dominate.
type Switchboard struct {
	mu     sync.RWMutex
	topics map[string]*topic

	logger logging.Logger
	hooks  metrics.Hooks

	stopped atomic.Bool
}

// Option configures a Switchboard at construction.
type Option func(*Switchboard)

// WithLogger overrides the default no-op logger.
func WithLogger(l logging.Logger) Option {
	return func(sb *Switchboard) { sb.logger = l }
}

// WithHooks attaches an instrumentation collector. Without this option
// the bus's put/get/callback hooks are no-ops.
func WithHooks(h metrics.Hooks) Option {
	return func(sb *Switchboard) { sb.hooks = h }
}

// New constructs an empty Switchboard.
func New(opts ...Option) *Switchboard {
	sb := &Switchboard{
		topics: make(map[string]*topic),
		logger: logging.NopLogger{},
		hooks:  metrics.NopHooks{},
	}
	for _, opt := range opts {
		opt(sb)
	}
	return sb
}

// eventTypeOf returns the dynamic type tag an event of type T is
// stored and compared under: a pointer to T, since every event the bus
// holds is a *T (Writer.New/Allocate hand out pointers, and Put takes
// one).
func eventTypeOf[T any]() reflect.Type {
	var zero T
	return reflect.TypeOf(&zero)
}

// anonymousAccount mints a process-unique account name for a Schedule
// call that didn't supply one. Collisions would otherwise make two
// unrelated anonymous subscribers indistinguishable in logs and
// metrics, the same problem the teacher's GetUniqueSubscriberID solved
// with a counter; a UUID avoids needing a shared counter at all.
func anonymousAccount() string {
	return "anon-" + uuid.NewString()
}

// tryRegister is the single entry point used by GetReader, GetWriter,
// and Schedule: it guarantees a topic exists exactly once per name and
// that every participant agrees on its event type.
func (sb *Switchboard) tryRegister(name string, typ reflect.Type) (*topic, error) {
	sb.mu.RLock()
	t, ok := sb.topics[name]
	sb.mu.RUnlock()
	if ok {
		if t.typ != typ {
			checkType(typ, t.typ, name)
			return nil, fmt.Errorf("%w: topic %q", ErrTypeMismatch, name)
		}
		return t, nil
	}

	sb.mu.Lock()
	defer sb.mu.Unlock()
	// Re-check: another goroutine may have created the topic between
	// our shared-lock lookup and taking the exclusive lock.
	if t, ok := sb.topics[name]; ok {
		if t.typ != typ {
			checkType(typ, t.typ, name)
			return nil, fmt.Errorf("%w: topic %q", ErrTypeMismatch, name)
		}
		return t, nil
	}

	t = newTopic(name, typ, sb.logger, sb.hooks)
	sb.topics[name] = t
	return t, nil
}

// RegisterTopic explicitly creates topic name with event type T, if it
// doesn't already exist. Calling this before GetReader/GetWriter is
// optional — both lazily create the topic the first time they're
// called for a name — but it lets a caller pin a topic's type before
// any reader or writer races to do so implicitly.
func RegisterTopic[T any](sb *Switchboard, name string) error {
	_, err := sb.tryRegister(name, eventTypeOf[T]())
	return err
}

// GetReader returns a typed handle for polling the latest event on
// topic name, lazily creating the topic with event type T if it
// doesn't exist yet.
func GetReader[T any](sb *Switchboard, name string) (*Reader[T], error) {
	t, err := sb.tryRegister(name, eventTypeOf[T]())
	if err != nil {
		return nil, err
	}
	return newReader[T](t)
}

// GetWriter returns a typed handle for publishing events to topic
// name, lazily creating the topic with event type T if it doesn't
// exist yet.
func GetWriter[T any](sb *Switchboard, name string) (*Writer[T], error) {
	t, err := sb.tryRegister(name, eventTypeOf[T]())
	if err != nil {
		return nil, err
	}
	return newWriter[T](t)
}

// Put is convenience sugar over GetWriter + Writer.New + Writer.Put,
// for callers that don't want to hold onto a Writer handle between
// publishes.
func Put[T any](sb *Switchboard, name string, payload T) error {
	w, err := GetWriter[T](sb, name)
	if err != nil {
		return err
	}
	return w.Put(w.New(payload))
}

// Schedule attaches cb to topic name, to be invoked at most once per
// published event on a dedicated worker goroutine, in publication order,
// with a strictly increasing per-subscription iteration counter starting
// at 1. Events discarded by the subscription's overflow policy are never
// delivered, so the counter counts delivered events only. account identifies the logical consumer for thread naming and
// instrumentation; pass "" to have one generated, for ad hoc or
// anonymous subscribers that don't care about a stable name across
// runs. cfg optionally overrides DefaultSubscriptionConfig's queue
// depth and overflow policy.
func Schedule[T any](sb *Switchboard, account, name string, cb func(ev *T, iteration uint64), cfg ...SubscriptionConfig) (*Subscription, error) {
	t, err := sb.tryRegister(name, eventTypeOf[T]())
	if err != nil {
		return nil, err
	}

	if account == "" {
		account = anonymousAccount()
	}

	subCfg := DefaultSubscriptionConfig
	if len(cfg) > 0 {
		subCfg = cfg[0]
	}

	s := t.schedule(account, subCfg, func(payload any, iteration uint64) {
		cb(payload.(*T), iteration)
	})
	return &Subscription{inner: s}, nil
}

// Subscription is the caller-facing handle for a scheduled callback. It
// exists mainly so callers have something to reference; subscriptions
// are normally stopped as a unit when their topic or the whole
// Switchboard stops.
type Subscription struct {
	inner *subscription
}

// Account returns the logical consumer name this subscription was
// scheduled under.
func (s *Subscription) Account() string { return s.inner.account }

// Topic returns the name of the topic this subscription is attached
// to.
func (s *Subscription) Topic() string { return s.inner.topicName }

// Stop stops this one subscription early, without affecting its
// topic's other subscriptions. Most callers don't need this —
// Switchboard.Stop and a topic's own lifecycle cover the common case —
// but it's useful for a plugin that wants to unsubscribe mid-run.
func (s *Subscription) Stop() {
	s.inner.stop()
}

// Stop stops every topic: subscriptions drain their queues, release
// their references, and join. After Stop returns, Put still updates
// topics' latest-value rings but delivers no further callbacks; the
// registry itself is not cleared, so outstanding Reader/Writer handles
// remain valid but quiescent. Safe to call more than once.
func (sb *Switchboard) Stop() {
	if !sb.stopped.CompareAndSwap(false, true) {
		return
	}

	sb.mu.RLock()
	topics := make([]*topic, 0, len(sb.topics))
	for _, t := range sb.topics {
		topics = append(topics, t)
	}
	sb.mu.RUnlock()

	var wg sync.WaitGroup
	for _, t := range topics {
		wg.Add(1)
		go func(t *topic) {
			defer wg.Done()
			t.stop()
		}(t)
	}
	wg.Wait()
}
