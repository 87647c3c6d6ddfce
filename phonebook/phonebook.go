// Package phonebook implements the process-wide registry of singleton
// services that plugins use to bootstrap: Switchboard is itself
// registered as a phonebook service, and plugins look it up by type the
// same way they'd look up any other capability (a record logger, a
// clock, a config source).
//
// Service kinds are identified by an abstract type identity — the
// interface or concrete type T passed to Register/Lookup — rather than
// by a string name, mirroring the original's typeid-keyed lookup.
package phonebook

import (
	"errors"
	"reflect"
	"sync"
)

var (
	// ErrAlreadyRegistered is returned by Register when a service kind
	// is already bound.
	ErrAlreadyRegistered = errors.New("phonebook: service already registered")
	// ErrNotRegistered is returned by Lookup for an unregistered
	// service kind. Fatal in the bootstrap sense: a plugin that can't
	// find a dependency it needs should treat this as unrecoverable.
	ErrNotRegistered = errors.New("phonebook: service not registered")
	// ErrRegistrationClosed is returned by Register once Start has
	// been called.
	ErrRegistrationClosed = errors.New("phonebook: registration closed after start")
)

// Phonebook is a registry of singletons keyed by service kind. It is
// not safe for concurrent registration, but once the registration phase
// is over (see Start), concurrent lookups are safe.
type Phonebook struct {
	mu       sync.RWMutex
	services map[reflect.Type]any
	started  bool
}

// New constructs an empty Phonebook.
func New() *Phonebook {
	return &Phonebook{services: make(map[reflect.Type]any)}
}

// Register binds impl as the implementation of service kind T. It
// fails with ErrAlreadyRegistered if any implementation is already
// bound, and with ErrRegistrationClosed if Start has already
// been called — this package simply forbids registration after start,
// the simplest policy the spec allows.
func Register[T any](pb *Phonebook, impl T) error {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	if pb.started {
		return ErrRegistrationClosed
	}

	kind := reflect.TypeOf((*T)(nil)).Elem()
	if _, exists := pb.services[kind]; exists {
		return ErrAlreadyRegistered
	}
	pb.services[kind] = impl
	return nil
}

// Lookup returns the implementation registered for service kind T, or
// ErrNotRegistered if none was.
func Lookup[T any](pb *Phonebook) (T, error) {
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	kind := reflect.TypeOf((*T)(nil)).Elem()
	v, ok := pb.services[kind]
	if !ok {
		var zero T
		return zero, ErrNotRegistered
	}
	return v.(T), nil
}

// Start closes the registration phase. After Start, Register returns
// ErrRegistrationClosed; Lookup remains safe for concurrent use for
// the lifetime of the process.
func (pb *Phonebook) Start() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.started = true
}
