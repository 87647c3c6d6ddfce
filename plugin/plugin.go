// Package plugin defines the minimal contract a Switchboard plugin
// satisfies: a name, a constructor taking a phonebook handle, a start
// hook, and a stop hook. This is the Go analogue of ILLIXR's
// common/plugin.hpp plugin base class and its PLUGIN_MAIN factory
// macro, without the dynamic-loading half — a Go program wires plugins
// together at compile time by importing their packages and calling
// their Factory, rather than loading a shared object at runtime.
package plugin

import (
	"context"

	"github.com/illixr/switchboard/phonebook"
)

// Plugin is what the runtime expects from every unit it manages:
// register with the phonebook, look up Switchboard, acquire readers,
// writers, or schedules, then run until Stop.
type Plugin interface {
	// Name identifies the plugin, used in logging and instrumentation.
	Name() string
	// Start begins the plugin's work. It should return promptly;
	// long-running work belongs on goroutines the plugin manages
	// itself (commonly backed by switchboard.Schedule callbacks, which
	// already run on dedicated workers).
	Start(ctx context.Context) error
	// Stop releases the plugin's resources. Switchboard.Stop does not
	// call this automatically — the runtime that owns the plugin's
	// lifecycle is expected to call it, typically after stopping the
	// Switchboard so no callback can race a plugin's teardown.
	Stop() error
}

// Factory constructs a Plugin given a populated Phonebook, the
// signature every plugin package exposes as its entry point — the Go
// equivalent of the symbol PLUGIN_MAIN publishes for an external
// loader to instantiate.
type Factory func(pb *phonebook.Phonebook) (Plugin, error)
