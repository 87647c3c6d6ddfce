//go:build !switchboard_release

package switchboard

import (
	"fmt"
	"reflect"
)

// debugBuild reports whether the current build enforces invariant
// checks. It exists so tests can assert on the active policy without
// depending on build tags directly.
const debugBuild = true

// checkType enforces that got matches want for the named topic. In a
// debug build this is a fatal assertion, matching "fatal in debug
// builds" for TypeMismatch. Release builds (switchboard_release) elide
// this check entirely; see invariant_release.go.
func checkType(got, want reflect.Type, topicName string) {
	if got != want {
		panic(fmt.Errorf("%w: topic %q was registered with %v, got %v", ErrTypeMismatch, topicName, want, got))
	}
}

// assertInvariant panics with err if ok is false. Used for internal
// conditions (WorkerNotRunning, DrainFailure) that can only be reached
// by a bug in this package or a caller ignoring the contract.
func assertInvariant(ok bool, err error) {
	if !ok {
		panic(err)
	}
}
