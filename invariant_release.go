//go:build switchboard_release

package switchboard

import "reflect"

const debugBuild = false

// checkType is a no-op in release builds: the spec allows release
// builds to elide the type-identity check for performance.
func checkType(got, want reflect.Type, topicName string) {}

// assertInvariant is a no-op in release builds.
func assertInvariant(ok bool, err error) {}
