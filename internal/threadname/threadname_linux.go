//go:build linux

// Package threadname sets the OS-visible name of the calling goroutine's
// thread, so profilers (perf, htop -H) can tell subscription workers
// apart the way the spec's "Thread Names" section requires. The
// goroutine must have called runtime.LockOSThread first, or the name
// will apply to whichever OS thread the scheduler hands the goroutine
// next.
package threadname

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Set applies name (truncated to the kernel's 15-usable-byte limit) to
// the current OS thread via PR_SET_NAME. Errors are not actionable for
// a profiling aid, so they're swallowed.
func Set(name string) {
	if len(name) > 15 {
		name = name[:15]
	}
	b := append([]byte(name), 0)
	_ = unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&b[0])), 0, 0, 0)
}
