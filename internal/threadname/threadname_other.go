//go:build !linux

package threadname

// Set is a no-op on platforms without PR_SET_NAME; naming the OS
// thread is a profiling aid, not a correctness requirement.
func Set(name string) {}
