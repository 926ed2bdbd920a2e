// Package leaktest detects goroutines left running by concurrent tests.
package leaktest

import (
	"runtime"
	"testing"
	"time"
)

// DefaultTimeout is how long Check waits for goroutines to wind down.
const DefaultTimeout = time.Second

// GoroutineChecker records the goroutine count at creation and later verifies that
// it has returned to that baseline.
type GoroutineChecker struct {
	before int
	t      testing.TB
}

// NewGoroutineChecker creates a new checker and records the current goroutine count
func NewGoroutineChecker(t testing.TB) *GoroutineChecker {
	t.Helper()
	runtime.Gosched()
	return &GoroutineChecker{before: runtime.NumGoroutine(), t: t}
}

// Check polls until at most tolerance goroutines above the baseline remain, failing
// the test after timeout.
func (g *GoroutineChecker) Check(tolerance int, timeout time.Duration) {
	g.t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		runtime.Gosched()
		after := runtime.NumGoroutine()
		if after-g.before <= tolerance {
			return
		}
		if time.Now().After(deadline) {
			g.t.Errorf("Potential goroutine leak: before=%d, after=%d, leaked=%d (tolerance=%d)",
				g.before, after, after-g.before, tolerance)
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Verify records the baseline and registers a cleanup that checks it with no tolerance.
func Verify(t testing.TB) {
	t.Helper()
	g := NewGoroutineChecker(t)
	t.Cleanup(func() { g.Check(0, DefaultTimeout) })
}
