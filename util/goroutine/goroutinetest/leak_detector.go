// Package goroutinetest provides goroutine leak checks for tests.
package goroutinetest

import (
	"runtime"
	"strings"
	"testing"
	"time"
)

// LumberjackMill is the goroutine lumberjack starts on first write to a
// rotating file. It lives until the process exits.
const LumberjackMill = ".(*Logger).millRun"

// AssertNoLeaks registers a cleanup that fails the test if the goroutine
// count has not returned to its starting value within five seconds.
// Goroutines whose stack mentions any of ignore are not counted. Call it
// first in tests that start servers or background connects.
func AssertNoLeaks(t testing.TB, ignore ...string) {
	t.Helper()
	AssertNoLeaksWithTimeout(t, 5*time.Second, 100*time.Millisecond, ignore...)
}

// AssertNoLeaksWithTimeout is AssertNoLeaks with a custom deadline and poll interval
func AssertNoLeaksWithTimeout(t testing.TB, timeout, pollInterval time.Duration, ignore ...string) {
	t.Helper()
	before := CountGoroutines(ignore...)

	t.Cleanup(func() {
		if WaitForGoroutineCount(before, timeout, pollInterval, ignore...) {
			return
		}

		current := CountGoroutines(ignore...)
		t.Errorf("goroutine leak detected: started with %d goroutines, ended with %d (leaked %d)",
			before, current, current-before)
		t.Logf("Active goroutines:\n%s", allStacks())
	})
}

// WaitForGoroutineCount polls until at most target goroutines are running.
// It reports false if the deadline passes first.
func WaitForGoroutineCount(target int, timeout, pollInterval time.Duration, ignore ...string) bool {
	deadline := time.Now().Add(timeout)
	for {
		if CountGoroutines(ignore...) <= target {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(pollInterval)
	}
}

// CountGoroutines returns the number of live goroutines, skipping those whose
// stack contains any of ignore.
func CountGoroutines(ignore ...string) int {
	if len(ignore) == 0 {
		return runtime.NumGoroutine()
	}

	return countStacks(allStacks(), ignore)
}

// countStacks counts the goroutine blocks of a runtime.Stack dump
func countStacks(dump string, ignore []string) int {
	count := 0
	for _, stack := range strings.Split(dump, "\n\n") {
		if strings.TrimSpace(stack) == "" || containsAny(stack, ignore) {
			continue
		}
		count++
	}
	return count
}

func allStacks() string {
	buf := make([]byte, 1<<16)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return string(buf[:n])
		}
		buf = make([]byte, 2*len(buf))
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
