package clock

import (
	"sync"
	"time"
)

// Clock provides current time abstraction for deterministic tests.
// Params: none.
// Returns: current wall-clock time.
type Clock interface {
	Now() time.Time
}

// RealClock reads current UTC time from system clock.
// Params: none.
// Returns: current UTC timestamp.
type RealClock struct{}

// Now returns current UTC time.
// Params: none.
// Returns: current UTC timestamp.
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// Fake is a settable clock for tests.
// Params: guarded current timestamp.
// Returns: deterministic clock implementation.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake creates a fake clock at the given instant.
// Params: initial timestamp.
// Returns: fake clock.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

// Now returns the current fake timestamp.
// Params: none.
// Returns: stored timestamp.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the fake clock forward.
// Params: duration to add.
// Returns: none.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set replaces the fake clock timestamp.
// Params: new timestamp.
// Returns: none.
func (f *Fake) Set(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}
