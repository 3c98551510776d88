package clock

import "time"

// NowFunc returns the current time. Override in tests for determinism.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }

// Stub replaces the clock with a sequence that starts at start and advances
// by step on every call. It returns a restore function.
func Stub(start time.Time, step time.Duration) (restore func()) {
	previous := NowFunc
	current := start
	NowFunc = func() time.Time {
		t := current
		current = current.Add(step)
		return t
	}
	return func() { NowFunc = previous }
}

// Freeze pins the clock to a single instant. It returns a restore function.
func Freeze(at time.Time) (restore func()) {
	previous := NowFunc
	NowFunc = func() time.Time { return at }
	return func() { NowFunc = previous }
}
