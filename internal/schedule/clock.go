package schedule

import "time"

// Clock abstracts timer creation so the scheduler can be driven
// deterministically in tests without real delays.
type Clock interface {
	// AfterFunc runs fn in its own goroutine after d elapses.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a cancelable pending callback.
type Timer interface {
	// Stop cancels the timer. It reports whether the call prevented the
	// callback from running.
	Stop() bool
}

// realClock implements Clock with the runtime's timers.
type realClock struct{}

// RealClock returns the wall-clock implementation.
func RealClock() Clock {
	return realClock{}
}

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
