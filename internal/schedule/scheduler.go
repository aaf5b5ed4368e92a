// Package schedule implements the validation orchestrator's timing
// policy: one logical timer that turns accumulated dirty ranges into a
// dispatched request after the current throttle interval, deferring
// rather than piling on while a request is already in flight.
package schedule

import (
	"sync"
	"time"

	"github.com/dshills/prosecheck/internal/logging"
)

// Hooks connects the scheduler to the session that owns the state.
// Throttle and InFlight are consulted at fire time so backoff changes and
// resolved requests are always observed current.
type Hooks struct {
	// Throttle returns the current throttle interval.
	Throttle func() time.Duration

	// InFlight reports whether any request is outstanding.
	InFlight func() bool

	// Dispatch fires the request-for-dirty-ranges transition.
	Dispatch func()
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the timer source. Defaults to the real clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the scheduler's logger.
func WithLogger(log *logging.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log.WithComponent("scheduler")
		}
	}
}

// Scheduler owns the single validation timer. All methods are safe for
// concurrent use.
type Scheduler struct {
	mu      sync.Mutex
	clock   Clock
	hooks   Hooks
	timer   Timer
	stopped bool
	log     *logging.Logger
}

// New creates a scheduler. All three hooks are required.
func New(hooks Hooks, opts ...Option) *Scheduler {
	s := &Scheduler{
		clock: RealClock(),
		hooks: hooks,
		log:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Arm schedules a validation after the current throttle interval. A call
// while a timer is already armed is a no-op: dirty ranges accumulate under
// the one pending fire.
func (s *Scheduler) Arm() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.timer != nil {
		return
	}

	d := s.hooks.Throttle()
	s.timer = s.clock.AfterFunc(d, s.onFire)
	s.log.Debug("armed validation timer for %s", d)
}

// Armed reports whether a fire is pending.
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Stop cancels any pending fire and prevents re-arming.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// onFire runs when the timer elapses. With a request still in flight the
// fire defers: it re-arms for another throttle interval instead of
// dispatching concurrently.
func (s *Scheduler) onFire() {
	s.mu.Lock()
	s.timer = nil
	if s.stopped {
		s.mu.Unlock()
		return
	}

	if s.hooks.InFlight() {
		d := s.hooks.Throttle()
		s.timer = s.clock.AfterFunc(d, s.onFire)
		s.mu.Unlock()
		s.log.Debug("request in flight, deferring dispatch for %s", d)
		return
	}
	s.mu.Unlock()

	// Dispatch outside the lock: it transitions the session state, which
	// may re-enter Arm.
	s.log.Debug("dispatching validation for dirty ranges")
	s.hooks.Dispatch()
}
