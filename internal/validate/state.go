package validate

import (
	"time"

	"github.com/dshills/prosecheck/internal/textrange"
)

// Default throttle bounds. The current throttle doubles on each failed
// request up to the maximum and resets to the initial value on success.
const (
	DefaultInitialThrottle = 2 * time.Second
	DefaultMaxThrottle     = 16 * time.Second
)

// State is the authoritative validation state for one document session.
// It is a value type treated as immutable: Transition returns a new State
// and never modifies its input. All ranges are expressed in the coordinate
// space of the current document revision.
type State struct {
	// Dirtied holds merged, non-overlapping regions changed since the
	// last request dispatch.
	Dirtied []textrange.Range

	// Current holds accepted, displayable results. No element overlaps
	// another, and none overlaps a Dirtied range.
	Current []Output

	// InFlight holds dispatched, unresolved requests. The set is not
	// deduplicated by range; entries from different cycles may cover
	// overlapping text.
	InFlight []InFlight

	// Throttle bookkeeping.
	InitialThrottle time.Duration
	MaxThrottle     time.Duration
	CurrentThrottle time.Duration

	// Pending is true when a validation has been scheduled but not yet
	// dispatched.
	Pending bool

	// UI pointers, carried but not interpreted by the engine.
	SelectedID string
	HoverID    string
	HoverInfo  string

	// Err is the most recent request failure message. It persists until
	// a new failure overwrites it or a success clears it.
	Err string

	Debug bool
}

// NewState creates the initial state for a document session. Non-positive
// throttle arguments fall back to the defaults.
func NewState(initialThrottle, maxThrottle time.Duration) State {
	if initialThrottle <= 0 {
		initialThrottle = DefaultInitialThrottle
	}
	if maxThrottle < initialThrottle {
		maxThrottle = DefaultMaxThrottle
	}
	return State{
		InitialThrottle: initialThrottle,
		MaxThrottle:     maxThrottle,
		CurrentThrottle: initialThrottle,
	}
}

// clone returns a copy whose slices are independent of the receiver's, so
// transitions never write into a previously published state.
func (s State) clone() State {
	next := s
	if len(s.Dirtied) > 0 {
		next.Dirtied = make([]textrange.Range, len(s.Dirtied))
		copy(next.Dirtied, s.Dirtied)
	}
	if len(s.Current) > 0 {
		next.Current = make([]Output, len(s.Current))
		copy(next.Current, s.Current)
	}
	if len(s.InFlight) > 0 {
		next.InFlight = make([]InFlight, len(s.InFlight))
		copy(next.InFlight, s.InFlight)
	}
	return next
}
