// Package session wires the validation engine to one live document: it
// owns the single ValidationState value, applies every change through the
// transition engine in total order, drives the throttle scheduler, spawns
// checking-service calls, folds their results back in, and notifies
// subscribers after each transition. All collaborators are injected.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/prosecheck/internal/checker"
	"github.com/dshills/prosecheck/internal/document"
	"github.com/dshills/prosecheck/internal/logging"
	"github.com/dshills/prosecheck/internal/mapping"
	"github.com/dshills/prosecheck/internal/notify"
	"github.com/dshills/prosecheck/internal/schedule"
	"github.com/dshills/prosecheck/internal/textrange"
	"github.com/dshills/prosecheck/internal/validate"
)

// Standard session errors.
var (
	// ErrUnknownValidation indicates a result id that is no longer (or
	// never was) in the current validations.
	ErrUnknownValidation = errors.New("unknown validation id")

	// ErrNoSuggestion indicates a suggestion index out of range.
	ErrNoSuggestion = errors.New("no suggestion at index")

	// ErrClosed indicates an operation on a closed session.
	ErrClosed = errors.New("session closed")
)

// Editor is the document capability the session needs: reading text and
// applying replacements on behalf of ApplySuggestion.
type Editor interface {
	document.Reader

	// Replace swaps [from, to) for text and returns the edit performed.
	Replace(from, to int, text string) (mapping.Edit, error)
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session's logger.
func WithLogger(log *logging.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log.WithComponent("session")
		}
	}
}

// WithClock sets the scheduler's timer source, for deterministic tests.
func WithClock(c schedule.Clock) Option {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithExpand sets how dirtied ranges widen before dispatch. Defaults to
// line expansion.
func WithExpand(fn validate.ExpandFunc) Option {
	return func(s *Session) {
		if fn != nil {
			s.expand = fn
		}
	}
}

// WithThrottle sets the dispatch throttle bounds.
func WithThrottle(initial, max time.Duration) Option {
	return func(s *Session) {
		s.initialThrottle = initial
		s.maxThrottle = max
	}
}

// WithCategories restricts checks to the given category ids.
func WithCategories(ids []string) Option {
	return func(s *Session) {
		s.categories = ids
	}
}

// Session coordinates validation for one document.
type Session struct {
	// notifyMu serializes transition+notification pairs so subscribers
	// observe transitions in the order they happened. Observers may read
	// session state but must not transition it from inside a callback.
	notifyMu sync.Mutex

	// mu guards state.
	mu    sync.Mutex
	state validate.State

	doc      Editor
	checker  checker.Checker
	notifier *notify.Notifier
	sched    *schedule.Scheduler
	expand   validate.ExpandFunc

	initialThrottle time.Duration
	maxThrottle     time.Duration
	categories      []string
	clock           schedule.Clock
	log             *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// New creates a session for doc backed by chk.
func New(doc Editor, chk checker.Checker, opts ...Option) *Session {
	s := &Session{
		doc:      doc,
		checker:  chk,
		notifier: notify.New(),
		expand:   document.ExpandToLines,
		clock:    schedule.RealClock(),
		log:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.state = validate.NewState(s.initialThrottle, s.maxThrottle)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.sched = schedule.New(schedule.Hooks{
		Throttle: s.currentThrottle,
		InFlight: s.hasInFlight,
		Dispatch: s.dispatchDirty,
	}, schedule.WithClock(s.clock), schedule.WithLogger(s.log))

	return s
}

// State returns the current validation state. The value is immutable;
// callers must not modify its slices.
func (s *Session) State() validate.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers an observer for state transitions.
func (s *Session) Subscribe(fn notify.Observer) *notify.Subscription {
	return s.notifier.Subscribe(fn)
}

// ApplyEdits threads document edits through the engine: every tracked
// range is re-mapped, the regions the edits touched are dirtied, and a
// validation is scheduled. The edits must already be applied to the
// document, in the order given.
func (s *Session) ApplyEdits(edits ...mapping.Edit) {
	if len(edits) == 0 {
		return
	}

	dirty := dirtiedFromEdits(edits, s.doc.Len())
	_, next := s.transition(mapping.New(edits...), validate.RangesDirtied{Ranges: dirty})
	if next.Pending {
		s.sched.Arm()
	}
}

// DirtyRanges marks regions for re-validation and schedules a check.
func (s *Session) DirtyRanges(rs ...textrange.Range) {
	if len(rs) == 0 {
		return
	}
	_, next := s.transition(nil, validate.RangesDirtied{Ranges: rs})
	if next.Pending {
		s.sched.Arm()
	}
}

// DirtyDocument marks the whole document for re-validation on the next
// throttle cycle.
func (s *Session) DirtyDocument() {
	s.DirtyRanges(textrange.Range{From: 0, To: s.doc.Len()})
}

// ValidateDocument dispatches an immediate whole-document check,
// bypassing dirtied-range tracking and the throttle.
func (s *Session) ValidateDocument() {
	old, next := s.transition(nil, validate.RequestForWholeDocument{Doc: s.doc})
	s.startChecks(old, next)
}

// Select records the result the UI has selected.
func (s *Session) Select(id string) {
	s.transition(nil, validate.SelectValidation{ID: id})
}

// Hover records the result the UI is hovering.
func (s *Session) Hover(id, info string) {
	s.transition(nil, validate.HoverValidation{ID: id, Info: info})
}

// SetDebug toggles debug bookkeeping.
func (s *Session) SetDebug(enabled bool) {
	s.transition(nil, validate.SetDebug{Enabled: enabled})
}

// ApplySuggestion replaces a result's text with one of its suggestions.
// The replacement goes through the document editor and back in through
// ApplyEdits, so the engine sees it like any other edit.
func (s *Session) ApplySuggestion(id string, index int) error {
	s.mu.Lock()
	out, ok := s.state.OutputByID(id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("apply suggestion %q: %w", id, ErrUnknownValidation)
	}
	if index < 0 || index >= len(out.Suggestions) {
		return fmt.Errorf("apply suggestion %q index %d: %w", id, index, ErrNoSuggestion)
	}

	edit, err := s.doc.Replace(out.Range.From, out.Range.To, out.Suggestions[index])
	if err != nil {
		return fmt.Errorf("apply suggestion %q: %w", id, err)
	}

	s.ApplyEdits(edit)
	return nil
}

// FetchCategories lists the checker's rule categories. Adapter failures
// are logged and surface as an empty list; they never fail the session.
func (s *Session) FetchCategories(ctx context.Context) []validate.Category {
	cats, err := s.checker.Categories(ctx)
	if err != nil {
		s.log.Warn("category fetch failed: %v", err)
		return nil
	}
	return cats
}

// Close stops the scheduler, cancels outstanding checks, and waits for
// their goroutines to finish.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.sched.Stop()
	s.cancel()
	s.wg.Wait()
}

// transition applies one reducer step and synchronously notifies
// subscribers, keeping notification order equal to transition order.
func (s *Session) transition(m *mapping.Mapper, a validate.Action) (oldState, newState validate.State) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	oldState = s.state
	newState = validate.Transition(oldState, m, a)
	s.state = newState
	s.mu.Unlock()

	s.notifier.Notify(newState, oldState)
	return oldState, newState
}

// dispatchDirty is the scheduler's fire hook: turn accumulated dirty
// ranges into requests and start their checks.
func (s *Session) dispatchDirty() {
	old, next := s.transition(nil, validate.RequestForDirtyRanges{Doc: s.doc, Expand: s.expand})
	s.startChecks(old, next)
}

// startChecks launches one checker call per request the transition added.
func (s *Session) startChecks(oldState, newState validate.State) {
	for _, fl := range newState.InFlight {
		if _, existed := oldState.InFlightByID(fl.ID); existed {
			continue
		}

		s.mu.Lock()
		closed := s.closed
		if !closed {
			s.wg.Add(1)
		}
		s.mu.Unlock()
		if closed {
			return
		}

		go s.runCheck(fl)
	}
}

func (s *Session) runCheck(fl validate.InFlight) {
	defer s.wg.Done()

	s.log.Debug("checking %s %s (%d bytes)", fl.ID, fl.Input.Range, len(fl.Input.Text))
	outputs, err := s.checker.Check(s.ctx, fl.Input, s.categories)
	if err != nil {
		s.log.Warn("check %s failed: %v", fl.ID, err)
		_, next := s.transition(nil, validate.RequestFailed{ID: fl.ID, Message: err.Error()})
		if next.Pending {
			s.sched.Arm()
		}
		return
	}

	s.log.Debug("check %s resolved with %d matches", fl.ID, len(outputs))
	s.transition(nil, validate.RequestSucceeded{ID: fl.ID, Outputs: outputs})
}

func (s *Session) currentThrottle() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CurrentThrottle
}

func (s *Session) hasInFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.HasInFlight()
}

// dirtiedFromEdits derives the dirtied regions of a batch of sequential
// edits, expressed in the final document's coordinates. Each edit's
// dirtied range is taken in its own post-edit coordinates, then mapped
// through the edits that followed it.
func dirtiedFromEdits(edits []mapping.Edit, finalLen int) []textrange.Range {
	// Document length after each edit, walked back from the final length.
	lens := make([]int, len(edits))
	l := finalLen
	for i := len(edits) - 1; i >= 0; i-- {
		lens[i] = l
		l -= edits[i].Delta()
	}

	var dirty []textrange.Range
	for i, e := range edits {
		r := document.DirtiedRange(e, lens[i])
		for _, later := range edits[i+1:] {
			r = mapping.New(later).MapRange(r)
		}
		r = r.Clamp(finalLen)
		if !r.Empty() {
			dirty = append(dirty, r)
		}
	}
	return textrange.Merge(dirty)
}
