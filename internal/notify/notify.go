// Package notify implements the subscription contract between the
// validation engine and its rendering layer. Observers receive the new
// and previous state synchronously after every transition and derive
// their own decoration diffs; the engine does no diffing.
package notify

import (
	"sync"

	"github.com/dshills/prosecheck/internal/validate"
)

// Transition pairs a freshly published state with its predecessor.
type Transition struct {
	New validate.State
	Old validate.State
}

// Observer is called after each state transition.
type Observer func(tr Transition)

// Subscription represents an active observer registration.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s != nil && s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

// Notifier delivers state transitions to subscribers in subscription
// order. Safe for concurrent use.
type Notifier struct {
	mu        sync.RWMutex
	observers []entry
	nextID    uint64
}

type entry struct {
	id uint64
	fn Observer
}

// New creates an empty notifier.
func New() *Notifier {
	return &Notifier{}
}

// Subscribe registers an observer and returns its subscription handle.
func (n *Notifier) Subscribe(fn Observer) *Subscription {
	if fn == nil {
		return &Subscription{}
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	n.observers = append(n.observers, entry{id: n.nextID, fn: fn})
	return &Subscription{id: n.nextID, notifier: n}
}

// Notify delivers (new, old) to every observer synchronously, in
// subscription order. Observers run outside the notifier's lock, so they
// may subscribe or unsubscribe from within a callback.
func (n *Notifier) Notify(newState, oldState validate.State) {
	n.mu.RLock()
	subs := make([]entry, len(n.observers))
	copy(subs, n.observers)
	n.mu.RUnlock()

	tr := Transition{New: newState, Old: oldState}
	for _, sub := range subs {
		sub.fn(tr)
	}
}

// Len returns the number of active subscriptions.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.observers)
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, sub := range n.observers {
		if sub.id == id {
			n.observers = append(n.observers[:i], n.observers[i+1:]...)
			return
		}
	}
}
