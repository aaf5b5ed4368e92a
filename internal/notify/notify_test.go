package notify

import (
	"testing"

	"github.com/dshills/prosecheck/internal/validate"
)

func TestNotifyDeliversInSubscriptionOrder(t *testing.T) {
	n := New()

	var order []string
	n.Subscribe(func(tr Transition) { order = append(order, "first") })
	n.Subscribe(func(tr Transition) { order = append(order, "second") })

	n.Notify(validate.NewState(0, 0), validate.State{})

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("delivery order = %v, want [first second]", order)
	}
}

func TestNotifyCarriesBothStates(t *testing.T) {
	n := New()

	old := validate.NewState(0, 0)
	updated := old
	updated.Err = "boom"

	var got Transition
	n.Subscribe(func(tr Transition) { got = tr })
	n.Notify(updated, old)

	if got.New.Err != "boom" {
		t.Errorf("new state Err = %q, want %q", got.New.Err, "boom")
	}
	if got.Old.Err != "" {
		t.Errorf("old state Err = %q, want empty", got.Old.Err)
	}
}

func TestUnsubscribe(t *testing.T) {
	n := New()

	calls := 0
	sub := n.Subscribe(func(tr Transition) { calls++ })

	n.Notify(validate.State{}, validate.State{})
	sub.Unsubscribe()
	sub.Unsubscribe() // double unsubscribe is harmless
	n.Notify(validate.State{}, validate.State{})

	if calls != 1 {
		t.Errorf("observer called %d times, want 1", calls)
	}
	if n.Len() != 0 {
		t.Errorf("Len() = %d, want 0", n.Len())
	}
}

func TestUnsubscribeFromWithinCallback(t *testing.T) {
	n := New()

	var sub *Subscription
	calls := 0
	sub = n.Subscribe(func(tr Transition) {
		calls++
		sub.Unsubscribe()
	})

	n.Notify(validate.State{}, validate.State{})
	n.Notify(validate.State{}, validate.State{})

	if calls != 1 {
		t.Errorf("observer called %d times, want 1", calls)
	}
}

func TestNilObserverIsIgnored(t *testing.T) {
	n := New()
	sub := n.Subscribe(nil)
	sub.Unsubscribe()

	// Must not panic.
	n.Notify(validate.State{}, validate.State{})
	if n.Len() != 0 {
		t.Errorf("Len() = %d, want 0", n.Len())
	}
}
