package validate

import (
	"github.com/dshills/prosecheck/internal/document"
	"github.com/dshills/prosecheck/internal/textrange"
)

// ExpandFunc widens dirtied ranges into the regions actually submitted,
// typically to an enclosing structural block so the checker sees enough
// context. document.ExpandToLines is the plain-text implementation.
type ExpandFunc func(doc document.Reader, rs []textrange.Range) []textrange.Range

// IdentityExpand submits dirtied ranges exactly as tracked.
func IdentityExpand(_ document.Reader, rs []textrange.Range) []textrange.Range {
	return rs
}

// Action is a semantic state transition. At most one action accompanies
// each document edit through Transition.
type Action interface {
	isAction()
}

// RangesDirtied records regions changed since their last validation. It
// evicts overlapping accepted results and marks a validation pending.
type RangesDirtied struct {
	Ranges []textrange.Range
}

// RequestForDirtyRanges turns the accumulated dirtied ranges into
// dispatched requests: expand, snapshot text, clear, record in flight.
type RequestForDirtyRanges struct {
	Doc    document.Reader
	Expand ExpandFunc
}

// RequestForWholeDocument dispatches a single request covering the whole
// document, bypassing dirtied-range tracking.
type RequestForWholeDocument struct {
	Doc document.Reader
}

// RequestSucceeded resolves an in-flight request with its outputs.
type RequestSucceeded struct {
	ID      string
	Outputs []Output
}

// RequestFailed resolves an in-flight request with a terminal error. The
// request's region is re-dirtied so the next cycle re-checks it.
type RequestFailed struct {
	ID      string
	Message string
}

// SelectValidation records the result the UI has selected.
type SelectValidation struct {
	ID string
}

// HoverValidation records the result the UI is hovering, with renderer
// supplied hover context.
type HoverValidation struct {
	ID   string
	Info string
}

// SetDebug toggles debug bookkeeping.
type SetDebug struct {
	Enabled bool
}

func (RangesDirtied) isAction()           {}
func (RequestForDirtyRanges) isAction()   {}
func (RequestForWholeDocument) isAction() {}
func (RequestSucceeded) isAction()        {}
func (RequestFailed) isAction()           {}
func (SelectValidation) isAction()        {}
func (HoverValidation) isAction()         {}
func (SetDebug) isAction()                {}
