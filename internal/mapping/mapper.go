package mapping

import "github.com/dshills/prosecheck/internal/textrange"

// Bias resolves positions that fall inside a replaced span. BiasBefore
// pulls the position to the start of the replacement, BiasAfter pushes it
// past the inserted text. Mapping a range with (BiasBefore, BiasAfter)
// expands it over text inserted at either edge, which is the behavior
// result ranges want: an annotation keeps covering boundary insertions
// rather than shrinking away from them.
type Bias int8

const (
	// BiasBefore maps an ambiguous position to the start of the edit.
	BiasBefore Bias = -1

	// BiasAfter maps an ambiguous position past the inserted text.
	BiasAfter Bias = 1
)

// Mapper translates positions forward through an ordered sequence of
// edits. Each edit's coordinates refer to the document state produced by
// the edits before it. The zero value and nil are both valid identity
// mappers. Mapper values are immutable; Compose builds new ones.
type Mapper struct {
	edits []Edit
}

// New creates a mapper from edits in application order.
func New(edits ...Edit) *Mapper {
	if len(edits) == 0 {
		return &Mapper{}
	}
	owned := make([]Edit, len(edits))
	copy(owned, edits)
	return &Mapper{edits: owned}
}

// Identity returns a mapper that translates every position to itself.
func Identity() *Mapper {
	return &Mapper{}
}

// IsIdentity returns true if the mapper performs no translation.
func (m *Mapper) IsIdentity() bool {
	return m == nil || len(m.edits) == 0
}

// Len returns the number of edits the mapper carries.
func (m *Mapper) Len() int {
	if m == nil {
		return 0
	}
	return len(m.edits)
}

// MapPos translates a single position through every edit in order.
func (m *Mapper) MapPos(pos int, bias Bias) int {
	if m == nil {
		return pos
	}
	for _, e := range m.edits {
		pos = mapThrough(e, pos, bias)
	}
	return pos
}

// MapRange translates a range, expanding over insertions at its edges.
// A range entirely inside a deleted span collapses to an empty range at
// the deletion point.
func (m *Mapper) MapRange(r textrange.Range) textrange.Range {
	from := m.MapPos(r.From, BiasBefore)
	to := m.MapPos(r.To, BiasAfter)
	if to < from {
		to = from
	}
	return textrange.Range{From: from, To: to}
}

// Compose combines two mappers into one equivalent to applying a then b.
// Composition is associative under position translation: composing is
// concatenation of edit sequences, and MapPos folds over them in order.
// Either argument may be nil (identity).
func Compose(a, b *Mapper) *Mapper {
	if a.IsIdentity() {
		if b.IsIdentity() {
			return Identity()
		}
		return New(b.edits...)
	}
	if b.IsIdentity() {
		return New(a.edits...)
	}
	edits := make([]Edit, 0, len(a.edits)+len(b.edits))
	edits = append(edits, a.edits...)
	edits = append(edits, b.edits...)
	return &Mapper{edits: edits}
}

// mapThrough translates pos through a single edit.
func mapThrough(e Edit, pos int, bias Bias) int {
	if pos < e.Start {
		return pos
	}
	if pos > e.End {
		return pos + e.Delta()
	}
	// Inside (or at the boundary of) the replaced span.
	if bias == BiasAfter {
		return e.Start + e.NewLen()
	}
	return e.Start
}
