// Package textrange provides half-open text ranges and the pure set
// geometry used by the validation engine: merging, overlap queries, and
// subtraction of range sets.
package textrange

import (
	"fmt"
	"sort"
)

// Range is a half-open [From, To) span of flat document offsets.
// From <= To always holds for ranges produced by this package.
type Range struct {
	From int
	To   int
}

// New creates a range, swapping the bounds if they are reversed.
func New(from, to int) Range {
	if to < from {
		from, to = to, from
	}
	return Range{From: from, To: to}
}

// Len returns the number of positions covered by the range.
func (r Range) Len() int {
	return r.To - r.From
}

// Empty returns true if the range covers no positions.
func (r Range) Empty() bool {
	return r.To <= r.From
}

// Overlaps reports strict intersection: the ranges share at least one
// position. Touching ranges do not overlap, and an empty range covers no
// positions, so it overlaps nothing.
func (r Range) Overlaps(o Range) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.From < o.To && r.To > o.From
}

// Touches reports whether the ranges overlap or are adjacent. Adjacency
// counts so that merging never locks a zero-width gap between two spans.
func (r Range) Touches(o Range) bool {
	return r.From <= o.To && r.To >= o.From
}

// Contains reports whether pos falls inside the half-open range.
func (r Range) Contains(pos int) bool {
	return pos >= r.From && pos < r.To
}

// Clamp restricts the range to [0, max].
func (r Range) Clamp(max int) Range {
	if r.From < 0 {
		r.From = 0
	}
	if r.To > max {
		r.To = max
	}
	if r.To < r.From {
		r.To = r.From
	}
	return r
}

// String returns a compact representation for logs and test failures.
func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.From, r.To)
}

// Merge collapses overlapping or adjacent ranges into a sorted,
// non-overlapping set. The input is not modified. Merge is idempotent:
// Merge(Merge(rs)) equals Merge(rs).
func Merge(rs []Range) []Range {
	if len(rs) == 0 {
		return nil
	}

	sorted := make([]Range, len(rs))
	copy(sorted, rs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].From != sorted[j].From {
			return sorted[i].From < sorted[j].From
		}
		return sorted[i].To < sorted[j].To
	})

	merged := []Range{sorted[0]}
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.From <= last.To {
			if r.To > last.To {
				last.To = r.To
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// FindOverlap returns the index of the first range in set that strictly
// overlaps r, or -1 if none does.
func FindOverlap(r Range, set []Range) int {
	for i, s := range set {
		if s.Overlaps(r) {
			return i
		}
	}
	return -1
}

// OverlapsAny reports whether r strictly overlaps any range in set.
func OverlapsAny(r Range, set []Range) bool {
	return FindOverlap(r, set) >= 0
}

// RemoveOverlapping returns the subset of set whose elements overlap no
// element of blockers. Order is preserved.
func RemoveOverlapping(set, blockers []Range) []Range {
	if len(set) == 0 || len(blockers) == 0 {
		return set
	}
	var kept []Range
	for _, r := range set {
		if FindOverlap(r, blockers) < 0 {
			kept = append(kept, r)
		}
	}
	return kept
}

// RangeMapper translates a single range between document revisions.
// mapping.Mapper satisfies this.
type RangeMapper interface {
	MapRange(r Range) Range
}

// MapRanges applies m to every range. When mergeResult is true the mapped
// set is re-merged; dirtied ranges want merge semantics, accepted results
// do not because they are already pairwise disjoint and semantically
// distinct.
func MapRanges(rs []Range, m RangeMapper, mergeResult bool) []Range {
	if len(rs) == 0 {
		return nil
	}
	mapped := make([]Range, len(rs))
	for i, r := range rs {
		mapped[i] = m.MapRange(r)
	}
	if mergeResult {
		return Merge(mapped)
	}
	return mapped
}
