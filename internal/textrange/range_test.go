package textrange

import (
	"reflect"
	"testing"
)

func TestNewSwapsReversedBounds(t *testing.T) {
	r := New(10, 4)
	if r.From != 4 || r.To != 10 {
		t.Errorf("New(10, 4) = %v, want [4,10)", r)
	}
}

func TestRangeOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Range
		want bool
	}{
		{"disjoint", Range{0, 5}, Range{10, 15}, false},
		{"touching is not overlap", Range{0, 5}, Range{5, 10}, false},
		{"partial", Range{0, 6}, Range{5, 10}, true},
		{"contained", Range{0, 10}, Range{3, 4}, true},
		{"identical", Range{2, 8}, Range{2, 8}, true},
		{"empty range never overlaps", Range{5, 5}, Range{0, 10}, false},
		{"empty against empty", Range{5, 5}, Range{5, 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("%v.Overlaps(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("%v.Overlaps(%v) = %v, want %v (not symmetric)", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestRangeTouches(t *testing.T) {
	if !(Range{0, 5}).Touches(Range{5, 10}) {
		t.Error("adjacent ranges should touch")
	}
	if (Range{0, 5}).Touches(Range{6, 10}) {
		t.Error("ranges with a gap should not touch")
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		in   []Range
		want []Range
	}{
		{"empty", nil, nil},
		{"single", []Range{{0, 5}}, []Range{{0, 5}}},
		{"disjoint sorted", []Range{{0, 2}, {5, 7}}, []Range{{0, 2}, {5, 7}}},
		{"unsorted", []Range{{5, 7}, {0, 2}}, []Range{{0, 2}, {5, 7}}},
		{"overlapping", []Range{{0, 5}, {3, 9}}, []Range{{0, 9}}},
		{"adjacent collapse", []Range{{0, 5}, {5, 9}}, []Range{{0, 9}}},
		{"contained", []Range{{0, 10}, {2, 4}}, []Range{{0, 10}}},
		{"chain", []Range{{0, 2}, {2, 4}, {4, 6}, {10, 12}}, []Range{{0, 6}, {10, 12}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Merge(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	in := []Range{{8, 12}, {0, 3}, {2, 6}, {6, 7}, {20, 20}}
	once := Merge(in)
	twice := Merge(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Merge not idempotent: once %v, twice %v", once, twice)
	}
}

func TestMergeDoesNotModifyInput(t *testing.T) {
	in := []Range{{5, 7}, {0, 2}}
	Merge(in)
	if in[0] != (Range{5, 7}) || in[1] != (Range{0, 2}) {
		t.Errorf("Merge modified its input: %v", in)
	}
}

func TestFindOverlap(t *testing.T) {
	set := []Range{{0, 3}, {5, 8}, {10, 15}}

	if got := FindOverlap(Range{6, 7}, set); got != 1 {
		t.Errorf("FindOverlap = %d, want 1", got)
	}
	if got := FindOverlap(Range{3, 5}, set); got != -1 {
		t.Errorf("FindOverlap on touching range = %d, want -1", got)
	}
	if got := FindOverlap(Range{2, 6}, set); got != 0 {
		t.Errorf("FindOverlap should return first match, got %d", got)
	}
}

func TestRemoveOverlapping(t *testing.T) {
	set := []Range{{0, 3}, {5, 8}, {10, 15}}
	blockers := []Range{{6, 7}}

	got := RemoveOverlapping(set, blockers)
	want := []Range{{0, 3}, {10, 15}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RemoveOverlapping = %v, want %v", got, want)
	}

	if got := RemoveOverlapping(set, nil); !reflect.DeepEqual(got, set) {
		t.Errorf("RemoveOverlapping with no blockers = %v, want input unchanged", got)
	}
}

type shiftMapper struct{ by int }

func (m shiftMapper) MapRange(r Range) Range {
	return Range{From: r.From + m.by, To: r.To + m.by}
}

func TestMapRanges(t *testing.T) {
	in := []Range{{0, 2}, {2, 4}}

	merged := MapRanges(in, shiftMapper{by: 3}, true)
	if !reflect.DeepEqual(merged, []Range{{3, 7}}) {
		t.Errorf("MapRanges merged = %v, want [[3,7)]", merged)
	}

	raw := MapRanges(in, shiftMapper{by: 3}, false)
	if !reflect.DeepEqual(raw, []Range{{3, 5}, {5, 7}}) {
		t.Errorf("MapRanges unmerged = %v, want [[3,5) [5,7)]", raw)
	}
}
