package validate

import (
	"sort"

	"github.com/google/uuid"

	"github.com/dshills/prosecheck/internal/document"
	"github.com/dshills/prosecheck/internal/mapping"
	"github.com/dshills/prosecheck/internal/textrange"
)

// Transition is the state transition engine: a pure function from the
// previous state, the document edit that accompanied it, and an optional
// semantic action, to the next state.
//
// The mapping step runs first and unconditionally: every range-bearing
// field is re-expressed in the coordinate space of the new document, and
// each in-flight request's private mapping absorbs the edit. A nil action
// performs only the mapping step. The previous state is never modified.
func Transition(prev State, edits *mapping.Mapper, action Action) State {
	next := prev.clone()

	if !edits.IsIdentity() {
		next.Dirtied = textrange.MapRanges(next.Dirtied, edits, true)

		// A result wholly inside a deleted span maps to an empty range;
		// it covers no text anymore and must not survive.
		var current []Output
		for _, out := range next.Current {
			out.Range = edits.MapRange(out.Range)
			if out.Range.Empty() {
				continue
			}
			current = append(current, out)
		}
		next.Current = current

		for i := range next.InFlight {
			next.InFlight[i].Mapping = mapping.Compose(next.InFlight[i].Mapping, edits)
		}
		// Boundary-expanding edits can push a surviving result into a
		// dirtied range; dirtying wins.
		next.Current = dropOverlappingOutputs(next.Current, next.Dirtied)
	}

	switch a := action.(type) {
	case nil:
	case RangesDirtied:
		next = applyRangesDirtied(next, a)
	case RequestForDirtyRanges:
		next = applyRequestForDirtyRanges(next, a)
	case RequestForWholeDocument:
		next = applyRequestForWholeDocument(next, a)
	case RequestSucceeded:
		next = applyRequestSucceeded(next, a)
	case RequestFailed:
		next = applyRequestFailed(next, a)
	case SelectValidation:
		next.SelectedID = a.ID
	case HoverValidation:
		next.HoverID = a.ID
		next.HoverInfo = a.Info
	case SetDebug:
		next.Debug = a.Enabled
	}

	return next
}

func applyRangesDirtied(next State, a RangesDirtied) State {
	if len(a.Ranges) == 0 {
		return next
	}
	next.Current = dropOverlappingOutputs(next.Current, a.Ranges)
	next.Dirtied = textrange.Merge(append(next.Dirtied, a.Ranges...))
	next.Pending = true
	return next
}

func applyRequestForDirtyRanges(next State, a RequestForDirtyRanges) State {
	if len(next.Dirtied) == 0 {
		next.Pending = false
		return next
	}

	regions := next.Dirtied
	if a.Expand != nil {
		regions = textrange.Merge(a.Expand(a.Doc, regions))
	}
	return dispatchRegions(next, a.Doc, regions)
}

func applyRequestForWholeDocument(next State, a RequestForWholeDocument) State {
	whole := textrange.Range{From: 0, To: a.Doc.Len()}
	return dispatchRegions(next, a.Doc, []textrange.Range{whole})
}

// dispatchRegions snapshots each region as an Input and records one
// in-flight request per region, each with a fresh id and an identity
// mapping. Dirtied ranges are consumed.
func dispatchRegions(next State, doc document.Reader, regions []textrange.Range) State {
	next.Dirtied = nil
	next.Pending = false

	inFlight := make([]InFlight, len(next.InFlight), len(next.InFlight)+len(regions))
	copy(inFlight, next.InFlight)

	for _, region := range regions {
		if region.Empty() {
			continue
		}
		in := Input{
			ID:    uuid.NewString(),
			Range: region,
			Text:  doc.Slice(region),
		}
		inFlight = append(inFlight, InFlight{
			ID:      in.ID,
			Input:   in,
			Mapping: mapping.Identity(),
		})
	}

	next.InFlight = inFlight
	return next
}

func applyRequestSucceeded(next State, a RequestSucceeded) State {
	idx := inFlightIndex(next.InFlight, a.ID)
	if idx < 0 {
		// Already superseded or unknown; discard silently.
		return next
	}

	fl := next.InFlight[idx]
	next.InFlight = removeInFlight(next.InFlight, idx)

	// Relocate each output through every edit applied since dispatch,
	// then reject anything the user has touched in the meantime.
	var accepted []Output
	for _, out := range a.Outputs {
		out.Range = fl.Mapping.MapRange(out.Range)
		if out.Range.Empty() {
			continue
		}
		if textrange.OverlapsAny(out.Range, next.Dirtied) {
			continue
		}
		accepted = append(accepted, out)
	}

	next.Current = mergeOutputs(next.Current, accepted)
	next.CurrentThrottle = next.InitialThrottle
	next.Err = ""
	return next
}

func applyRequestFailed(next State, a RequestFailed) State {
	next.Err = a.Message

	idx := inFlightIndex(next.InFlight, a.ID)
	if idx < 0 {
		// Superseded or unknown: record the message, nothing else.
		return next
	}

	// Backoff: repeated failures double the throttle up to the cap.
	next.CurrentThrottle *= 2
	if next.CurrentThrottle > next.MaxThrottle {
		next.CurrentThrottle = next.MaxThrottle
	}

	fl := next.InFlight[idx]
	next.InFlight = removeInFlight(next.InFlight, idx)

	// Re-dirty the request's region so the next cycle re-checks it.
	region := fl.Mapping.MapRange(fl.Input.Range)
	if !region.Empty() {
		next.Current = dropOverlappingOutputs(next.Current, []textrange.Range{region})
		next.Dirtied = textrange.Merge(append(next.Dirtied, region))
		next.Pending = true
	}
	return next
}

// mergeOutputs folds accepted outputs into the current set. An incoming
// output replaces prior entries with the same id and prior entries it
// overlaps, keeping the set pairwise non-overlapping. A single response
// may itself carry mutually overlapping matches; the first in range order
// wins so the merged set stays pairwise disjoint.
func mergeOutputs(current, incoming []Output) []Output {
	if len(incoming) == 0 {
		return current
	}

	sorted := make([]Output, len(incoming))
	copy(sorted, incoming)
	sortOutputs(sorted)

	var deduped []Output
	for _, out := range sorted {
		if !overlapsAnyOutput(out.Range, deduped) {
			deduped = append(deduped, out)
		}
	}
	incoming = deduped

	incomingIDs := make(map[string]struct{}, len(incoming))
	for _, out := range incoming {
		incomingIDs[out.ID] = struct{}{}
	}

	merged := make([]Output, 0, len(current)+len(incoming))
	for _, out := range current {
		if _, replaced := incomingIDs[out.ID]; replaced {
			continue
		}
		if overlapsAnyOutput(out.Range, incoming) {
			continue
		}
		merged = append(merged, out)
	}
	merged = append(merged, incoming...)
	sortOutputs(merged)
	return merged
}

func sortOutputs(outputs []Output) {
	sort.SliceStable(outputs, func(i, j int) bool {
		if outputs[i].Range.From != outputs[j].Range.From {
			return outputs[i].Range.From < outputs[j].Range.From
		}
		return outputs[i].Range.To < outputs[j].Range.To
	})
}

func overlapsAnyOutput(r textrange.Range, outputs []Output) bool {
	for _, out := range outputs {
		if r.Overlaps(out.Range) {
			return true
		}
	}
	return false
}

func dropOverlappingOutputs(outputs []Output, blockers []textrange.Range) []Output {
	if len(outputs) == 0 || len(blockers) == 0 {
		return outputs
	}
	var kept []Output
	for _, out := range outputs {
		if !textrange.OverlapsAny(out.Range, blockers) {
			kept = append(kept, out)
		}
	}
	return kept
}

func inFlightIndex(set []InFlight, id string) int {
	for i, fl := range set {
		if fl.ID == id {
			return i
		}
	}
	return -1
}

func removeInFlight(set []InFlight, idx int) []InFlight {
	out := make([]InFlight, 0, len(set)-1)
	out = append(out, set[:idx]...)
	out = append(out, set[idx+1:]...)
	return out
}
