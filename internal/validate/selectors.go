package validate

// OutputByID returns the accepted result with the given id.
func (s State) OutputByID(id string) (Output, bool) {
	for _, out := range s.Current {
		if out.ID == id {
			return out, true
		}
	}
	return Output{}, false
}

// InFlightByID returns the unresolved request with the given id.
func (s State) InFlightByID(id string) (InFlight, bool) {
	idx := inFlightIndex(s.InFlight, id)
	if idx < 0 {
		return InFlight{}, false
	}
	return s.InFlight[idx], true
}

// HasInFlight returns true if any request is outstanding.
func (s State) HasInFlight() bool {
	return len(s.InFlight) > 0
}

// OutputsAt returns the accepted results covering pos. At most one can
// match, given the no-overlap invariant, but hit testing callers get a
// slice to stay shape-compatible with multi-match hosts.
func (s State) OutputsAt(pos int) []Output {
	var hits []Output
	for _, out := range s.Current {
		if out.Range.Contains(pos) {
			hits = append(hits, out)
		}
	}
	return hits
}

// Selected returns the result the UI has selected, if it still exists.
func (s State) Selected() (Output, bool) {
	if s.SelectedID == "" {
		return Output{}, false
	}
	return s.OutputByID(s.SelectedID)
}
