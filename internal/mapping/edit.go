// Package mapping translates document positions and ranges forward through
// sequences of edits, so a range captured at one document revision remains
// valid at a later revision. Mappers compose associatively, which lets an
// in-flight validation accumulate every edit applied since it was issued
// and relocate its eventual result in one step.
package mapping

// EditKind categorizes an edit.
type EditKind uint8

const (
	// EditInsert indicates text was inserted (the replaced span is empty).
	EditInsert EditKind = iota

	// EditDelete indicates text was removed (the inserted text is empty).
	EditDelete

	// EditReplace indicates text was swapped for other text.
	EditReplace
)

// String returns a human-readable representation of the edit kind.
func (k EditKind) String() string {
	switch k {
	case EditInsert:
		return "insert"
	case EditDelete:
		return "delete"
	case EditReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Edit describes one replacement of the span [Start, End) with Text. The
// span is in the coordinates of the document BEFORE the edit. Inserts have
// Start == End; deletes have empty Text.
type Edit struct {
	Start int
	End   int
	Text  string
}

// Insert creates an edit inserting text at pos.
func Insert(pos int, text string) Edit {
	return Edit{Start: pos, End: pos, Text: text}
}

// Delete creates an edit removing the span [start, end).
func Delete(start, end int) Edit {
	return Edit{Start: start, End: end}
}

// Replace creates an edit swapping the span [start, end) for text.
func Replace(start, end int, text string) Edit {
	return Edit{Start: start, End: end, Text: text}
}

// Kind derives the edit kind from the replaced span and inserted text.
func (e Edit) Kind() EditKind {
	switch {
	case e.Start == e.End:
		return EditInsert
	case e.Text == "":
		return EditDelete
	default:
		return EditReplace
	}
}

// NewLen returns the length of the inserted text.
func (e Edit) NewLen() int {
	return len(e.Text)
}

// Delta returns the size change the edit causes. Positive means the
// document grew.
func (e Edit) Delta() int {
	return e.NewLen() - (e.End - e.Start)
}
