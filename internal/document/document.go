// Package document defines the boundary the validation engine needs from
// a host document: reading literal text for a range and describing edits
// as position-preserving transforms. TextDocument is a string-backed
// implementation suitable for plain-text hosts and for tests; rich-text
// hosts adapt their own buffer behind the Reader interface.
package document

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dshills/prosecheck/internal/mapping"
	"github.com/dshills/prosecheck/internal/textrange"
)

// ErrOutOfBounds indicates an edit or slice outside the document.
var ErrOutOfBounds = errors.New("range out of document bounds")

// Reader provides read access to the document's flat text coordinate
// space. Implementations must be safe for concurrent readers.
type Reader interface {
	// Len returns the document length in the flat coordinate space.
	Len() int

	// Slice returns the literal text covered by r, clamped to the
	// document bounds.
	Slice(r textrange.Range) string
}

// TextDocument is a mutable, string-backed document. Mutators return the
// mapping.Edit they performed so callers can thread it through the
// validation state.
type TextDocument struct {
	mu   sync.RWMutex
	text string
}

// NewTextDocument creates a document holding text.
func NewTextDocument(text string) *TextDocument {
	return &TextDocument{text: text}
}

// Len returns the document length.
func (d *TextDocument) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.text)
}

// Slice returns the text covered by r, clamped to the document.
func (d *TextDocument) Slice(r textrange.Range) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r = r.Clamp(len(d.text))
	return d.text[r.From:r.To]
}

// Text returns the full document content.
func (d *TextDocument) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

// Insert adds text at pos and returns the edit performed.
func (d *TextDocument) Insert(pos int, text string) (mapping.Edit, error) {
	return d.Replace(pos, pos, text)
}

// Delete removes the span [from, to) and returns the edit performed.
func (d *TextDocument) Delete(from, to int) (mapping.Edit, error) {
	return d.Replace(from, to, "")
}

// Replace swaps the span [from, to) for text and returns the edit
// performed.
func (d *TextDocument) Replace(from, to int, text string) (mapping.Edit, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if from < 0 || to < from || to > len(d.text) {
		return mapping.Edit{}, fmt.Errorf("replace [%d,%d) in document of length %d: %w",
			from, to, len(d.text), ErrOutOfBounds)
	}

	d.text = d.text[:from] + text + d.text[to:]
	return mapping.Replace(from, to, text), nil
}

// DirtiedRange returns the region an edit dirties, in the coordinates of
// the document AFTER the edit. For inserts and replaces this is the span
// the new text occupies. A pure deletion collapses to a point, which
// strict-overlap eviction would never match, so it is widened to one
// character spanning the join. newLen is the post-edit document length.
func DirtiedRange(e mapping.Edit, newLen int) textrange.Range {
	r := textrange.Range{From: e.Start, To: e.Start + e.NewLen()}
	if r.Empty() {
		r.To = r.From + 1
		if r.To > newLen {
			r = textrange.Range{From: newLen - 1, To: newLen}
		}
	}
	return r.Clamp(newLen)
}

// ExpandToLines widens each range to the full line(s) containing it, so a
// validation request carries enough surrounding context for the checker.
// Ranges in the result are merged. This is the plain-text analog of
// expanding to an enclosing structural block in a rich-text host.
func ExpandToLines(doc Reader, rs []textrange.Range) []textrange.Range {
	if len(rs) == 0 {
		return nil
	}

	length := doc.Len()
	text := doc.Slice(textrange.Range{From: 0, To: length})

	expanded := make([]textrange.Range, 0, len(rs))
	for _, r := range rs {
		r = r.Clamp(length)

		from := strings.LastIndexByte(text[:r.From], '\n') + 1

		to := r.To
		if idx := strings.IndexByte(text[r.To:], '\n'); idx >= 0 {
			to = r.To + idx
		} else {
			to = length
		}

		expanded = append(expanded, textrange.Range{From: from, To: to})
	}
	return textrange.Merge(expanded)
}
