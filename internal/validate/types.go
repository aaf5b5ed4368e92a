package validate

import (
	"github.com/dshills/prosecheck/internal/mapping"
	"github.com/dshills/prosecheck/internal/textrange"
)

// Category classifies a validation match (grammar, style, spelling, ...).
// Categories come from the checking service and select which rules run.
type Category struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Colour string `json:"colour,omitempty"`
}

// Input is one region submitted for validation: the range, the literal
// text snapshotted at submission time, and the identifier assigned when
// the request was dispatched.
type Input struct {
	ID    string
	Range textrange.Range
	Text  string
}

// Output is one accepted validation match. Its Range is always expressed
// in the coordinate space of the current document. Outputs held in
// ValidationState.Current are pairwise non-overlapping by construction.
type Output struct {
	// ID identifies the match. A later-resolving result carrying the
	// same ID replaces the earlier one.
	ID string

	Range textrange.Range

	// Text is the matched text as the checker saw it.
	Text string

	// Message is the annotation to surface for the match.
	Message string

	Category Category

	// Suggestions are optional replacement texts.
	Suggestions []string

	// MarkedCorrect flags a match the checker considers already fine,
	// carried for display purposes.
	MarkedCorrect bool
}

// InFlight is a dispatched request that has not resolved. Mapping
// accumulates every edit applied to the document since dispatch; the
// eventual result is relocated through it before admission. The captured
// Input range is never trusted directly.
type InFlight struct {
	ID      string
	Input   Input
	Mapping *mapping.Mapper
}
