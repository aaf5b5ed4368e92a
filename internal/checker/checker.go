// Package checker defines the checking-service boundary. The engine only
// needs two operations: validate one snapshotted region, and list the rule
// categories the service offers. Adapters live in subpackages and must
// support independent concurrent calls.
package checker

import (
	"context"
	"errors"

	"github.com/dshills/prosecheck/internal/validate"
)

// Standard errors returned by checker adapters.
var (
	// ErrUnavailable indicates the service could not be reached.
	ErrUnavailable = errors.New("checking service unavailable")

	// ErrBadResponse indicates the service answered with something the
	// adapter could not decode.
	ErrBadResponse = errors.New("invalid response from checking service")
)

// Checker validates text regions against an external rule service.
type Checker interface {
	// Check validates one input, optionally restricted to categoryIDs,
	// and returns matches in the coordinate space the input's range uses.
	Check(ctx context.Context, in validate.Input, categoryIDs []string) ([]validate.Output, error)

	// Categories lists the rule categories the service offers.
	Categories(ctx context.Context) ([]validate.Category, error)
}
