package fiber

import (
	"errors"
	"fmt"

	"github.com/vango-dev/loom/pkg/element"
	"github.com/vango-dev/loom/pkg/host"
)

// Sentinel errors for failed render generations.
var (
	// ErrInvalidElementType is returned when an element's type cannot be
	// rendered (empty host tag, component without a render function, nil
	// component output).
	ErrInvalidElementType = host.ErrInvalidElementType

	// ErrComponentPanic is returned when a component's render function panics.
	ErrComponentPanic = errors.New("fiber: component panicked")

	// ErrInconsistentTree is returned when the committed tree violates a
	// reconciliation invariant, e.g. a deletion with no surface node.
	ErrInconsistentTree = errors.New("fiber: inconsistent tree")

	// ErrCommitFailed is returned when the surface rejects a mutation during
	// commit. The Root keeps its committed tree and remounts it on the next
	// render.
	ErrCommitFailed = errors.New("fiber: commit failed")

	// ErrSuperseded is reported for a generation discarded by a newer render.
	ErrSuperseded = errors.New("fiber: render superseded")
)

// Phase names the render phase an error occurred in.
type Phase string

const (
	PhaseBuild  Phase = "build"
	PhaseCommit Phase = "commit"
)

// RenderError wraps a failure with the generation and fiber it hit.
type RenderError struct {
	Root       string
	Generation uint64
	Phase      Phase
	Type       element.Type // Type of the fiber being processed, if any
	Err        error
}

// Error returns the error message with render context.
func (e *RenderError) Error() string {
	if e.Type.IsZero() {
		return fmt.Sprintf("fiber: %s gen %d: %s: %v", e.Root, e.Generation, e.Phase, e.Err)
	}
	return fmt.Sprintf("fiber: %s gen %d: %s %s: %v", e.Root, e.Generation, e.Phase, e.Type, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *RenderError) Unwrap() error {
	return e.Err
}
