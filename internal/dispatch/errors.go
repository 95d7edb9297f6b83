package dispatch

import (
	"errors"
	"fmt"
)

// Kind classifies a dispatch failure. Every error surfaced by the engine
// carries exactly one kind; callers branch on it with errors.As + Error.Kind.
type Kind string

const (
	// KindUnknownTool — the tool name is not present in the registry.
	KindUnknownTool Kind = "unknown_tool"
	// KindInputValidationFailed — arguments failed the tool's input schema.
	KindInputValidationFailed Kind = "input_validation_failed"
	// KindHandlerError — the handler returned an error or produced no result.
	KindHandlerError Kind = "handler_error"
	// KindOutputValidationFailed — the handler result failed the output schema.
	KindOutputValidationFailed Kind = "output_validation_failed"
	// KindLoadError — the tool contract resource is missing or malformed.
	KindLoadError Kind = "load_error"
)

// ErrResourceMissing signals that the tool contract resource was found at
// neither the primary nor the secondary location. Distinct from a parse
// failure so callers can tell absence from corruption.
var ErrResourceMissing = errors.New("tool contract resource not found")

// Error is the single error value reported for any dispatch failure.
type Error struct {
	Kind Kind
	Tool string
	Msg  string
	Err  error // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Tool, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a dispatch Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == kind
}
