package machine

import (
	"errors"
	"fmt"

	"github.com/roach88/notelog/internal/ir"
)

// ErrIdentityMismatch is returned when an event addresses an identity other
// than the machine's own.
var ErrIdentityMismatch = errors.New("event addressed to another annotation")

// ErrInvalidTool is returned when selecting a tool value outside the enum.
var ErrInvalidTool = errors.New("invalid tool")

// InvalidTransitionError reports an event that the current state does not accept.
//
// It is a local, non-fatal result: callers typically log it and treat the
// user action as a no-op.
type InvalidTransitionError struct {
	State ir.State
	Event ir.EventKind
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: state %s does not accept %s", e.State, e.Event)
}

// IsInvalidTransition returns true if err is or wraps an *InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}
