package claims

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidTransition marks a rejected lifecycle transition. Use errors.Is
// against this sentinel; the concrete error carries the attempted event.
var ErrInvalidTransition = errors.New("invalid claim transition")

// ErrMissingRequiredField marks input the business logic cannot default.
var ErrMissingRequiredField = errors.New("missing required field")

// InvalidTransitionError reports a transition attempted from the wrong
// source state, including a concurrent status change detected at write time.
type InvalidTransitionError struct {
	ClaimID uuid.UUID
	From    ClaimStatus
	Event   Event
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("claim %s: cannot %s from status %q", e.ClaimID, e.Event, e.From)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}
