// Package allocation implements the slot allocation core of a savings group:
// building the slot table from a ledger record, deriving the display status and
// applying a join to the slot table.
//
// Everything in this package is pure. Committing a join against the ledger and
// reconciling the result lives in package groups.
package allocation

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidGroupDimensions = errors.New("group capacity and duration must be positive")
	ErrUnknownLifecycleState  = errors.New("unknown group lifecycle state")
	ErrGroupNotJoinable       = errors.New("group is not accepting members")
	ErrSlotUnavailable        = errors.New("slot is not available")
	ErrAlreadyMember          = errors.New("already a member of this group")
	ErrRepositoryUnavailable  = errors.New("ledger unavailable")
	ErrJoinInFlight           = errors.New("a join for this group is already in progress")
	ErrGroupNotFound          = errors.New("group not found")
)

// JoinError is a join rejected by the ledger. Reason is the ledger's own text.
// Err, when set, is the sentinel the rejection corresponds to so callers can
// use errors.Is regardless of where the rejection happened.
type JoinError struct {
	Reason string
	Err    error
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("join rejected: %s", e.Reason)
}

func (e *JoinError) Unwrap() error {
	return e.Err
}

// Expected reports whether err is a normal-operation rejection caused by
// racing joiners. These are not logged as failures.
func Expected(err error) bool {
	return errors.Is(err, ErrAlreadyMember) || errors.Is(err, ErrSlotUnavailable)
}

// Message maps an allocation error to a short text for the presentation layer.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAlreadyMember):
		return "You already hold a slot in this group."
	case errors.Is(err, ErrSlotUnavailable):
		return "That slot was just taken. Pick another one."
	case errors.Is(err, ErrGroupNotJoinable):
		return "This group is no longer accepting members."
	case errors.Is(err, ErrJoinInFlight):
		return "Your previous join request is still being processed."
	case errors.Is(err, ErrGroupNotFound):
		return "This group does not exist."
	case errors.Is(err, ErrRepositoryUnavailable):
		return "The savings ledger is unreachable. Please try again."
	case errors.Is(err, ErrInvalidGroupDimensions):
		return "Group size and duration must be positive."
	case errors.Is(err, ErrUnknownLifecycleState):
		return "This group has an unrecognized status."
	}
	var je *JoinError
	if errors.As(err, &je) {
		return je.Reason
	}
	return "Something went wrong."
}
