package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/AbdoViper23/halaqa-Save/internal/auth"
	"github.com/AbdoViper23/halaqa-Save/internal/storage"
)

// toConnectError maps ledger errors to Connect codes. Clients rely on the codes
// to tell racing-join rejections apart from real failures.
func toConnectError(err error) *connect.Error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrAlreadyMember):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, storage.ErrSlotTaken):
		return connect.NewError(connect.CodeAborted, err)
	case errors.Is(err, storage.ErrGroupFull), errors.Is(err, storage.ErrGroupNotOpen):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, storage.ErrNotMember):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, storage.ErrDuplicatePayment):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, storage.ErrInvalidCycle):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return connect.NewError(connect.CodeUnauthenticated, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// joinOutcome is the metrics label for a join result.
func joinOutcome(err error) string {
	switch {
	case err == nil:
		return "joined"
	case errors.Is(err, storage.ErrAlreadyMember):
		return "already_member"
	case errors.Is(err, storage.ErrSlotTaken):
		return "slot_taken"
	case errors.Is(err, storage.ErrGroupFull):
		return "group_full"
	case errors.Is(err, storage.ErrGroupNotOpen):
		return "not_open"
	case errors.Is(err, storage.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func invalidArgument(err error) *connect.Error {
	return connect.NewError(connect.CodeInvalidArgument, err)
}

// raced reports whether a join lost to a concurrent joiner or repeated an
// earlier one. Neither is a failure.
func raced(err error) bool {
	return errors.Is(err, storage.ErrAlreadyMember) || errors.Is(err, storage.ErrSlotTaken)
}
