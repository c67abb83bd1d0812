package groups

import (
	"context"
	"fmt"

	"github.com/AbdoViper23/halaqa-Save/internal/models"
)

// Repository is the authoritative savings ledger.
//
// Unreachable-ledger failures, including timeouts, wrap
// allocation.ErrRepositoryUnavailable. A join the ledger refuses is returned as
// *allocation.JoinError; a missing group as allocation.ErrGroupNotFound.
type Repository interface {
	ListAvailableGroups(ctx context.Context) ([]models.RemoteGroup, error)
	GetGroup(ctx context.Context, groupID string) (*models.RemoteGroup, error)

	// GroupMemberships returns who holds which slot.
	GroupMemberships(ctx context.Context, groupID string) ([]models.Membership, error)

	// CreateGroup returns *CreationError when the ledger rejects the spec.
	CreateGroup(ctx context.Context, spec models.GroupSpec) (*models.RemoteGroup, error)

	// JoinGroup claims a slot for the caller. A nil preferredSlot lets the
	// ledger pick one.
	JoinGroup(ctx context.Context, groupID string, preferredSlot *int) (*models.Membership, error)

	// CurrentUser returns nil when the caller is anonymous.
	CurrentUser(ctx context.Context) (*models.User, error)
}

// CreationError is a group creation the ledger or the local checks refused.
type CreationError struct {
	Reason string
	Err    error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("create group: %s", e.Reason)
}

func (e *CreationError) Unwrap() error {
	return e.Err
}
