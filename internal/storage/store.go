// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/AbdoViper23/halaqa-Save/internal/models"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrGroupFull        = errors.New("group is full")
	ErrGroupNotOpen     = errors.New("group is not accepting members")
	ErrSlotTaken        = errors.New("preferred slot not available")
	ErrAlreadyMember    = errors.New("user already holds a slot in this group")
	ErrNotMember        = errors.New("user is not a member of this group")
	ErrDuplicatePayment = errors.New("payment for this cycle already recorded")
	ErrInvalidCycle     = errors.New("cycle number out of range")
)

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateUser persists a new user. The user ID must already be set.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns nil, nil when no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns nil, nil when the user does not exist.
	// JoinedGroups is populated from memberships.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// CreateGroup persists a new group with every slot free.
	// The group.ID, Status, CreatedAt and AvailableSlots fields are populated by the store.
	CreateGroup(ctx context.Context, group *models.RemoteGroup) error

	// GetGroup retrieves a group by ID. Returns ErrNotFound if it does not exist.
	GetGroup(ctx context.Context, groupID string) (*models.RemoteGroup, error)

	// ListAvailableGroups returns Pending groups with at least one free slot.
	ListAvailableGroups(ctx context.Context) ([]*models.RemoteGroup, error)

	// ListGroupsByStatus returns every group in the given state.
	ListGroupsByStatus(ctx context.Context, status models.GroupStatus) ([]*models.RemoteGroup, error)

	// ListUserGroups returns the groups the user holds a slot in.
	ListUserGroups(ctx context.Context, userID string) ([]*models.RemoteGroup, error)

	// JoinGroup atomically assigns a slot to the user.
	// A nil preferredSlot takes the lowest free slot.
	JoinGroup(ctx context.Context, groupID, userID string, preferredSlot *int) (*models.Membership, error)

	// ListMemberships returns the memberships of a group ordered by slot.
	ListMemberships(ctx context.Context, groupID string) ([]*models.Membership, error)

	// CreatePayment records a paid contribution for the member's cycle.
	CreatePayment(ctx context.Context, payment *models.CyclePayment) error

	// ListPayments returns a member's payments in a group ordered by cycle.
	ListPayments(ctx context.Context, groupID, userID string) ([]*models.CyclePayment, error)

	// AdvanceCycle closes the current cycle of a group and opens the next one.
	// Full groups start at cycle 1; the last cycle completes the group.
	AdvanceCycle(ctx context.Context, groupID string) (*models.RemoteGroup, error)

	// Close releases any resources held by the store.
	Close() error
}
