package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered user account.
// Every group member is a User; the User ID is the member ID stored on slots.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the user's email address (unique).
	// Used for login.
	Email string

	// DisplayName is the name shown to other members.
	DisplayName string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// IsActive is false for suspended accounts.
	IsActive bool

	// CreatedAt is the Unix timestamp when the user account was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last profile change.
	UpdatedAt int64

	// JoinedGroups lists the IDs of groups the user holds a slot in.
	// Derived from memberships; not stored on the user row.
	JoinedGroups []string
}

// NewUser creates an active user with a fresh ID and timestamps.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
