// Package auth identifies ledger members: password accounts and the JWTs that
// carry a member ID on every authenticated call.
package auth

import (
	"context"

	"github.com/AbdoViper23/halaqa-Save/internal/models"
)

// Authenticator registers and verifies members.
// Implementations may use passwords, passkeys or an external identity provider.
type Authenticator interface {
	// Register creates a new member with the given email and credential.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the credential and returns the member if it matches.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks the credential before it is stored.
	ValidateCredential(credential string) error
}
