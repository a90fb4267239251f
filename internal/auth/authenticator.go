package auth

import (
	"context"

	"github.com/mmynk/shopcredit/internal/models"
)

// Authenticator registers and verifies parties. Implementations differ in
// the credential they accept.
type Authenticator interface {
	// Register creates a party with the given role. The credential format
	// depends on the implementation.
	Register(ctx context.Context, email, displayName, credential string, role models.Role) (*models.Party, error)

	// Authenticate verifies the credentials and returns the party.
	Authenticate(ctx context.Context, email, credential string) (*models.Party, error)

	// ValidateCredential checks the credential against the implementation's rules.
	ValidateCredential(credential string) error
}
