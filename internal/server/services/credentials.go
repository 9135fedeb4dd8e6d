package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/videotube/internal/common"
	"github.com/dmitrijs2005/videotube/internal/cryptox"
	"github.com/dmitrijs2005/videotube/internal/server/models"
	"github.com/dmitrijs2005/videotube/internal/server/repositories/users"
)

// CredentialVerifier checks an identifier/password pair against the stored
// password hash. It never writes.
type CredentialVerifier struct {
	users  users.Repository
	hasher cryptox.PasswordHasher
}

func NewCredentialVerifier(repo users.Repository, hasher cryptox.PasswordHasher) *CredentialVerifier {
	return &CredentialVerifier{users: repo, hasher: hasher}
}

// VerifyCredentials returns the account whose username or email equals
// identifier (case-insensitively) if password matches its hash.
//
// Errors: common.ErrMissingInput for a blank identifier (the store is not
// consulted), common.ErrorNotFound, common.ErrInvalidCredentials, or
// common.ErrStoreUnavailable.
func (v *CredentialVerifier) VerifyCredentials(ctx context.Context, identifier, password string) (*models.User, error) {
	identifier = models.NormalizeIdentifier(identifier)
	if identifier == "" {
		return nil, fmt.Errorf("%w: username or email is required", common.ErrMissingInput)
	}

	user, err := v.users.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		return nil, storeError("find user", err)
	}

	// An unreadable stored hash can never match, so it counts as a mismatch.
	ok, err := v.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidCredentials, err)
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	return user, nil
}
