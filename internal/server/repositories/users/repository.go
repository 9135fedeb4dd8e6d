// Package users stores account records. Every backend offers atomic
// single-record updates and enforces unique usernames and emails.
package users

import (
	"context"

	"github.com/dmitrijs2005/videotube/internal/server/models"
)

// Repository is the account store.
//
// Lookups return common.ErrorNotFound when nothing matches (including a
// malformed id); creates and profile updates return common.ErrAlreadyExists
// when a username or email is taken. Any other error means the store itself
// failed.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	// UpdateRefreshToken replaces the persisted refresh token and nothing else.
	UpdateRefreshToken(ctx context.Context, id, token string) error
	ClearRefreshToken(ctx context.Context, id string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	UpdateAccount(ctx context.Context, id string, upd models.AccountUpdate) (*models.User, error)
}
