package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/videotube/internal/common"
	"github.com/dmitrijs2005/videotube/internal/server/models"
)

// Loginer is satisfied by UserService and by the transports' views of it.
type Loginer interface {
	Login(ctx context.Context, identifier, password string) (*models.PublicUser, *TokenPair, error)
}

// LoginAny logs in with the first identifier that names an account. The
// next identifier is tried only when the previous one matched no account,
// so a wrong password is never retried.
func LoginAny(ctx context.Context, l Loginer, identifiers []string, password string) (*models.PublicUser, *TokenPair, error) {
	if len(identifiers) == 0 {
		return l.Login(ctx, "", password)
	}

	var err error
	for _, id := range identifiers {
		var (
			user *models.PublicUser
			pair *TokenPair
		)
		user, pair, err = l.Login(ctx, id, password)
		if !errors.Is(err, common.ErrorNotFound) {
			return user, pair, err
		}
	}
	return nil, nil, err
}
