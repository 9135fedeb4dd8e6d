package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/videotube/internal/common"
	"github.com/dmitrijs2005/videotube/internal/server/auth"
	"github.com/dmitrijs2005/videotube/internal/server/config"
	"github.com/dmitrijs2005/videotube/internal/server/models"
	"github.com/dmitrijs2005/videotube/internal/server/repositories/users"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SessionManager issues, verifies, rotates and revokes token pairs.
//
// An account has at most one session: the refresh token persisted on the
// user record. Issuing overwrites it, Revoke clears it, and only a refresh
// token equal to the persisted one can be exchanged. Refresh and Revoke on
// the same account are not serialised beyond the store's single-record
// atomicity, so the last write wins.
type SessionManager struct {
	users                        users.Repository
	accessSecret                 []byte
	refreshSecret                []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	now                          func() time.Time
}

func NewSessionManager(repo users.Repository, cfg *config.Config) *SessionManager {
	return &SessionManager{
		users:                        repo,
		accessSecret:                 []byte(cfg.AccessTokenSecret),
		refreshSecret:                []byte(cfg.RefreshTokenSecret),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		now:                          time.Now,
	}
}

// Issue mints a fresh pair for user and persists the refresh token on the
// account, replacing any previous one. Only that field is written.
func (s *SessionManager) Issue(ctx context.Context, user *models.User) (*TokenPair, error) {
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("%w: user is required", common.ErrMissingInput)
	}

	now := s.now()

	access, err := auth.GenerateAccessToken(user, s.accessSecret, s.accessTokenValidityDuration, now)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := auth.GenerateRefreshToken(user.ID, s.refreshSecret, s.refreshTokenValidityDuration, now)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := s.users.UpdateRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, storeError("persist refresh token", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess checks the access token and resolves it to the live account.
// Every failure other than a store outage is common.ErrUnauthenticated.
func (s *SessionManager) VerifyAccess(ctx context.Context, token string) (*models.PublicUser, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", common.ErrUnauthenticated)
	}

	claims, err := auth.ParseAccessToken(token, s.accessSecret, s.now())
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", common.ErrUnauthenticated)
		}
		return nil, storeError("find user", err)
	}

	return user.Public(), nil
}

// Refresh exchanges the persisted refresh token for a new pair. A token that
// verifies but is not the one on record (rotated out or revoked) yields
// common.ErrRefreshTokenExpired.
func (s *SessionManager) Refresh(ctx context.Context, token string) (*TokenPair, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing refresh token", common.ErrUnauthenticated)
	}

	claims, err := auth.ParseRefreshToken(token, s.refreshSecret, s.now())
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, storeError("find user", err)
	}

	if user.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(token)) != 1 {
		return nil, common.ErrRefreshTokenExpired
	}

	return s.Issue(ctx, user)
}

// Revoke ends the account's session. Revoking twice, or revoking an account
// that no longer exists, succeeds.
func (s *SessionManager) Revoke(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", common.ErrMissingInput)
	}

	if err := s.users.ClearRefreshToken(ctx, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return storeError("clear refresh token", err)
	}
	return nil
}
