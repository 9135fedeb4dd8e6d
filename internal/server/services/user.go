// Package services contains server-side business logic: credential
// verification, the session token lifecycle and account management.
// UserService is the entry point the transports call.
package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/videotube/internal/common"
	"github.com/dmitrijs2005/videotube/internal/cryptox"
	"github.com/dmitrijs2005/videotube/internal/logging"
	"github.com/dmitrijs2005/videotube/internal/server/config"
	"github.com/dmitrijs2005/videotube/internal/server/models"
	"github.com/dmitrijs2005/videotube/internal/server/repositories/users"
)

// Recorder receives the outcome of every UserService call. result is
// "ok" or the error kind name.
type Recorder interface {
	Observe(operation, result string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) Observe(string, string, time.Duration) {}

// UserService combines the credential verifier, session manager and account
// service behind the operations exposed over HTTP and gRPC.
type UserService struct {
	verifier *CredentialVerifier
	sessions *SessionManager
	accounts *AccountService
	recorder Recorder
	logger   logging.Logger
}

// NewUserService constructs a UserService over repo. A nil recorder
// disables instrumentation.
func NewUserService(repo users.Repository, hasher cryptox.PasswordHasher, cfg *config.Config, recorder Recorder, logger logging.Logger) *UserService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &UserService{
		verifier: NewCredentialVerifier(repo, hasher),
		sessions: NewSessionManager(repo, cfg),
		accounts: NewAccountService(repo, hasher),
		recorder: recorder,
		logger:   logger.With("module", "user_service"),
	}
}

func (s *UserService) observe(ctx context.Context, op string, start time.Time, err error) {
	kind := common.KindOf(err)
	s.recorder.Observe(op, kind.String(), time.Since(start))

	switch kind {
	case common.KindNone:
	case common.KindStoreUnavailable, common.KindUnknown:
		s.logger.Error(ctx, "operation failed", "op", op, "kind", kind.String(), "error", err)
	default:
		s.logger.Debug(ctx, "operation rejected", "op", op, "kind", kind.String(), "error", err)
	}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (user *models.PublicUser, err error) {
	defer func(start time.Time) { s.observe(ctx, "register", start, err) }(time.Now())
	return s.accounts.Register(ctx, in)
}

// Login verifies the credentials and opens a session.
func (s *UserService) Login(ctx context.Context, identifier, password string) (user *models.PublicUser, pair *TokenPair, err error) {
	defer func(start time.Time) { s.observe(ctx, "login", start, err) }(time.Now())

	u, err := s.verifier.VerifyCredentials(ctx, identifier, password)
	if err != nil {
		return nil, nil, err
	}
	pair, err = s.sessions.Issue(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return u.Public(), pair, nil
}

func (s *UserService) Authenticate(ctx context.Context, accessToken string) (user *models.PublicUser, err error) {
	defer func(start time.Time) { s.observe(ctx, "verify_access", start, err) }(time.Now())
	return s.sessions.VerifyAccess(ctx, accessToken)
}

func (s *UserService) Refresh(ctx context.Context, refreshToken string) (pair *TokenPair, err error) {
	defer func(start time.Time) { s.observe(ctx, "refresh", start, err) }(time.Now())
	return s.sessions.Refresh(ctx, refreshToken)
}

func (s *UserService) Logout(ctx context.Context, userID string) (err error) {
	defer func(start time.Time) { s.observe(ctx, "logout", start, err) }(time.Now())
	return s.sessions.Revoke(ctx, userID)
}

func (s *UserService) CurrentUser(ctx context.Context, userID string) (user *models.PublicUser, err error) {
	defer func(start time.Time) { s.observe(ctx, "current_user", start, err) }(time.Now())
	return s.accounts.CurrentUser(ctx, userID)
}

func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) (err error) {
	defer func(start time.Time) { s.observe(ctx, "change_password", start, err) }(time.Now())
	return s.accounts.ChangePassword(ctx, userID, oldPassword, newPassword, confirmPassword)
}

func (s *UserService) UpdateAccount(ctx context.Context, userID string, upd models.AccountUpdate) (user *models.PublicUser, err error) {
	defer func(start time.Time) { s.observe(ctx, "update_account", start, err) }(time.Now())
	return s.accounts.UpdateAccount(ctx, userID, upd)
}
