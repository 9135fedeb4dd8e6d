package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/videotube/internal/common"
	"github.com/dmitrijs2005/videotube/internal/cryptox"
	"github.com/dmitrijs2005/videotube/internal/server/models"
	"github.com/dmitrijs2005/videotube/internal/server/repositories/users"
)

type RegisterInput struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	Avatar     string
	CoverImage string
}

// AccountService manages account records: registration, profile and
// password changes.
type AccountService struct {
	users  users.Repository
	hasher cryptox.PasswordHasher
}

func NewAccountService(repo users.Repository, hasher cryptox.PasswordHasher) *AccountService {
	return &AccountService{users: repo, hasher: hasher}
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.PublicUser, error) {
	user := &models.User{
		Username:   models.NormalizeIdentifier(in.Username),
		Email:      models.NormalizeIdentifier(in.Email),
		FullName:   strings.TrimSpace(in.FullName),
		Avatar:     strings.TrimSpace(in.Avatar),
		CoverImage: strings.TrimSpace(in.CoverImage),
	}
	if user.Username == "" || user.Email == "" || user.FullName == "" || strings.TrimSpace(in.Password) == "" {
		return nil, fmt.Errorf("%w: username, email, fullname and password are required", common.ErrMissingInput)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, storeError("create user", err)
	}

	return created.Public(), nil
}

func (s *AccountService) CurrentUser(ctx context.Context, userID string) (*models.PublicUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeError("find user", err)
	}
	return user.Public(), nil
}

// ChangePassword replaces the password hash after checking the old
// password. The current session stays valid.
func (s *AccountService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return fmt.Errorf("%w: passwords do not match", common.ErrInvalidInput)
	}
	if strings.TrimSpace(newPassword) == "" {
		return fmt.Errorf("%w: new password is required", common.ErrMissingInput)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return storeError("find user", err)
	}

	ok, err := s.hasher.Compare(user.PasswordHash, oldPassword)
	if err != nil || !ok {
		return fmt.Errorf("%w: old password is wrong", common.ErrInvalidCredentials)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return storeError("update password", err)
	}
	return nil
}

// UpdateAccount changes the provided profile fields. Blank fields count as
// not provided; at least one must remain. The password hash is untouched.
func (s *AccountService) UpdateAccount(ctx context.Context, userID string, upd models.AccountUpdate) (*models.PublicUser, error) {
	clean := models.AccountUpdate{
		Username: normalized(upd.Username, models.NormalizeIdentifier),
		Email:    normalized(upd.Email, models.NormalizeIdentifier),
		FullName: normalized(upd.FullName, strings.TrimSpace),
	}
	if clean.Empty() {
		return nil, fmt.Errorf("%w: username, email or fullname is required", common.ErrMissingInput)
	}

	user, err := s.users.UpdateAccount(ctx, userID, clean)
	if err != nil {
		return nil, storeError("update account", err)
	}
	return user.Public(), nil
}

func normalized(p *string, fn func(string) string) *string {
	if p == nil {
		return nil
	}
	v := fn(*p)
	if v == "" {
		return nil
	}
	return &v
}
