// Package models holds the server-side account records.
package models

import (
	"strings"
	"time"
)

// User is an account record as kept by the store.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	Avatar       string
	CoverImage   string
	PasswordHash string
	// RefreshToken is the one refresh token currently honoured for this
	// account. Empty means no active session.
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the projection of User handed to callers. It never carries
// the password hash or the refresh token.
type PublicUser struct {
	ID         string    `json:"_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullname"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// AccountUpdate lists the profile fields to change. Nil fields are left as
// they are.
type AccountUpdate struct {
	Username *string
	Email    *string
	FullName *string
}

func (u AccountUpdate) Empty() bool {
	return u.Username == nil && u.Email == nil && u.FullName == nil
}

// NormalizeIdentifier is applied to usernames and emails on write and on
// lookup, so matching is case-insensitive.
func NormalizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// LoginIdentifiers returns the normalised, non-blank identifiers a login
// request carries, username first. A login matches the account on either.
func LoginIdentifiers(username, email string) []string {
	var out []string
	for _, s := range []string{username, email} {
		if s = NormalizeIdentifier(s); s != "" && (len(out) == 0 || out[0] != s) {
			out = append(out, s)
		}
	}
	return out
}
