package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dmitrijs2005/videotube/internal/common"
	"github.com/dmitrijs2005/videotube/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	pub, err := f.svc.Register(ctx, RegisterInput{
		Username: " Alice ", Email: "Alice@Example.com", FullName: " Alice A ", Password: "S3cret!", Avatar: "http://img/a",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", pub.Username)
	assert.Equal(t, "alice@example.com", pub.Email)
	assert.Equal(t, "Alice A", pub.FullName)

	stored, err := f.repo.FindByID(ctx, pub.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "S3cret!", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
	assert.Empty(t, stored.RefreshToken)

	b, err := json.Marshal(pub)
	require.NoError(t, err)
	assert.NotContains(t, string(b), stored.PasswordHash)
	assert.NotContains(t, string(b), "S3cret!")
}

func TestRegister_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "alice", "alice@x.io", "pw")

	missing := []RegisterInput{
		{Email: "a@x.io", FullName: "A", Password: "pw"},
		{Username: "a", FullName: "A", Password: "pw"},
		{Username: "a", Email: "a@x.io", Password: "pw"},
		{Username: "a", Email: "a@x.io", FullName: "A", Password: "  "},
	}
	for _, in := range missing {
		_, err := f.svc.Register(ctx, in)
		assert.ErrorIs(t, err, common.ErrMissingInput, "%+v", in)
	}

	_, err := f.svc.Register(ctx, RegisterInput{Username: "ALICE", Email: "new@x.io", FullName: "A", Password: "pw"})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	_, err = f.svc.Register(ctx, RegisterInput{Username: "new", Email: "alice@x.io", FullName: "A", Password: "pw"})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	f.repo.failAll = errBoom
	_, err = f.svc.Register(ctx, RegisterInput{Username: "n", Email: "n@x.io", FullName: "N", Password: "pw"})
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestPasswordLongerThanBcryptLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	long := strings.Repeat("a", 73)

	_, err := f.svc.Register(ctx, RegisterInput{Username: "bob", Email: "bob@x.io", FullName: "Bob", Password: long})
	require.Error(t, err)
	assert.Equal(t, common.KindInvalidInput, common.KindOf(err))
	_, err = f.repo.FindByUsernameOrEmail(ctx, "bob")
	assert.ErrorIs(t, err, common.ErrorNotFound, "nothing is stored")

	pub := f.register(t, "alice", "alice@x.io", "old-pw")
	err = f.svc.ChangePassword(ctx, pub.ID, "old-pw", long, long)
	require.Error(t, err)
	assert.Equal(t, common.KindInvalidInput, common.KindOf(err))

	_, _, err = f.svc.Login(ctx, "alice", "old-pw")
	assert.NoError(t, err, "the old password still works")
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pub := f.register(t, "alice", "alice@x.io", "old-pw")
	_, pair, err := f.svc.Login(ctx, "alice", "old-pw")
	require.NoError(t, err)

	err = f.svc.ChangePassword(ctx, pub.ID, "old-pw", "new-pw", "other")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	err = f.svc.ChangePassword(ctx, pub.ID, "old-pw", "", "")
	assert.ErrorIs(t, err, common.ErrMissingInput)

	err = f.svc.ChangePassword(ctx, pub.ID, "wrong", "new-pw", "new-pw")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)

	err = f.svc.ChangePassword(ctx, "ghost", "old-pw", "new-pw", "new-pw")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, f.svc.ChangePassword(ctx, pub.ID, "old-pw", "new-pw", "new-pw"))

	_, _, err = f.svc.Login(ctx, "alice", "old-pw")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)

	// the session opened before the change survives it
	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.NoError(t, err)

	_, _, err = f.svc.Login(ctx, "alice", "new-pw")
	assert.NoError(t, err)
}

func TestUpdateAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pub := f.register(t, "alice", "alice@x.io", "pw")
	f.register(t, "bob", "bob@x.io", "pw")

	before, err := f.repo.FindByID(ctx, pub.ID)
	require.NoError(t, err)

	blank := "  "
	_, err = f.svc.UpdateAccount(ctx, pub.ID, models.AccountUpdate{})
	assert.ErrorIs(t, err, common.ErrMissingInput)
	_, err = f.svc.UpdateAccount(ctx, pub.ID, models.AccountUpdate{FullName: &blank})
	assert.ErrorIs(t, err, common.ErrMissingInput)

	name, email := " Alice Liddell ", "ALICE@wonder.land"
	got, err := f.svc.UpdateAccount(ctx, pub.ID, models.AccountUpdate{FullName: &name, Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", got.FullName)
	assert.Equal(t, "alice@wonder.land", got.Email)
	assert.Equal(t, "alice", got.Username)

	after, err := f.repo.FindByID(ctx, pub.ID)
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)

	taken := "Bob"
	_, err = f.svc.UpdateAccount(ctx, pub.ID, models.AccountUpdate{Username: &taken})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	_, err = f.svc.UpdateAccount(ctx, "ghost", models.AccountUpdate{FullName: &name})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCurrentUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pub := f.register(t, "alice", "alice@x.io", "pw")

	got, err := f.svc.CurrentUser(ctx, pub.ID)
	require.NoError(t, err)
	assert.Equal(t, pub.ID, got.ID)

	_, err = f.svc.CurrentUser(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
