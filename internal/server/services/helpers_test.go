package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/videotube/internal/cryptox"
	"github.com/dmitrijs2005/videotube/internal/logging"
	"github.com/dmitrijs2005/videotube/internal/server/config"
	"github.com/dmitrijs2005/videotube/internal/server/models"
	usersrepo "github.com/dmitrijs2005/videotube/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var errBoom = errors.New("db error: connection refused")

func testConfig() *config.Config {
	return &config.Config{
		AccessTokenSecret:            "access-secret",
		RefreshTokenSecret:           "refresh-secret",
		AccessTokenValidityDuration:  15 * time.Minute,
		RefreshTokenValidityDuration: 24 * time.Hour,
	}
}

func testHasher(t *testing.T) *cryptox.Hasher {
	t.Helper()
	h, err := cryptox.NewHasher(cryptox.AlgorithmBcrypt, cryptox.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	return h
}

// spyRepository wraps a working repository, counts calls and lets tests
// inject failures or run code between a lookup and its return.
type spyRepository struct {
	*usersrepo.MemoryRepository

	mu          sync.Mutex
	calls       int
	failAll     error
	afterFindID func()
}

func newSpyRepository() *spyRepository {
	return &spyRepository{MemoryRepository: usersrepo.NewMemoryRepository()}
}

func (s *spyRepository) hit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.failAll
}

func (s *spyRepository) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *spyRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if err := s.hit(); err != nil {
		return nil, err
	}
	return s.MemoryRepository.Create(ctx, u)
}

func (s *spyRepository) FindByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error) {
	if err := s.hit(); err != nil {
		return nil, err
	}
	return s.MemoryRepository.FindByUsernameOrEmail(ctx, identifier)
}

func (s *spyRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if err := s.hit(); err != nil {
		return nil, err
	}
	u, err := s.MemoryRepository.FindByID(ctx, id)
	if s.afterFindID != nil {
		hook := s.afterFindID
		s.afterFindID = nil
		hook()
	}
	return u, err
}

func (s *spyRepository) UpdateRefreshToken(ctx context.Context, id, token string) error {
	if err := s.hit(); err != nil {
		return err
	}
	return s.MemoryRepository.UpdateRefreshToken(ctx, id, token)
}

func (s *spyRepository) ClearRefreshToken(ctx context.Context, id string) error {
	if err := s.hit(); err != nil {
		return err
	}
	return s.MemoryRepository.ClearRefreshToken(ctx, id)
}

func (s *spyRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	if err := s.hit(); err != nil {
		return err
	}
	return s.MemoryRepository.UpdatePasswordHash(ctx, id, hash)
}

func (s *spyRepository) UpdateAccount(ctx context.Context, id string, upd models.AccountUpdate) (*models.User, error) {
	if err := s.hit(); err != nil {
		return nil, err
	}
	return s.MemoryRepository.UpdateAccount(ctx, id, upd)
}

type recordedCall struct {
	op, result string
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (r *fakeRecorder) Observe(op, result string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedCall{op, result})
}

type fixture struct {
	repo     *spyRepository
	hasher   *cryptox.Hasher
	svc      *UserService
	recorder *fakeRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newSpyRepository()
	h := testHasher(t)
	rec := &fakeRecorder{}
	return &fixture{
		repo:     repo,
		hasher:   h,
		recorder: rec,
		svc:      NewUserService(repo, h, testConfig(), rec, logging.Nop()),
	}
}

func (f *fixture) register(t *testing.T, username, email, password string) *models.PublicUser {
	t.Helper()
	u, err := f.svc.Register(context.Background(), RegisterInput{
		Username: username, Email: email, FullName: "Full " + username, Password: password, Avatar: "http://img/" + username,
	})
	require.NoError(t, err)
	return u
}
