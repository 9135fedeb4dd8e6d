package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/videotube/internal/common"
	"github.com/dmitrijs2005/videotube/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps accounts in a map guarded by a mutex. Records are
// copied in and out, so callers never share state with the store.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users: make(map[string]models.User),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) taken(username, email, exceptID string) bool {
	for id, u := range r.users {
		if id == exceptID {
			continue
		}
		if u.Username == username || u.Email == email {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.taken(user.Username, user.Email, "") {
		return nil, common.ErrAlreadyExists
	}

	now := r.now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.RefreshToken = ""
	r.users[user.ID] = *user

	return user, nil
}

func (r *MemoryRepository) FindByUsernameOrEmail(_ context.Context, identifier string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == identifier || u.Email == identifier {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *MemoryRepository) update(id string, fn func(u *models.User) error) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if err := fn(&u); err != nil {
		return nil, err
	}
	u.UpdatedAt = r.now()
	r.users[id] = u

	return &u, nil
}

func (r *MemoryRepository) UpdateRefreshToken(_ context.Context, id, token string) error {
	_, err := r.update(id, func(u *models.User) error {
		u.RefreshToken = token
		return nil
	})
	return err
}

func (r *MemoryRepository) ClearRefreshToken(_ context.Context, id string) error {
	_, err := r.update(id, func(u *models.User) error {
		u.RefreshToken = ""
		return nil
	})
	return err
}

func (r *MemoryRepository) UpdatePasswordHash(_ context.Context, id, hash string) error {
	_, err := r.update(id, func(u *models.User) error {
		u.PasswordHash = hash
		return nil
	})
	return err
}

func (r *MemoryRepository) UpdateAccount(_ context.Context, id string, upd models.AccountUpdate) (*models.User, error) {
	return r.update(id, func(u *models.User) error {
		next := *u
		if upd.Username != nil {
			next.Username = *upd.Username
		}
		if upd.Email != nil {
			next.Email = *upd.Email
		}
		if upd.FullName != nil {
			next.FullName = *upd.FullName
		}
		if r.taken(next.Username, next.Email, id) {
			return common.ErrAlreadyExists
		}
		*u = next
		return nil
	})
}
