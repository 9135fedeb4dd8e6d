package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/videotube/internal/common"
	"github.com/dmitrijs2005/videotube/internal/logging"
	"github.com/dmitrijs2005/videotube/internal/server/models"
	"github.com/sony/gobreaker"
)

// BreakerSettings configures BreakerRepository.
type BreakerSettings struct {
	// MaxFailures consecutive store failures open the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before letting a probe through.
	OpenTimeout time.Duration
}

// BreakerRepository guards a Repository with a circuit breaker. While the
// breaker is open every call fails fast with common.ErrStoreUnavailable.
// Lookups that find nothing and uniqueness conflicts are answers, not
// failures, and never trip it.
type BreakerRepository struct {
	next Repository
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerRepository(next Repository, s BreakerSettings, logger logging.Logger) *BreakerRepository {
	if s.MaxFailures == 0 {
		s.MaxFailures = 5
	}
	log := logger.With("module", "store_breaker")

	st := gobreaker.Settings{
		Name:        "users-store",
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, common.ErrorNotFound) ||
				errors.Is(err, common.ErrAlreadyExists) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn(context.Background(), "circuit breaker state", "name", name, "from", from.String(), "to", to.String())
		},
	}

	return &BreakerRepository{next: next, cb: gobreaker.NewCircuitBreaker(st)}
}

func (b *BreakerRepository) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerRepository) call(fn func() (any, error)) (any, error) {
	res, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	return res, err
}

func (b *BreakerRepository) user(fn func() (*models.User, error)) (*models.User, error) {
	res, err := b.call(func() (any, error) { return fn() })
	if err != nil {
		return nil, err
	}
	return res.(*models.User), nil
}

func (b *BreakerRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	return b.user(func() (*models.User, error) { return b.next.Create(ctx, user) })
}

func (b *BreakerRepository) FindByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error) {
	return b.user(func() (*models.User, error) { return b.next.FindByUsernameOrEmail(ctx, identifier) })
}

func (b *BreakerRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return b.user(func() (*models.User, error) { return b.next.FindByID(ctx, id) })
}

func (b *BreakerRepository) UpdateRefreshToken(ctx context.Context, id, token string) error {
	_, err := b.call(func() (any, error) { return nil, b.next.UpdateRefreshToken(ctx, id, token) })
	return err
}

func (b *BreakerRepository) ClearRefreshToken(ctx context.Context, id string) error {
	_, err := b.call(func() (any, error) { return nil, b.next.ClearRefreshToken(ctx, id) })
	return err
}

func (b *BreakerRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	_, err := b.call(func() (any, error) { return nil, b.next.UpdatePasswordHash(ctx, id, hash) })
	return err
}

func (b *BreakerRepository) UpdateAccount(ctx context.Context, id string, upd models.AccountUpdate) (*models.User, error) {
	return b.user(func() (*models.User, error) { return b.next.UpdateAccount(ctx, id, upd) })
}
