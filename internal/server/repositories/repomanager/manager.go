// Package repomanager opens the account store selected by the DSN scheme and
// prepares it (schema migrations, indexes) before use.
package repomanager

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/videotube/internal/server/repositories/users"
)

// RepositoryManager owns the store connection.
type RepositoryManager interface {
	// Init prepares the store: migrations for PostgreSQL, indexes for MongoDB.
	Init(ctx context.Context) error
	Users() users.Repository
	Close(ctx context.Context) error
}

// Open picks the backend from the DSN scheme: postgres:// or postgresql://,
// mongodb:// or mongodb+srv://, memory://. An empty DSN means memory.
func Open(ctx context.Context, dsn, mongoDatabase string) (RepositoryManager, error) {
	scheme, _, _ := strings.Cut(dsn, "://")

	switch strings.ToLower(scheme) {
	case "", "memory":
		return NewMemoryRepositoryManager(), nil
	case "postgres", "postgresql":
		return OpenPostgres(dsn)
	case "mongodb", "mongodb+srv":
		return OpenMongo(ctx, dsn, mongoDatabase)
	default:
		return nil, fmt.Errorf("unsupported store scheme %q", scheme)
	}
}

// MemoryRepositoryManager keeps everything in process memory.
type MemoryRepositoryManager struct {
	repo *users.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{repo: users.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) Init(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Users() users.Repository { return m.repo }

func (m *MemoryRepositoryManager) Close(context.Context) error { return nil }
