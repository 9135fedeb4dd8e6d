package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/videotube/internal/server/repositories/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepositoryManager vends the MongoDB-backed users repository.
type MongoRepositoryManager struct {
	client *mongo.Client
	repo   *users.MongoRepository
}

// OpenMongo connects to the deployment at uri. The driver connects lazily,
// so an unreachable server surfaces on Init.
func OpenMongo(ctx context.Context, uri, database string) (*MongoRepositoryManager, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return NewMongoRepositoryManager(client, database), nil
}

func NewMongoRepositoryManager(client *mongo.Client, database string) *MongoRepositoryManager {
	col := client.Database(database).Collection(users.CollectionName)
	return &MongoRepositoryManager{client: client, repo: users.NewMongoRepository(col)}
}

// Init creates the unique indexes the repository relies on.
func (m *MongoRepositoryManager) Init(ctx context.Context) error {
	return m.repo.EnsureIndexes(ctx)
}

func (m *MongoRepositoryManager) Users() users.Repository {
	return m.repo
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
