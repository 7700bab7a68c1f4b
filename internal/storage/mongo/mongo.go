package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/lugondev/go-reserve/internal/config"
	"github.com/lugondev/go-reserve/internal/storage"
)

const (
	eventsCollection = "events"
	poolsCollection  = "pools"

	disconnectTimeout = 10 * time.Second
)

// indexes mirror the query paths of the event and pool repositories.
var indexes = map[string][]mongo.IndexModel{
	eventsCollection: {
		{Keys: bson.D{{Key: "pool", Value: 1}, {Key: "slot", Value: -1}}},
		{Keys: bson.D{{Key: "event_name", Value: 1}}},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "slot", Value: -1}}},
		{Keys: bson.D{{Key: "slot", Value: -1}}},
	},
	poolsCollection: {
		{Keys: bson.D{{Key: "base_mint", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
}

type MongoRepository struct {
	client *mongo.Client
	db     *mongo.Database
	events *mongoEventRepository
	pools  *mongoPoolRepository
}

// NewMongoRepository connects to cfg.URI and ensures the collection indexes exist.
func NewMongoRepository(ctx context.Context, cfg *config.MongoDBConfig) (*MongoRepository, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetConnectTimeout(time.Duration(cfg.ConnectTimeout) * time.Second).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	db := client.Database(cfg.Database)
	repo := &MongoRepository{
		client: client,
		db:     db,
		events: &mongoEventRepository{collection: db.Collection(eventsCollection)},
		pools:  &mongoPoolRepository{collection: db.Collection(poolsCollection)},
	}

	if err := repo.Ping(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping mongodb: %w", err), repo.Close())
	}
	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("create indexes: %w", err), repo.Close())
	}
	return repo, nil
}

func (r *MongoRepository) ensureIndexes(ctx context.Context) error {
	for name, models := range indexes {
		if _, err := r.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func (r *MongoRepository) Events() storage.EventRepository { return r.events }

func (r *MongoRepository) Pools() storage.PoolRepository { return r.pools }

func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	return r.client.Disconnect(ctx)
}
