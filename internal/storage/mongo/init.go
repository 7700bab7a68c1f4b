package mongo

import (
	"context"

	"github.com/lugondev/go-reserve/internal/config"
	"github.com/lugondev/go-reserve/internal/storage"
)

func init() {
	storage.Register(config.DatabaseMongoDB, func(ctx context.Context, cfg *config.DatabaseConfig) (storage.Repository, error) {
		return NewMongoRepository(ctx, &cfg.MongoDB)
	})
}
