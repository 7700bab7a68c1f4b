package storage

import (
	"context"
)

// EventRepository persists committed pool events.
type EventRepository interface {
	Save(ctx context.Context, event *EventModel) error
	SaveBatch(ctx context.Context, events []*EventModel) error
	FindByID(ctx context.Context, id string) (*EventModel, error)
	FindByPool(ctx context.Context, pool string, limit int, offset int) ([]*EventModel, error)
	FindByEventName(ctx context.Context, eventName string, limit int, offset int) ([]*EventModel, error)
	FindByUser(ctx context.Context, user string, limit int, offset int) ([]*EventModel, error)
	FindBySlot(ctx context.Context, slot uint64, limit int, offset int) ([]*EventModel, error)
}

// PoolRepository keeps the latest snapshot of every pool, keyed by pool state address.
type PoolRepository interface {
	Upsert(ctx context.Context, pool *PoolModel) error
	FindByBaseMint(ctx context.Context, baseMint string) (*PoolModel, error)
	List(ctx context.Context, limit int, offset int) ([]*PoolModel, error)
}

type Repository interface {
	Events() EventRepository
	Pools() PoolRepository
	Close() error
	Ping(ctx context.Context) error
}
