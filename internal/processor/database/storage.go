// Package database persists committed pool events and pool snapshots through a
// storage.Repository.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lugondev/go-reserve/internal/metrics"
	"github.com/lugondev/go-reserve/internal/pool"
	"github.com/lugondev/go-reserve/internal/storage"
)

// StorageProcessor saves every event and upserts the pool snapshot it carries.
type StorageProcessor struct {
	repo   storage.Repository
	logger *slog.Logger
}

func NewStorageProcessor(repo storage.Repository, logger *slog.Logger) *StorageProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &StorageProcessor{
		repo:   repo,
		logger: logger,
	}
}

func (p *StorageProcessor) Process(ctx context.Context, ev *pool.Event, mc *metrics.Collection) error {
	model := storage.NewEventModel(ev)
	if err := p.repo.Events().Save(ctx, model); err != nil {
		p.logger.Error("failed to save event",
			"id", model.ID,
			"event_name", model.EventName,
			"pool", model.Pool,
			"error", err,
		)
		return fmt.Errorf("failed to save event: %w", err)
	}

	if snap := storage.NewPoolModel(ev); snap != nil {
		if err := p.repo.Pools().Upsert(ctx, snap); err != nil {
			p.logger.Error("failed to save pool snapshot",
				"pool", snap.ID,
				"slot", snap.Slot,
				"error", err,
			)
			return fmt.Errorf("failed to save pool snapshot: %w", err)
		}
	}

	p.logger.Debug("event saved to database",
		"id", model.ID,
		"event_name", model.EventName,
		"slot", model.Slot,
	)
	countStored(ctx, mc, p.logger, 1)
	return nil
}

// BatchStorageProcessor buffers events and writes them with one SaveBatch call once
// batchSize events are pending. Only the newest snapshot of each pool in a batch is written.
type BatchStorageProcessor struct {
	repo      storage.Repository
	logger    *slog.Logger
	batchSize int

	mu     sync.Mutex
	events []*pool.Event
}

func NewBatchStorageProcessor(repo storage.Repository, logger *slog.Logger, batchSize int) *BatchStorageProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &BatchStorageProcessor{
		repo:      repo,
		logger:    logger,
		batchSize: batchSize,
		events:    make([]*pool.Event, 0, batchSize),
	}
}

func (p *BatchStorageProcessor) Process(ctx context.Context, ev *pool.Event, mc *metrics.Collection) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, ev)
	if len(p.events) >= p.batchSize {
		return p.flush(ctx, mc)
	}
	return nil
}

// Flush writes any pending events.
func (p *BatchStorageProcessor) Flush(ctx context.Context, mc *metrics.Collection) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flush(ctx, mc)
}

// Pending returns the number of buffered events.
func (p *BatchStorageProcessor) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func (p *BatchStorageProcessor) flush(ctx context.Context, mc *metrics.Collection) error {
	if len(p.events) == 0 {
		return nil
	}

	models := make([]*storage.EventModel, 0, len(p.events))
	latest := make(map[string]*storage.PoolModel)
	var order []string
	for _, ev := range p.events {
		models = append(models, storage.NewEventModel(ev))
		snap := storage.NewPoolModel(ev)
		if snap == nil {
			continue
		}
		prev, ok := latest[snap.ID]
		if !ok {
			order = append(order, snap.ID)
		}
		if !ok || snap.Slot >= prev.Slot {
			latest[snap.ID] = snap
		}
	}

	if err := p.repo.Events().SaveBatch(ctx, models); err != nil {
		p.logger.Error("failed to save event batch",
			"count", len(models),
			"error", err,
		)
		return fmt.Errorf("failed to save event batch: %w", err)
	}
	p.events = p.events[:0]

	for _, id := range order {
		if err := p.repo.Pools().Upsert(ctx, latest[id]); err != nil {
			p.logger.Error("failed to save pool snapshot", "pool", id, "error", err)
			return fmt.Errorf("failed to save pool snapshot: %w", err)
		}
	}

	p.logger.Info("event batch saved to database", "count", len(models), "pools", len(order))
	countStored(ctx, mc, p.logger, uint64(len(models)))
	return nil
}

// countStored records stored events. The events are already saved, so a metrics
// failure is only logged.
func countStored(ctx context.Context, mc *metrics.Collection, logger *slog.Logger, n uint64) {
	if mc == nil {
		return
	}
	if err := mc.IncrementCounter(ctx, metrics.MetricEventsStored, n); err != nil {
		logger.Debug("failed to increment counter", "name", metrics.MetricEventsStored, "error", err)
	}
}
