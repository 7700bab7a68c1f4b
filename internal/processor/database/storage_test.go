package database

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-reserve/internal/derive"
	"github.com/lugondev/go-reserve/internal/metrics"
	"github.com/lugondev/go-reserve/internal/pool"
	"github.com/lugondev/go-reserve/internal/storage"
)

type memoryRepository struct {
	mu      sync.Mutex
	events  []*storage.EventModel
	batches int
	pools   map[string]*storage.PoolModel
	saveErr error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{pools: make(map[string]*storage.PoolModel)}
}

func (r *memoryRepository) Events() storage.EventRepository { return memoryEvents{r} }
func (r *memoryRepository) Pools() storage.PoolRepository   { return memoryPools{r} }
func (r *memoryRepository) Close() error                    { return nil }
func (r *memoryRepository) Ping(ctx context.Context) error  { return nil }

type memoryEvents struct{ r *memoryRepository }

func (m memoryEvents) Save(ctx context.Context, event *storage.EventModel) error {
	return m.SaveBatch(ctx, []*storage.EventModel{event})
}

func (m memoryEvents) SaveBatch(ctx context.Context, events []*storage.EventModel) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if m.r.saveErr != nil {
		return m.r.saveErr
	}
	m.r.batches++
	m.r.events = append(m.r.events, events...)
	return nil
}

func (m memoryEvents) FindByID(ctx context.Context, id string) (*storage.EventModel, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, e := range m.r.events {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m memoryEvents) FindByPool(ctx context.Context, pool string, limit int, offset int) ([]*storage.EventModel, error) {
	return m.filter(func(e *storage.EventModel) bool { return e.Pool == pool }), nil
}

func (m memoryEvents) FindByEventName(ctx context.Context, name string, limit int, offset int) ([]*storage.EventModel, error) {
	return m.filter(func(e *storage.EventModel) bool { return e.EventName == name }), nil
}

func (m memoryEvents) FindByUser(ctx context.Context, user string, limit int, offset int) ([]*storage.EventModel, error) {
	return m.filter(func(e *storage.EventModel) bool { return e.User == user }), nil
}

func (m memoryEvents) FindBySlot(ctx context.Context, slot uint64, limit int, offset int) ([]*storage.EventModel, error) {
	return m.filter(func(e *storage.EventModel) bool { return e.Slot == slot }), nil
}

func (m memoryEvents) filter(keep func(*storage.EventModel) bool) []*storage.EventModel {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []*storage.EventModel
	for _, e := range m.r.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

type memoryPools struct{ r *memoryRepository }

func (m memoryPools) Upsert(ctx context.Context, p *storage.PoolModel) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if prev, ok := m.r.pools[p.ID]; ok && prev.Slot > p.Slot {
		return nil
	}
	m.r.pools[p.ID] = p
	return nil
}

func (m memoryPools) FindByBaseMint(ctx context.Context, baseMint string) (*storage.PoolModel, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, p := range m.r.pools {
		if p.BaseMint == baseMint {
			return p, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m memoryPools) List(ctx context.Context, limit int, offset int) ([]*storage.PoolModel, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	out := make([]*storage.PoolModel, 0, len(m.r.pools))
	for _, p := range m.r.pools {
		out = append(out, p)
	}
	return out, nil
}

type eventSource struct {
	accts *pool.Accounts
	slot  uint64
}

func newEventSource(t *testing.T) *eventSource {
	programID := solana.MustPublicKeyFromBase58("E1CRjpkK9JyHhNvSFeVy1BgQSJx1CPZQuGfnrXR8Sbs2")
	d, err := derive.NewDeriver(programID, 0)
	require.NoError(t, err)
	accts, err := pool.DeriveAccounts(d, solana.NewWallet().PublicKey())
	require.NoError(t, err)
	return &eventSource{accts: accts}
}

func (s *eventSource) next(name string, supply uint64) *pool.Event {
	s.slot++
	return &pool.Event{
		ID:          uuid.New(),
		Name:        name,
		Slot:        s.slot,
		Timestamp:   time.Now(),
		Pool:        s.accts.PoolState.Key,
		BaseMint:    s.accts.BaseMint,
		ShareAmount: supply,
		Snapshot:    &pool.Snapshot{Accounts: s.accts, Initialized: true, Rate: 10, ShareSupply: supply, Slot: s.slot},
	}
}

func TestStorageProcessorSavesEventAndSnapshot(t *testing.T) {
	repo := newMemoryRepository()
	src := newEventSource(t)
	mc := metrics.NewCollection(metrics.NewLogMetrics(nil))
	p := NewStorageProcessor(repo, nil)
	ctx := context.Background()

	require.NoError(t, p.Process(ctx, src.next(pool.EventPoolInitialized, 0), mc))
	require.NoError(t, p.Process(ctx, src.next(pool.EventLiquidityAdded, 1000), mc))

	assert.Len(t, repo.events, 2)
	snap, err := repo.Pools().FindByBaseMint(ctx, src.accts.BaseMint.String())
	require.NoError(t, err)
	assert.Equal(t, storage.Amount(1000), snap.ShareSupply)
	assert.Equal(t, uint64(2), snap.Slot)
}

func TestStorageProcessorReportsSaveFailure(t *testing.T) {
	repo := newMemoryRepository()
	repo.saveErr = errors.New("connection reset")
	p := NewStorageProcessor(repo, nil)

	err := p.Process(context.Background(), newEventSource(t).next(pool.EventLiquidityAdded, 5), metrics.NewCollection())
	assert.ErrorContains(t, err, "connection reset")
	assert.Empty(t, repo.pools)
}

func TestBatchStorageProcessor(t *testing.T) {
	repo := newMemoryRepository()
	src := newEventSource(t)
	p := NewBatchStorageProcessor(repo, nil, 3)
	ctx := context.Background()
	mc := metrics.NewCollection()

	require.NoError(t, p.Process(ctx, src.next(pool.EventPoolInitialized, 0), mc))
	require.NoError(t, p.Process(ctx, src.next(pool.EventLiquidityAdded, 100), mc))
	assert.Equal(t, 2, p.Pending())
	assert.Empty(t, repo.events)

	require.NoError(t, p.Process(ctx, src.next(pool.EventLiquidityAdded, 300), mc))
	assert.Equal(t, 0, p.Pending())
	assert.Len(t, repo.events, 3)
	assert.Equal(t, 1, repo.batches)
	assert.Equal(t, storage.Amount(300), repo.pools[src.accts.PoolState.Key.String()].ShareSupply)

	require.NoError(t, p.Process(ctx, src.next(pool.EventLiquidityRemoved, 250), mc))
	require.NoError(t, p.Flush(ctx, mc))
	assert.Len(t, repo.events, 4)
	assert.Equal(t, storage.Amount(250), repo.pools[src.accts.PoolState.Key.String()].ShareSupply)

	require.NoError(t, p.Flush(ctx, mc))
	assert.Equal(t, 2, repo.batches)
}

func TestBatchStorageProcessorKeepsEventsOnFailure(t *testing.T) {
	repo := newMemoryRepository()
	repo.saveErr = errors.New("disk full")
	p := NewBatchStorageProcessor(repo, nil, 1)

	err := p.Process(context.Background(), newEventSource(t).next(pool.EventLiquidityAdded, 1), metrics.NewCollection())
	assert.Error(t, err)
	assert.Equal(t, 1, p.Pending())
}

type unreachableMetrics struct {
	*metrics.NoopMetrics
}

func (unreachableMetrics) IncrementCounter(ctx context.Context, name string, value uint64) error {
	return errors.New("pushgateway unreachable")
}

func TestStoredEventsSurviveMetricsFailure(t *testing.T) {
	repo := newMemoryRepository()
	src := newEventSource(t)
	mc := metrics.NewCollection(unreachableMetrics{metrics.NewNoopMetrics()})
	ctx := context.Background()

	require.NoError(t, NewStorageProcessor(repo, nil).Process(ctx, src.next(pool.EventLiquidityAdded, 10), mc))
	assert.Len(t, repo.events, 1)

	batch := NewBatchStorageProcessor(repo, nil, 1)
	require.NoError(t, batch.Process(ctx, src.next(pool.EventLiquidityAdded, 20), mc))
	assert.Len(t, repo.events, 2)
	assert.Zero(t, batch.Pending())
}
