package mongo

import (
	"context"
	"math"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-reserve/internal/config"
	"github.com/lugondev/go-reserve/internal/storage"
)

func testRepository(t *testing.T) *MongoRepository {
	uri := os.Getenv("RESERVE_TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("Requires MongoDB - set RESERVE_TEST_MONGODB_URI")
	}
	cfg := config.DefaultConfig().Database.MongoDB
	cfg.URI = uri
	cfg.Database = "reserve_test"

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	repo, err := NewMongoRepository(ctx, &cfg)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestEventRepository_SaveAndFind(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	pool := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Millisecond)
	event := &storage.EventModel{
		ID: uuid.NewString(), EventName: "LiquidityAdded", Pool: pool, User: pool,
		NativeAmount: 1000, BaseAmount: 10000, ShareAmount: 1000, Slot: 3, CreatedAt: now,
	}
	require.NoError(t, repo.Events().Save(ctx, event))
	require.NoError(t, repo.Events().Save(ctx, event))

	found, err := repo.Events().FindByPool(ctx, pool, 10, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, storage.Amount(10000), found[0].BaseAmount)

	require.NoError(t, repo.Events().SaveBatch(ctx, []*storage.EventModel{event}), "replayed batch is ignored")
	byUser, err := repo.Events().FindByUser(ctx, pool, 10, 0)
	require.NoError(t, err)
	assert.Len(t, byUser, 1)

	_, err = repo.Events().FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPoolRepository_UpsertKeepsNewestSlot(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	p := &storage.PoolModel{ID: uuid.NewString(), BaseMint: uuid.NewString(), Rate: 10, ShareSupply: 1000, Slot: 5, UpdatedAt: now, CreatedAt: now}
	require.NoError(t, repo.Pools().Upsert(ctx, p))

	stale := *p
	stale.ShareSupply = 1
	stale.Slot = 4
	require.NoError(t, repo.Pools().Upsert(ctx, &stale))

	got, err := repo.Pools().FindByBaseMint(ctx, p.BaseMint)
	require.NoError(t, err)
	assert.Equal(t, storage.Amount(1000), got.ShareSupply)
}

func TestRepositoriesKeepFullUint64Amounts(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	event := &storage.EventModel{
		ID: uuid.NewString(), EventName: "LiquidityAdded", Pool: uuid.NewString(),
		NativeAmount: 1, BaseAmount: math.MaxUint64, ShareAmount: math.MaxInt64 + 1, Slot: 9, CreatedAt: now,
		Data: map[string]interface{}{"base_amount": storage.Amount(math.MaxUint64)},
	}
	require.NoError(t, repo.Events().Save(ctx, event))

	got, err := repo.Events().FindByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.Amount(math.MaxUint64), got.BaseAmount)
	assert.Equal(t, storage.Amount(math.MaxInt64+1), got.ShareAmount)

	p := &storage.PoolModel{
		ID: uuid.NewString(), BaseMint: uuid.NewString(), Rate: math.MaxUint64,
		QuoteVaultLamports: math.MaxUint64, BaseVaultAmount: math.MaxUint64, ShareSupply: math.MaxUint64,
		Slot: 1, UpdatedAt: now, CreatedAt: now,
	}
	require.NoError(t, repo.Pools().Upsert(ctx, p))
	snap, err := repo.Pools().FindByBaseMint(ctx, p.BaseMint)
	require.NoError(t, err)
	assert.Equal(t, p.BaseVaultAmount, snap.BaseVaultAmount)
	assert.Equal(t, p.ShareSupply, snap.ShareSupply)
}
