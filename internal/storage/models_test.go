package storage

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-reserve/internal/derive"
	"github.com/lugondev/go-reserve/internal/pool"
)

func TestModelsFromEvent(t *testing.T) {
	programID := solana.MustPublicKeyFromBase58("E1CRjpkK9JyHhNvSFeVy1BgQSJx1CPZQuGfnrXR8Sbs2")
	d, err := derive.NewDeriver(programID, 8)
	require.NoError(t, err)
	mint := solana.NewWallet().PublicKey()
	accts, err := pool.DeriveAccounts(d, mint)
	require.NoError(t, err)

	now := time.Now()
	ev := &pool.Event{
		ID:           uuid.New(),
		Name:         pool.EventLiquidityAdded,
		Slot:         7,
		Timestamp:    now,
		ProgramID:    programID,
		Pool:         accts.PoolState.Key,
		BaseMint:     mint,
		User:         solana.NewWallet().PublicKey(),
		NativeAmount: 1000,
		BaseAmount:   10000,
		ShareAmount:  1000,
		Snapshot: &pool.Snapshot{
			Accounts:           accts,
			Initialized:        true,
			Rate:               10,
			QuoteVaultLamports: 1000,
			BaseVaultAmount:    10000,
			ShareSupply:        1000,
			Slot:               7,
		},
	}

	em := NewEventModel(ev)
	assert.Equal(t, ev.ID.String(), em.ID)
	assert.Equal(t, pool.EventLiquidityAdded, em.EventName)
	assert.Equal(t, accts.PoolState.Key.String(), em.Pool)
	assert.Equal(t, Amount(10000), em.BaseAmount)
	assert.Equal(t, uint64(7), em.Slot)
	assert.Equal(t, Amount(1000), em.Data["native_amount"])

	pm := NewPoolModel(ev)
	require.NotNil(t, pm)
	assert.Equal(t, accts.PoolState.Key.String(), pm.ID)
	assert.Equal(t, mint.String(), pm.BaseMint)
	assert.Equal(t, accts.ShareMint.Key.String(), pm.ShareMint)
	assert.Equal(t, Amount(1000), pm.ShareSupply)

	ev.Snapshot = nil
	assert.Nil(t, NewPoolModel(ev))
}
