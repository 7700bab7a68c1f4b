package leveldb

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-reserve/internal/ledger"
)

func TestLevelDBStore(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	t.Run("Read Write Delete", func(t *testing.T) {
		require.NoError(t, db.Write(ctx, []byte("k1"), []byte("v1")))

		got, err := db.Read(ctx, []byte("k1"))
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)

		require.NoError(t, db.Delete(ctx, []byte("k1")))
		_, err = db.Read(ctx, []byte("k1"))
		assert.ErrorIs(t, err, ledger.ErrKeyNotFound)
	})

	t.Run("Batch Operations", func(t *testing.T) {
		ops := []ledger.BatchOperation{
			{Type: ledger.BatchPut, Key: []byte("b1"), Value: []byte("1")},
			{Type: ledger.BatchPut, Key: []byte("b2"), Value: []byte("2")},
			{Type: ledger.BatchPut, Key: []byte("b3"), Value: []byte("3")},
			{Type: ledger.BatchDelete, Key: []byte("b3")},
		}
		require.NoError(t, db.Batch(ctx, ops))

		it, err := db.Iterator(ctx, []byte("b"), []byte("c"))
		require.NoError(t, err)
		defer it.Close()

		var keys []string
		for it.Next() {
			keys = append(keys, string(it.Key()))
		}
		require.NoError(t, it.Error())
		assert.Equal(t, []string{"b1", "b2"}, keys)
	})
}

func TestLevelDBBackedLedgerSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	wallet := solana.NewWallet().PublicKey()

	db, err := Open(dir)
	require.NoError(t, err)
	l, err := ledger.New(ctx, db, nil)
	require.NoError(t, err)
	_, err = l.Airdrop(ctx, wallet, 42)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	db, err = Open(dir)
	require.NoError(t, err)
	l, err = ledger.New(ctx, db, nil)
	require.NoError(t, err)
	defer l.Close()

	acct, err := l.Account(ctx, wallet)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), acct.Lamports)
	assert.Equal(t, uint64(1), l.Slot())
}
