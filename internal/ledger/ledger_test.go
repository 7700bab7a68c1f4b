package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testProgram = solana.MustPublicKeyFromBase58("E1CRjpkK9JyHhNvSFeVy1BgQSJx1CPZQuGfnrXR8Sbs2")

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := New(context.Background(), NewMemoryStore(), nil)
	require.NoError(t, err)
	return l
}

func TestAirdropCreatesWallet(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	wallet := solana.NewWallet().PublicKey()

	receipt, err := l.Airdrop(ctx, wallet, 500)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), receipt.Slot)

	_, err = l.Airdrop(ctx, wallet, 250)
	require.NoError(t, err)

	acct, err := l.Account(ctx, wallet)
	require.NoError(t, err)
	assert.Equal(t, uint64(750), acct.Lamports)
	assert.True(t, acct.IsSystemOwned())
	assert.Equal(t, uint64(2), l.Slot())
}

func TestExecuteDiscardsOnError(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	key := solana.NewWallet().PublicKey()
	boom := errors.New("boom")

	_, err := l.Execute(ctx, Invocation{Writable: []solana.PublicKey{key}}, func(tx *Tx) error {
		require.NoError(t, tx.Create(key, testProgram, []byte{1, 2, 3}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = l.Account(ctx, key)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Equal(t, uint64(0), l.Slot())
}

func TestExecuteRecoversPanic(t *testing.T) {
	l := newTestLedger(t)
	key := solana.NewWallet().PublicKey()

	_, err := l.Execute(context.Background(), Invocation{Writable: []solana.PublicKey{key}}, func(tx *Tx) error {
		_ = tx.Create(key, testProgram, nil)
		panic("unexpected")
	})
	assert.ErrorIs(t, err, ErrPanicked)

	_, err = l.Account(context.Background(), key)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestCreateRefusesAddressInUse(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	key := solana.NewWallet().PublicKey()
	inv := Invocation{Writable: []solana.PublicKey{key}}

	_, err := l.Execute(ctx, inv, func(tx *Tx) error {
		return tx.Create(key, testProgram, []byte{1})
	})
	require.NoError(t, err)

	_, err = l.Execute(ctx, inv, func(tx *Tx) error {
		return tx.Create(key, testProgram, []byte{2})
	})
	assert.ErrorIs(t, err, ErrAccountInUse)
}

func TestWritesRequireDeclaredAccounts(t *testing.T) {
	l := newTestLedger(t)
	key := solana.NewWallet().PublicKey()

	_, err := l.Execute(context.Background(), Invocation{}, func(tx *Tx) error {
		return tx.Create(key, testProgram, nil)
	})
	assert.ErrorIs(t, err, ErrAccountNotWritable)
}

func TestOwnershipRules(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	wallet := solana.NewWallet().PublicKey()
	vault := solana.NewWallet().PublicKey()

	_, err := l.Airdrop(ctx, wallet, 100)
	require.NoError(t, err)

	inv := Invocation{Writable: []solana.PublicKey{wallet, vault}}
	_, err = l.Execute(ctx, inv, func(tx *Tx) error {
		return tx.Create(vault, testProgram, nil)
	})
	require.NoError(t, err)

	t.Run("program cannot spend a wallet", func(t *testing.T) {
		_, err := l.Execute(ctx, inv, func(tx *Tx) error {
			if err := tx.DebitLamports(testProgram, wallet, 10); err != nil {
				return err
			}
			return tx.CreditLamports(vault, 10)
		})
		assert.ErrorIs(t, err, ErrExternalLamportSpend)
	})

	t.Run("program cannot write foreign data", func(t *testing.T) {
		_, err := l.Execute(ctx, inv, func(tx *Tx) error {
			return tx.SetData(testProgram, wallet, []byte{9})
		})
		assert.ErrorIs(t, err, ErrExternalAccountModified)
	})

	t.Run("debit beyond balance", func(t *testing.T) {
		_, err := l.Execute(ctx, inv, func(tx *Tx) error {
			return tx.DebitLamports(solana.SystemProgramID, wallet, 101)
		})
		assert.ErrorIs(t, err, ErrInsufficientLamports)
	})
}

func TestUnbalancedUnitIsRejected(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	wallet := solana.NewWallet().PublicKey()

	_, err := l.Airdrop(ctx, wallet, 100)
	require.NoError(t, err)

	_, err = l.Execute(ctx, Invocation{Writable: []solana.PublicKey{wallet}}, func(tx *Tx) error {
		return tx.CreditLamports(wallet, 1)
	})
	assert.ErrorIs(t, err, ErrUnbalancedTransaction)

	acct, err := l.Account(ctx, wallet)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), acct.Lamports)
}

func TestInvokeSigned(t *testing.T) {
	l := newTestLedger(t)
	parent := solana.NewWallet().PublicKey()

	pda, bump, err := solana.FindProgramAddress([][]byte{[]byte("authority"), parent[:]}, testProgram)
	require.NoError(t, err)
	seeds := [][]byte{[]byte("authority"), parent[:], {bump}}

	_, err = l.Execute(context.Background(), Invocation{}, func(tx *Tx) error {
		assert.False(t, tx.IsSigner(pda))
		err := tx.InvokeSigned(testProgram, seeds, func() error {
			assert.True(t, tx.IsSigner(pda))
			return nil
		})
		assert.False(t, tx.IsSigner(pda))
		return err
	})
	require.NoError(t, err)

	// the same seeds under another program sign for a different address
	other := solana.NewWallet().PublicKey()
	_, err = l.Execute(context.Background(), Invocation{}, func(tx *Tx) error {
		return tx.InvokeSigned(other, seeds, func() error {
			assert.False(t, tx.IsSigner(pda))
			return nil
		})
	})
	if err != nil {
		assert.ErrorIs(t, err, ErrInvalidSeeds)
	}
}

func TestExecuteSerializesSharedAccounts(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	from := solana.NewWallet().PublicKey()
	to := solana.NewWallet().PublicKey()

	_, err := l.Airdrop(ctx, from, 1000)
	require.NoError(t, err)
	_, err = l.Airdrop(ctx, to, 0)
	require.NoError(t, err)

	inv := Invocation{Signers: []solana.PublicKey{from}, Writable: []solana.PublicKey{to, from}}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Execute(ctx, inv, func(tx *Tx) error {
				if err := tx.DebitLamports(solana.SystemProgramID, from, 10); err != nil {
					return err
				}
				return tx.CreditLamports(to, 10)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	src, err := l.Account(ctx, from)
	require.NoError(t, err)
	dst, err := l.Account(ctx, to)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), src.Lamports)
	assert.Equal(t, uint64(500), dst.Lamports)
}

func TestExecuteHonoursContextWhileWaiting(t *testing.T) {
	l := newTestLedger(t)
	key := solana.NewWallet().PublicKey()
	inv := Invocation{Writable: []solana.PublicKey{key}}

	entered := make(chan struct{})
	unblock := make(chan struct{})
	go func() {
		_, _ = l.Execute(context.Background(), inv, func(tx *Tx) error {
			close(entered)
			<-unblock
			return nil
		})
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := l.Execute(ctx, inv, func(tx *Tx) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(unblock)
}

func TestLedgerResumesSlot(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	l, err := New(ctx, store, nil)
	require.NoError(t, err)
	_, err = l.Airdrop(ctx, solana.NewWallet().PublicKey(), 1)
	require.NoError(t, err)

	reopened, err := New(ctx, store, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), reopened.Slot())
}

func TestMemoryStoreIterator(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Write(ctx, []byte("b"), []byte("2")))
	require.NoError(t, s.Write(ctx, []byte("a"), []byte("1")))
	require.NoError(t, s.Write(ctx, []byte("c"), []byte("3")))

	it, err := s.Iterator(ctx, []byte("a"), []byte("c"))
	require.NoError(t, err)
	defer it.Close()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	assert.Equal(t, []string{"a", "b"}, keys)

	require.NoError(t, s.Close())
	_, err = s.Read(ctx, []byte("a"))
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestReadOnlyUnitKeepsSlot(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	wallet := solana.NewWallet().PublicKey()

	_, err := l.Airdrop(ctx, wallet, 5)
	require.NoError(t, err)

	receipt, err := l.Execute(ctx, Invocation{Writable: []solana.PublicKey{wallet}}, func(tx *Tx) error {
		_, err := tx.Get(wallet)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), receipt.Slot)
	assert.Empty(t, receipt.Modified)
	assert.Equal(t, uint64(1), l.Slot())
}
