// Package ledger is the local host the reserve program runs against.
//
// The ledger keeps one Account per address in a key-value Store and executes work in
// units. A unit declares the accounts it writes and the keys that signed it; the ledger
// locks those accounts exclusively, lets the unit read and write through a Tx overlay,
// and then either commits every change in a single store batch or drops all of them.
// Units touching disjoint accounts run concurrently; units sharing an account are
// serialized.
package ledger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gagliardetto/solana-go"
)

var (
	accountPrefix = []byte("acct/")
	slotKey       = []byte("meta/slot")
)

// Invocation describes what a unit of work may touch.
type Invocation struct {
	// Signers are the keys that authorized the unit.
	Signers []solana.PublicKey

	// Writable are the accounts the unit may create or modify.
	Writable []solana.PublicKey
}

// Receipt describes a committed unit of work.
type Receipt struct {
	Slot         uint64
	Modified     []solana.PublicKey
	Instructions []solana.Instruction
}

// Ledger executes units of work against a Store.
type Ledger struct {
	store  Store
	locks  *lockTable
	logger *slog.Logger

	commitMu sync.Mutex
	slot     uint64
}

// New opens a ledger on store, resuming from the last committed slot.
func New(ctx context.Context, store Store, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}

	l := &Ledger{
		store:  store,
		locks:  newLockTable(),
		logger: logger,
	}

	raw, err := store.Read(ctx, slotKey)
	switch {
	case errors.Is(err, ErrKeyNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to read ledger slot: %w", err)
	case len(raw) != 8:
		return nil, fmt.Errorf("corrupt ledger slot record of %d bytes", len(raw))
	default:
		l.slot = binary.LittleEndian.Uint64(raw)
	}

	return l, nil
}

// Slot returns the last committed slot.
func (l *Ledger) Slot() uint64 {
	l.commitMu.Lock()
	defer l.commitMu.Unlock()
	return l.slot
}

// Close closes the underlying store.
func (l *Ledger) Close() error {
	return l.store.Close()
}

// Account returns the committed account at key.
func (l *Ledger) Account(ctx context.Context, key solana.PublicKey) (*Account, error) {
	acct, err := l.read(ctx, key)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, key)
	}
	return acct, nil
}

// Execute runs fn as one atomic unit of work.
func (l *Ledger) Execute(ctx context.Context, inv Invocation, fn func(tx *Tx) error) (*Receipt, error) {
	release, err := l.locks.acquire(ctx, inv.Writable)
	if err != nil {
		return nil, err
	}
	defer release()

	tx := newTx(ctx, l, inv)
	if err := run(tx, fn); err != nil {
		l.logger.Debug("unit of work discarded", "error", err)
		return nil, err
	}
	if err := tx.checkBalanced(); err != nil {
		return nil, err
	}

	return l.commit(ctx, tx)
}

// Airdrop credits lamports to key, creating a system-owned wallet if needed.
func (l *Ledger) Airdrop(ctx context.Context, key solana.PublicKey, lamports uint64) (*Receipt, error) {
	inv := Invocation{Writable: []solana.PublicKey{key}}
	return l.Execute(ctx, inv, func(tx *Tx) error {
		exists, err := tx.Exists(key)
		if err != nil {
			return err
		}
		if !exists {
			if err := tx.Create(key, solana.SystemProgramID, nil); err != nil {
				return err
			}
		}
		return tx.mint(key, lamports)
	})
}

func run(tx *Tx, fn func(tx *Tx) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanicked, r)
		}
	}()
	if err := tx.ctx.Err(); err != nil {
		return err
	}
	return fn(tx)
}

func (l *Ledger) commit(ctx context.Context, tx *Tx) (*Receipt, error) {
	l.commitMu.Lock()
	defer l.commitMu.Unlock()

	modified := tx.changes()
	if len(modified) == 0 {
		return &Receipt{Slot: l.slot, Instructions: tx.Trace()}, nil
	}
	slot := l.slot + 1

	ops := make([]BatchOperation, 0, len(modified)+1)
	for _, key := range modified {
		raw, err := encodeAccount(tx.items[key].current)
		if err != nil {
			return nil, err
		}
		ops = append(ops, BatchOperation{Type: BatchPut, Key: accountKey(key), Value: raw})
	}

	var slotBuf [8]byte
	binary.LittleEndian.PutUint64(slotBuf[:], slot)
	ops = append(ops, BatchOperation{Type: BatchPut, Key: slotKey, Value: slotBuf[:]})

	if err := l.store.Batch(ctx, ops); err != nil {
		return nil, fmt.Errorf("failed to commit slot %d: %w", slot, err)
	}
	l.slot = slot

	l.logger.Debug("unit of work committed", "slot", slot, "accounts", len(modified))

	return &Receipt{
		Slot:         slot,
		Modified:     modified,
		Instructions: tx.Trace(),
	}, nil
}

func (l *Ledger) read(ctx context.Context, key solana.PublicKey) (*Account, error) {
	raw, err := l.store.Read(ctx, accountKey(key))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read account %s: %w", key, err)
	}
	return decodeAccount(raw)
}

func accountKey(key solana.PublicKey) []byte {
	out := make([]byte, 0, len(accountPrefix)+len(key))
	out = append(out, accountPrefix...)
	return append(out, key[:]...)
}
