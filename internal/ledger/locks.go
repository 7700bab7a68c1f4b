package ledger

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// lockTable hands out one exclusive write lock per account.
// Locks are acquired in address order so two units of work can never wait on each other.
type lockTable struct {
	mu    sync.Mutex
	slots map[solana.PublicKey]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{slots: make(map[solana.PublicKey]chan struct{})}
}

func (t *lockTable) slot(key solana.PublicKey) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch, ok := t.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		t.slots[key] = ch
	}
	return ch
}

// acquire locks every key and returns the function that releases them.
func (t *lockTable) acquire(ctx context.Context, keys []solana.PublicKey) (func(), error) {
	ordered := sortedUnique(keys)
	held := make([]chan struct{}, 0, len(ordered))

	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}

	for _, key := range ordered {
		ch := t.slot(key)
		select {
		case ch <- struct{}{}:
			held = append(held, ch)
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		}
	}
	return release, nil
}

func sortedUnique(keys []solana.PublicKey) []solana.PublicKey {
	out := make([]solana.PublicKey, 0, len(keys))
	seen := make(map[solana.PublicKey]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}
