package ledger

import (
	"context"
	"fmt"
	"math/bits"

	"github.com/gagliardetto/solana-go"
)

type action int

const (
	// actionCache means the account was read but not modified
	actionCache action = iota
	// actionInsert means the account was created in this unit of work
	actionInsert
	// actionModify means an existing account was modified
	actionModify
)

type trackedAccount struct {
	action   action
	original *Account // nil for inserts
	current  *Account
}

// Tx is the tentative state of one unit of work. Nothing written through a Tx is visible
// outside it until the ledger commits it, and all of it is dropped if the unit fails.
type Tx struct {
	ctx      context.Context
	ledger   *Ledger
	writable map[solana.PublicKey]struct{}
	signers  map[solana.PublicKey]int
	items    map[solana.PublicKey]*trackedAccount
	order    []solana.PublicKey
	trace    []solana.Instruction
	minted   uint64
}

func newTx(ctx context.Context, l *Ledger, inv Invocation) *Tx {
	tx := &Tx{
		ctx:      ctx,
		ledger:   l,
		writable: make(map[solana.PublicKey]struct{}, len(inv.Writable)),
		signers:  make(map[solana.PublicKey]int, len(inv.Signers)),
		items:    make(map[solana.PublicKey]*trackedAccount),
	}
	for _, k := range inv.Writable {
		tx.writable[k] = struct{}{}
	}
	for _, k := range inv.Signers {
		tx.signers[k]++
	}
	return tx
}

// Context returns the context of the unit of work.
func (tx *Tx) Context() context.Context {
	return tx.ctx
}

func (tx *Tx) load(key solana.PublicKey) (*trackedAccount, error) {
	if item, ok := tx.items[key]; ok {
		return item, nil
	}

	acct, err := tx.ledger.read(tx.ctx, key)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, nil
	}

	item := &trackedAccount{action: actionCache, original: acct, current: acct.Clone()}
	tx.items[key] = item
	tx.order = append(tx.order, key)
	return item, nil
}

func (tx *Tx) loadWritable(key solana.PublicKey) (*trackedAccount, error) {
	if _, ok := tx.writable[key]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotWritable, key)
	}
	item, err := tx.load(key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, key)
	}
	if item.action == actionCache {
		item.action = actionModify
	}
	return item, nil
}

// Get returns a copy of the account at key as seen by this unit of work.
func (tx *Tx) Get(key solana.PublicKey) (*Account, error) {
	item, err := tx.load(key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, key)
	}
	return item.current.Clone(), nil
}

// Exists reports whether an account exists at key.
func (tx *Tx) Exists(key solana.PublicKey) (bool, error) {
	item, err := tx.load(key)
	if err != nil {
		return false, err
	}
	return item != nil, nil
}

// Create allocates a new account at key owned by owner. The host refuses to create an
// account at an address that is already in use.
func (tx *Tx) Create(key, owner solana.PublicKey, data []byte) error {
	if _, ok := tx.writable[key]; !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotWritable, key)
	}
	item, err := tx.load(key)
	if err != nil {
		return err
	}
	if item != nil {
		return fmt.Errorf("%w: %s", ErrAccountInUse, key)
	}

	acct := &Account{Owner: owner, Data: append([]byte(nil), data...)}
	tx.items[key] = &trackedAccount{action: actionInsert, current: acct}
	tx.order = append(tx.order, key)
	return nil
}

// SetData replaces the data of an account. Only the owning program may do so.
func (tx *Tx) SetData(program, key solana.PublicKey, data []byte) error {
	item, err := tx.loadWritable(key)
	if err != nil {
		return err
	}
	if !item.current.Owner.Equals(program) {
		return fmt.Errorf("%w: %s owned by %s", ErrExternalAccountModified, key, item.current.Owner)
	}
	item.current.Data = append(item.current.Data[:0:0], data...)
	return nil
}

// DebitLamports removes lamports from an account owned by program.
func (tx *Tx) DebitLamports(program, key solana.PublicKey, lamports uint64) error {
	item, err := tx.loadWritable(key)
	if err != nil {
		return err
	}
	if !item.current.Owner.Equals(program) {
		return fmt.Errorf("%w: %s owned by %s", ErrExternalLamportSpend, key, item.current.Owner)
	}
	if item.current.Lamports < lamports {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientLamports, key, item.current.Lamports, lamports)
	}
	item.current.Lamports -= lamports
	return nil
}

// CreditLamports adds lamports to any writable account.
func (tx *Tx) CreditLamports(key solana.PublicKey, lamports uint64) error {
	item, err := tx.loadWritable(key)
	if err != nil {
		return err
	}
	sum, carry := bits.Add64(item.current.Lamports, lamports, 0)
	if carry != 0 {
		return fmt.Errorf("%w: %s", ErrLamportOverflow, key)
	}
	item.current.Lamports = sum
	return nil
}

// IsSigner reports whether key signed the unit of work or is a program address
// currently signing through InvokeSigned.
func (tx *Tx) IsSigner(key solana.PublicKey) bool {
	return tx.signers[key] > 0
}

// InvokeSigned runs fn with the program address derived from seeds added to the signer
// set. The address is re-created from the seeds, so only program can sign for it.
func (tx *Tx) InvokeSigned(program solana.PublicKey, seeds [][]byte, fn func() error) error {
	signer, err := solana.CreateProgramAddress(seeds, program)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSeeds, err)
	}

	tx.signers[signer]++
	defer func() {
		tx.signers[signer]--
	}()
	return fn()
}

// Record appends an executed instruction to the unit's instruction trace.
func (tx *Tx) Record(ix solana.Instruction) {
	tx.trace = append(tx.trace, ix)
}

// Trace returns the instructions executed so far.
func (tx *Tx) Trace() []solana.Instruction {
	return append([]solana.Instruction(nil), tx.trace...)
}

func (tx *Tx) mint(key solana.PublicKey, lamports uint64) error {
	if err := tx.CreditLamports(key, lamports); err != nil {
		return err
	}
	tx.minted += lamports
	return nil
}

// checkBalanced verifies the unit of work neither created nor destroyed lamports.
func (tx *Tx) checkBalanced() error {
	var beforeHi, beforeLo, afterHi, afterLo uint64
	add := func(hi, lo *uint64, v uint64) {
		var carry uint64
		*lo, carry = bits.Add64(*lo, v, 0)
		*hi += carry
	}

	for _, item := range tx.items {
		if item.original != nil {
			add(&beforeHi, &beforeLo, item.original.Lamports)
		}
		add(&afterHi, &afterLo, item.current.Lamports)
	}
	add(&beforeHi, &beforeLo, tx.minted)

	if beforeHi != afterHi || beforeLo != afterLo {
		return ErrUnbalancedTransaction
	}
	return nil
}

// changes returns the accounts the unit of work inserted or modified, in first-touch order.
func (tx *Tx) changes() []solana.PublicKey {
	out := make([]solana.PublicKey, 0, len(tx.order))
	for _, key := range tx.order {
		if tx.items[key].action != actionCache {
			out = append(out, key)
		}
	}
	return out
}
