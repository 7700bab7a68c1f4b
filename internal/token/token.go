// Package token is the fungible-token and native-value service the reserve program
// delegates to.
//
// Mints and token accounts are stored in the SPL Token layout and owned by the token
// program; every operation authenticates its authority against the signer set of the
// unit of work it runs in. Native lamport transfers between wallets go through System.
package token

import (
	"errors"
	"fmt"
	"math/bits"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	spl "github.com/gagliardetto/solana-go/programs/token"

	"github.com/lugondev/go-reserve/internal/ledger"
	"github.com/lugondev/go-reserve/pkg/buffer"
)

// Account sizes of the SPL Token layouts.
const (
	MintSize    = 82
	AccountSize = 165
)

var (
	ErrInsufficientFunds = errors.New("insufficient token funds")
	ErrOwnerMismatch     = errors.New("account owner does not match")
	ErrMintMismatch      = errors.New("account mint does not match")
	ErrInvalidMint       = errors.New("account is not an initialized mint")
	ErrInvalidAccount    = errors.New("account is not an initialized token account")
	ErrMissingSignature  = errors.New("missing required signature")
	ErrFixedSupply       = errors.New("mint has no mint authority")
	ErrAccountFrozen     = errors.New("token account is frozen")
	ErrOverflow          = errors.New("token amount overflow")
)

// Ledger is the fungible-token service. Each call runs inside the caller's unit of work.
type Ledger interface {
	InitializeMint(tx *ledger.Tx, mint solana.PublicKey, decimals uint8, authority solana.PublicKey) error
	InitializeAccount(tx *ledger.Tx, account, mint, owner solana.PublicKey) error
	MintTo(tx *ledger.Tx, mint, destination, authority solana.PublicKey, amount uint64) error
	Transfer(tx *ledger.Tx, source, destination, authority solana.PublicKey, amount uint64) error
	Burn(tx *ledger.Tx, mint, source, authority solana.PublicKey, amount uint64) error
	Mint(tx *ledger.Tx, mint solana.PublicKey) (*spl.Mint, error)
	Account(tx *ledger.Tx, account solana.PublicKey) (*spl.Account, error)
}

// Native moves lamports out of signer-controlled wallets.
type Native interface {
	Transfer(tx *ledger.Tx, from, to solana.PublicKey, lamports uint64) error
}

// Program implements Ledger over accounts owned by the SPL token program id.
type Program struct {
	programID solana.PublicKey
}

var _ Ledger = (*Program)(nil)

// NewProgram creates the token service.
func NewProgram() *Program {
	return &Program{programID: solana.TokenProgramID}
}

// ProgramID returns the owner of every mint and token account.
func (p *Program) ProgramID() solana.PublicKey {
	return p.programID
}

func (p *Program) InitializeMint(tx *ledger.Tx, mint solana.PublicKey, decimals uint8, authority solana.PublicKey) error {
	state := spl.Mint{
		MintAuthority: &authority,
		Decimals:      decimals,
		IsInitialized: true,
	}
	data, err := encode(state, MintSize)
	if err != nil {
		return err
	}
	if err := tx.Create(mint, p.programID, data); err != nil {
		return err
	}

	tx.Record(spl.NewInitializeMint2InstructionBuilder().
		SetDecimals(decimals).
		SetMintAuthority(authority).
		SetMintAccount(mint).
		Build())
	return nil
}

func (p *Program) InitializeAccount(tx *ledger.Tx, account, mint, owner solana.PublicKey) error {
	if _, err := p.Mint(tx, mint); err != nil {
		return err
	}
	state := spl.Account{
		Mint:  mint,
		Owner: owner,
		State: spl.Initialized,
	}
	data, err := encode(state, AccountSize)
	if err != nil {
		return err
	}
	if err := tx.Create(account, p.programID, data); err != nil {
		return err
	}

	tx.Record(spl.NewInitializeAccount3InstructionBuilder().
		SetOwner(owner).
		SetAccount(account).
		SetMintAccount(mint).
		Build())
	return nil
}

func (p *Program) MintTo(tx *ledger.Tx, mint, destination, authority solana.PublicKey, amount uint64) error {
	m, err := p.Mint(tx, mint)
	if err != nil {
		return err
	}
	if m.MintAuthority == nil {
		return fmt.Errorf("%w: %s", ErrFixedSupply, mint)
	}
	if err := requireSigner(tx, authority, *m.MintAuthority); err != nil {
		return err
	}

	dst, err := p.Account(tx, destination)
	if err != nil {
		return err
	}
	if !dst.Mint.Equals(mint) {
		return fmt.Errorf("%w: %s holds %s, not %s", ErrMintMismatch, destination, dst.Mint, mint)
	}
	if dst.State == spl.Frozen {
		return fmt.Errorf("%w: %s", ErrAccountFrozen, destination)
	}

	if m.Supply, err = add(m.Supply, amount); err != nil {
		return err
	}
	if dst.Amount, err = add(dst.Amount, amount); err != nil {
		return err
	}

	if err := p.store(tx, mint, *m, MintSize); err != nil {
		return err
	}
	if err := p.store(tx, destination, *dst, AccountSize); err != nil {
		return err
	}

	tx.Record(spl.NewMintToInstruction(amount, mint, destination, authority, nil).Build())
	return nil
}

func (p *Program) Transfer(tx *ledger.Tx, source, destination, authority solana.PublicKey, amount uint64) error {
	src, err := p.Account(tx, source)
	if err != nil {
		return err
	}
	dst, err := p.Account(tx, destination)
	if err != nil {
		return err
	}
	if !src.Mint.Equals(dst.Mint) {
		return fmt.Errorf("%w: %s holds %s, %s holds %s", ErrMintMismatch, source, src.Mint, destination, dst.Mint)
	}
	if src.State == spl.Frozen || dst.State == spl.Frozen {
		return ErrAccountFrozen
	}
	if err := requireSigner(tx, authority, src.Owner); err != nil {
		return err
	}
	if src.Amount < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, source, src.Amount, amount)
	}

	if !source.Equals(destination) {
		src.Amount -= amount
		if dst.Amount, err = add(dst.Amount, amount); err != nil {
			return err
		}
		if err := p.store(tx, source, *src, AccountSize); err != nil {
			return err
		}
		if err := p.store(tx, destination, *dst, AccountSize); err != nil {
			return err
		}
	}

	tx.Record(spl.NewTransferInstruction(amount, source, destination, authority, nil).Build())
	return nil
}

func (p *Program) Burn(tx *ledger.Tx, mint, source, authority solana.PublicKey, amount uint64) error {
	m, err := p.Mint(tx, mint)
	if err != nil {
		return err
	}
	src, err := p.Account(tx, source)
	if err != nil {
		return err
	}
	if !src.Mint.Equals(mint) {
		return fmt.Errorf("%w: %s holds %s, not %s", ErrMintMismatch, source, src.Mint, mint)
	}
	if src.State == spl.Frozen {
		return fmt.Errorf("%w: %s", ErrAccountFrozen, source)
	}
	if err := requireSigner(tx, authority, src.Owner); err != nil {
		return err
	}
	if src.Amount < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, source, src.Amount, amount)
	}

	src.Amount -= amount
	m.Supply -= amount

	if err := p.store(tx, source, *src, AccountSize); err != nil {
		return err
	}
	if err := p.store(tx, mint, *m, MintSize); err != nil {
		return err
	}

	tx.Record(spl.NewBurnInstruction(amount, source, mint, authority, nil).Build())
	return nil
}

// Mint reads and validates a mint account.
func (p *Program) Mint(tx *ledger.Tx, mint solana.PublicKey) (*spl.Mint, error) {
	acct, err := tx.Get(mint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMint, err)
	}
	if !acct.Owner.Equals(p.programID) || len(acct.Data) != MintSize {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMint, mint)
	}

	var m spl.Mint
	if err := bin.NewBinDecoder(acct.Data).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMint, err)
	}
	if !m.IsInitialized {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMint, mint)
	}
	return &m, nil
}

// Account reads and validates a token account.
func (p *Program) Account(tx *ledger.Tx, account solana.PublicKey) (*spl.Account, error) {
	acct, err := tx.Get(account)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccount, err)
	}
	if !acct.Owner.Equals(p.programID) || len(acct.Data) != AccountSize {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAccount, account)
	}

	var a spl.Account
	if err := bin.NewBinDecoder(acct.Data).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccount, err)
	}
	if a.State == spl.Uninitialized {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAccount, account)
	}
	return &a, nil
}

func (p *Program) store(tx *ledger.Tx, key solana.PublicKey, v interface{}, size int) error {
	data, err := encode(v, size)
	if err != nil {
		return err
	}
	return tx.SetData(p.programID, key, data)
}

// System is the native-value service: it moves lamports out of system-owned wallets.
type System struct{}

var _ Native = System{}

// Transfer moves lamports from a wallet that signed the unit of work.
func (System) Transfer(tx *ledger.Tx, from, to solana.PublicKey, lamports uint64) error {
	if !tx.IsSigner(from) {
		return fmt.Errorf("%w: %s", ErrMissingSignature, from)
	}
	if err := tx.DebitLamports(solana.SystemProgramID, from, lamports); err != nil {
		return err
	}
	if err := tx.CreditLamports(to, lamports); err != nil {
		return err
	}

	tx.Record(system.NewTransferInstruction(lamports, from, to).Build())
	return nil
}

func requireSigner(tx *ledger.Tx, authority, expected solana.PublicKey) error {
	if !authority.Equals(expected) {
		return fmt.Errorf("%w: expected %s, got %s", ErrOwnerMismatch, expected, authority)
	}
	if !tx.IsSigner(authority) {
		return fmt.Errorf("%w: %s", ErrMissingSignature, authority)
	}
	return nil
}

func add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

func encode(v interface{}, size int) ([]byte, error) {
	buf := buffer.Get()
	defer buffer.Put(buf)

	if err := bin.NewBinEncoder(buf).Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode token state: %w", err)
	}
	if buf.Len() > size {
		return nil, fmt.Errorf("token state of %d bytes exceeds %d", buf.Len(), size)
	}
	data := make([]byte, size)
	copy(data, buf.Bytes())
	return data, nil
}
