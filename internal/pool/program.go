// Package pool implements the reserve program: a two-asset liquidity pool between a
// base SPL mint and the ledger's native lamports.
//
// A pool is anchored on its base mint. Initialize creates the pool record, the base
// vault, the quote vault and the share mint at addresses derived from the mint; the
// vaults and the share mint are controlled by a program-derived authority that only this
// package can sign for. AddLiquidity mints one share per deposited lamport and pulls both
// reserves from the caller. RemoveLiquidity burns shares and pays out one lamport and
// Rate base units per share.
//
// Every operation is a single ledger unit of work: it either commits completely or has
// no effect at all.
package pool

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/lugondev/go-reserve/internal/common"
	"github.com/lugondev/go-reserve/internal/derive"
	reserveerrors "github.com/lugondev/go-reserve/internal/errors"
	"github.com/lugondev/go-reserve/internal/ledger"
	"github.com/lugondev/go-reserve/internal/metrics"
	"github.com/lugondev/go-reserve/internal/processor"
	"github.com/lugondev/go-reserve/internal/token"
)

// ShareDecimals is the precision of every share mint.
const ShareDecimals = 9

// DefaultRate is the number of base units paid per share when none is configured.
const DefaultRate uint64 = 10

// InitializeParams are the inputs of Initialize.
type InitializeParams struct {
	BaseMint solana.PublicKey
	Payer    solana.PublicKey
}

// AddLiquidityParams are the inputs of AddLiquidity.
type AddLiquidityParams struct {
	BaseMint         solana.PublicKey
	User             solana.PublicKey
	UserBaseAccount  solana.PublicKey
	UserShareAccount solana.PublicKey
	NativeAmount     uint64
	BaseAmount       uint64
}

// RemoveLiquidityParams are the inputs of RemoveLiquidity.
type RemoveLiquidityParams struct {
	BaseMint         solana.PublicKey
	User             solana.PublicKey
	UserBaseAccount  solana.PublicKey
	UserShareAccount solana.PublicKey
	ShareAmount      uint64
}

// Program executes pool operations against a ledger.
type Program struct {
	common.LoggerMixin

	ledger    *ledger.Ledger
	deriver   *derive.Deriver
	tokens    token.Ledger
	native    token.Native
	processor processor.Processor[*Event]
	metrics   *metrics.Collection
	rate      uint64
}

// ProgramID returns the id the pool accounts are derived under.
func (p *Program) ProgramID() solana.PublicKey {
	return p.deriver.ProgramID()
}

// Rate returns the number of base units paid out per share.
func (p *Program) Rate() uint64 {
	return p.rate
}

// Accounts returns the derived accounts of the pool anchored on baseMint.
func (p *Program) Accounts(baseMint solana.PublicKey) (*Accounts, error) {
	return DeriveAccounts(p.deriver, baseMint)
}

// Initialize creates the pool for params.BaseMint together with its vaults and share mint.
// It fails with ErrPoolAlreadyInitialized on every call after the first.
func (p *Program) Initialize(ctx context.Context, params InitializeParams) (*Event, error) {
	accts, err := p.Accounts(params.BaseMint)
	if err != nil {
		return nil, err
	}
	auth, err := newAuthority(p.deriver, accts)
	if err != nil {
		return nil, err
	}

	inv := ledger.Invocation{
		Signers:  []solana.PublicKey{params.Payer},
		Writable: accts.Keys(),
	}

	return p.execute(ctx, EventPoolInitialized, inv, accts, func(tx *ledger.Tx, ev *Event) error {
		ev.User = params.Payer
		if params.Payer.IsZero() {
			return fmt.Errorf("%w: payer", token.ErrMissingSignature)
		}

		if _, err := p.tokens.Mint(tx, params.BaseMint); err != nil {
			return reserveerrors.ErrInvalidMint.WithCause(err)
		}

		if acct, err := tx.Get(accts.PoolState.Key); err == nil {
			if st, err := DecodeState(acct.Data); err == nil && st.IsInitialized {
				return reserveerrors.ErrPoolAlreadyInitialized
			}
		}

		data, err := EncodeState(State{IsInitialized: true})
		if err != nil {
			return err
		}
		if err := tx.Create(accts.PoolState.Key, p.ProgramID(), data); err != nil {
			if errors.Is(err, ledger.ErrAccountInUse) {
				return reserveerrors.ErrPoolAlreadyInitialized.WithCause(err)
			}
			return err
		}

		if err := p.tokens.InitializeMint(tx, accts.ShareMint.Key, ShareDecimals, auth.key()); err != nil {
			return fmt.Errorf("failed to create share mint: %w", err)
		}
		if err := p.tokens.InitializeAccount(tx, accts.BaseVault.Key, params.BaseMint, auth.key()); err != nil {
			return fmt.Errorf("failed to create base vault: %w", err)
		}
		if err := tx.Create(accts.QuoteVault.Key, p.ProgramID(), nil); err != nil {
			return fmt.Errorf("failed to create quote vault: %w", err)
		}
		return nil
	})
}

// AddLiquidity mints params.NativeAmount shares to the user and moves NativeAmount
// lamports and BaseAmount base units from the user into the vaults.
//
// BaseAmount is not checked against NativeAmount * Rate.
func (p *Program) AddLiquidity(ctx context.Context, params AddLiquidityParams) (*Event, error) {
	accts, err := p.Accounts(params.BaseMint)
	if err != nil {
		return nil, err
	}
	auth, err := newAuthority(p.deriver, accts)
	if err != nil {
		return nil, err
	}

	inv := ledger.Invocation{
		Signers: []solana.PublicKey{params.User},
		Writable: []solana.PublicKey{
			accts.PoolState.Key, accts.ShareMint.Key, accts.QuoteVault.Key, accts.BaseVault.Key,
			params.User, params.UserBaseAccount, params.UserShareAccount,
		},
	}

	return p.execute(ctx, EventLiquidityAdded, inv, accts, func(tx *ledger.Tx, ev *Event) error {
		ev.User = params.User
		ev.NativeAmount = params.NativeAmount
		ev.BaseAmount = params.BaseAmount

		if err := p.requireInitialized(tx, accts); err != nil {
			return err
		}
		if err := p.checkHolding(tx, params.UserBaseAccount, params.User, params.BaseMint); err != nil {
			return err
		}
		if err := p.checkHolding(tx, params.UserShareAccount, params.User, accts.ShareMint.Key); err != nil {
			return err
		}

		shares := params.NativeAmount
		ev.ShareAmount = shares

		if err := auth.sign(tx, func(signer solana.PublicKey) error {
			return p.tokens.MintTo(tx, accts.ShareMint.Key, params.UserShareAccount, signer, shares)
		}); err != nil {
			return err
		}
		if err := p.native.Transfer(tx, params.User, accts.QuoteVault.Key, params.NativeAmount); err != nil {
			return err
		}
		return p.tokens.Transfer(tx, params.UserBaseAccount, accts.BaseVault.Key, params.User, params.BaseAmount)
	})
}

// RemoveLiquidity burns params.ShareAmount shares and pays the user ShareAmount lamports
// and ShareAmount * Rate base units. It fails with ErrInvalidRate when the quote vault
// holds fewer than ShareAmount lamports.
func (p *Program) RemoveLiquidity(ctx context.Context, params RemoveLiquidityParams) (*Event, error) {
	accts, err := p.Accounts(params.BaseMint)
	if err != nil {
		return nil, err
	}
	auth, err := newAuthority(p.deriver, accts)
	if err != nil {
		return nil, err
	}

	inv := ledger.Invocation{
		Signers: []solana.PublicKey{params.User},
		Writable: []solana.PublicKey{
			accts.PoolState.Key, accts.ShareMint.Key, accts.QuoteVault.Key, accts.BaseVault.Key,
			params.User, params.UserBaseAccount, params.UserShareAccount,
		},
	}

	return p.execute(ctx, EventLiquidityRemoved, inv, accts, func(tx *ledger.Tx, ev *Event) error {
		ev.User = params.User
		ev.ShareAmount = params.ShareAmount
		ev.NativeAmount = params.ShareAmount

		if err := p.requireInitialized(tx, accts); err != nil {
			return err
		}

		quote, err := tx.Get(accts.QuoteVault.Key)
		if err != nil {
			return err
		}
		if params.ShareAmount > quote.Lamports {
			return reserveerrors.ErrInvalidRate.WithDetails(map[string]any{
				"shares":      params.ShareAmount,
				"quote_vault": quote.Lamports,
			})
		}

		hi, baseOut := bits.Mul64(params.ShareAmount, p.rate)
		if hi != 0 {
			return reserveerrors.ErrMathOverflow
		}
		ev.BaseAmount = baseOut

		if err := p.tokens.Burn(tx, accts.ShareMint.Key, params.UserShareAccount, params.User, params.ShareAmount); err != nil {
			return err
		}
		if err := auth.payNative(tx, params.User, params.ShareAmount); err != nil {
			return err
		}
		return auth.sign(tx, func(signer solana.PublicKey) error {
			return p.tokens.Transfer(tx, accts.BaseVault.Key, params.UserBaseAccount, signer, baseOut)
		})
	})
}

// Pool returns a consistent snapshot of the pool anchored on baseMint.
func (p *Program) Pool(ctx context.Context, baseMint solana.PublicKey) (*Snapshot, error) {
	accts, err := p.Accounts(baseMint)
	if err != nil {
		return nil, err
	}

	var snap *Snapshot
	receipt, err := p.ledger.Execute(ctx, ledger.Invocation{Writable: accts.Keys()}, func(tx *ledger.Tx) error {
		var err error
		snap, err = p.snapshot(tx, accts)
		return err
	})
	if err != nil {
		return nil, err
	}
	snap.Slot = receipt.Slot
	return snap, nil
}

func (p *Program) requireInitialized(tx *ledger.Tx, accts *Accounts) error {
	acct, err := tx.Get(accts.PoolState.Key)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return reserveerrors.ErrPoolNotInitialized
	}
	if err != nil {
		return err
	}
	if !acct.Owner.Equals(p.ProgramID()) {
		return reserveerrors.ErrPoolNotInitialized
	}
	st, err := DecodeState(acct.Data)
	if err != nil {
		return reserveerrors.ErrPoolNotInitialized.WithCause(err)
	}
	if !st.IsInitialized {
		return reserveerrors.ErrPoolNotInitialized
	}
	return nil
}

// checkHolding verifies a caller token account belongs to owner and holds mint.
func (p *Program) checkHolding(tx *ledger.Tx, account, owner, mint solana.PublicKey) error {
	a, err := p.tokens.Account(tx, account)
	if err != nil {
		return err
	}
	if !a.Owner.Equals(owner) {
		return fmt.Errorf("%w: %s is owned by %s", token.ErrOwnerMismatch, account, a.Owner)
	}
	if !a.Mint.Equals(mint) {
		return fmt.Errorf("%w: %s holds %s, not %s", token.ErrMintMismatch, account, a.Mint, mint)
	}
	return nil
}

func (p *Program) snapshot(tx *ledger.Tx, accts *Accounts) (*Snapshot, error) {
	if err := p.requireInitialized(tx, accts); err != nil {
		return nil, err
	}

	quote, err := tx.Get(accts.QuoteVault.Key)
	if err != nil {
		return nil, err
	}
	vault, err := p.tokens.Account(tx, accts.BaseVault.Key)
	if err != nil {
		return nil, err
	}
	mint, err := p.tokens.Mint(tx, accts.ShareMint.Key)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Accounts:           accts,
		Initialized:        true,
		Rate:               p.rate,
		QuoteVaultLamports: quote.Lamports,
		BaseVaultAmount:    vault.Amount,
		ShareSupply:        mint.Supply,
		ShareDecimals:      mint.Decimals,
	}, nil
}

func (p *Program) execute(
	ctx context.Context,
	name string,
	inv ledger.Invocation,
	accts *Accounts,
	fn func(tx *ledger.Tx, ev *Event) error,
) (*Event, error) {
	start := time.Now()
	logger := p.GetLogger()

	ev := &Event{
		ID:        uuid.New(),
		Name:      name,
		ProgramID: p.ProgramID(),
		Pool:      accts.PoolState.Key,
		BaseMint:  accts.BaseMint,
	}

	var snap *Snapshot
	receipt, err := p.ledger.Execute(ctx, inv, func(tx *ledger.Tx) error {
		if err := fn(tx, ev); err != nil {
			return err
		}
		var err error
		snap, err = p.snapshot(tx, accts)
		return err
	})

	p.histogram(ctx, metrics.MetricOperationDurationMillis, float64(time.Since(start).Microseconds())/1000)

	if err != nil {
		p.count(ctx, metrics.MetricOperationsFailed, 1)
		logger.Warn("pool operation failed",
			"operation", name,
			"base_mint", accts.BaseMint,
			"code", reserveerrors.Code(err),
			"error", err,
		)
		return nil, err
	}

	snap.Slot = receipt.Slot
	ev.Slot = receipt.Slot
	ev.Timestamp = time.Now()
	ev.Instructions = receipt.Instructions
	ev.Snapshot = snap

	logger.Info("pool operation committed",
		"operation", name,
		"base_mint", accts.BaseMint,
		"slot", receipt.Slot,
		"instructions", len(receipt.Instructions),
	)
	p.record(ctx, ev)

	if err := p.processor.Process(ctx, ev, p.metrics); err != nil {
		p.count(ctx, metrics.MetricEventsFailed, 1)
		logger.Error("failed to process pool event", "event", ev.Name, "id", ev.ID, "error", err)
		return ev, reserveerrors.ProcessFailed("pool event", err)
	}
	p.count(ctx, metrics.MetricEventsProcessed, 1)
	return ev, nil
}

func (p *Program) record(ctx context.Context, ev *Event) {
	switch ev.Name {
	case EventPoolInitialized:
		p.count(ctx, metrics.MetricPoolsInitialized, 1)
	case EventLiquidityAdded:
		p.count(ctx, metrics.MetricLiquidityAdded, 1)
		p.count(ctx, metrics.MetricNativeDeposited, ev.NativeAmount)
	case EventLiquidityRemoved:
		p.count(ctx, metrics.MetricLiquidityRemoved, 1)
		p.count(ctx, metrics.MetricNativeWithdrawn, ev.NativeAmount)
	}

	p.gauge(ctx, metrics.MetricQuoteVaultLamports, float64(ev.Snapshot.QuoteVaultLamports))
	p.gauge(ctx, metrics.MetricBaseVaultAmount, float64(ev.Snapshot.BaseVaultAmount))
	p.gauge(ctx, metrics.MetricShareSupply, float64(ev.Snapshot.ShareSupply))
}

func (p *Program) count(ctx context.Context, name string, v uint64) {
	if err := p.metrics.IncrementCounter(ctx, name, v); err != nil {
		p.GetLogger().Debug("failed to increment counter", "name", name, "error", err)
	}
}

func (p *Program) gauge(ctx context.Context, name string, v float64) {
	if err := p.metrics.UpdateGauge(ctx, name, v); err != nil {
		p.GetLogger().Debug("failed to update gauge", "name", name, "error", err)
	}
}

func (p *Program) histogram(ctx context.Context, name string, v float64) {
	if err := p.metrics.RecordHistogram(ctx, name, v); err != nil {
		p.GetLogger().Debug("failed to record histogram", "name", name, "error", err)
	}
}
