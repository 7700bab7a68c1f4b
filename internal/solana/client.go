// Package solana reads reserve pools deployed on a Solana cluster and manages keypair files.
package solana

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/lugondev/go-reserve/internal/derive"
	reserveerrors "github.com/lugondev/go-reserve/internal/errors"
	"github.com/lugondev/go-reserve/internal/pool"
	"github.com/lugondev/go-reserve/pkg/view"
)

// DefaultMaxRetries is the default number of attempts for RPC calls.
const DefaultMaxRetries = 3

// DefaultRetryDelay is the default delay between attempts.
const DefaultRetryDelay = 500 * time.Millisecond

// Config holds the configuration for the RPC client.
type Config struct {
	Endpoint   string
	Commitment rpc.CommitmentType
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultConfig returns a configuration reading confirmed state from endpoint.
func DefaultConfig(endpoint string) *Config {
	return &Config{
		Endpoint:   endpoint,
		Commitment: rpc.CommitmentConfirmed,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
	}
}

// Client wraps the Solana RPC client
type Client struct {
	config *Config
	rpc    *rpc.Client
	logger *slog.Logger
}

// NewClient creates a new Solana client
func NewClient(cfg *Config) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	return &Client{
		config: cfg,
		rpc:    rpc.New(cfg.Endpoint),
		logger: slog.Default(),
	}
}

// WithLogger sets a custom logger.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger
	return c
}

// GetBalance returns the balance of an account in lamports
func (c *Client) GetBalance(ctx context.Context, pubkey solana.PublicKey) (uint64, error) {
	var balance uint64
	err := c.withRetry(ctx, "getBalance", func() error {
		result, err := c.rpc.GetBalance(ctx, pubkey, c.config.Commitment)
		if err != nil {
			return err
		}
		balance = result.Value
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// GetPool reads the pool anchored on baseMint from the program the deriver derives for.
// The rate is not stored on chain and is taken from the caller.
func (c *Client) GetPool(ctx context.Context, d *derive.Deriver, baseMint solana.PublicKey, rate uint64) (*pool.Snapshot, error) {
	accts, err := pool.DeriveAccounts(d, baseMint)
	if err != nil {
		return nil, err
	}

	var result *rpc.GetMultipleAccountsResult
	err = c.withRetry(ctx, "getMultipleAccounts", func() error {
		var err error
		result, err = c.rpc.GetMultipleAccountsWithOpts(ctx, accts.Keys(), &rpc.GetMultipleAccountsOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: c.config.Commitment,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get pool accounts: %w", err)
	}
	if len(result.Value) != 4 {
		return nil, fmt.Errorf("expected 4 pool accounts, got %d", len(result.Value))
	}

	stateAcc, baseVaultAcc, quoteVaultAcc, shareMintAcc := result.Value[0], result.Value[1], result.Value[2], result.Value[3]
	if stateAcc == nil {
		return nil, reserveerrors.ErrPoolNotInitialized
	}
	if !stateAcc.Owner.Equals(d.ProgramID()) {
		return nil, reserveerrors.DecodeFailed("pool state",
			fmt.Errorf("owned by %s, not %s", stateAcc.Owner, d.ProgramID()))
	}
	state, err := pool.DecodeState(stateAcc.Data.GetBinary())
	if err != nil {
		return nil, reserveerrors.DecodeFailed("pool state", err)
	}
	if !state.IsInitialized {
		return nil, reserveerrors.ErrPoolNotInitialized
	}

	snap := &pool.Snapshot{
		Accounts:    accts,
		Initialized: true,
		Rate:        rate,
		Slot:        result.Context.Slot,
	}

	if quoteVaultAcc != nil {
		snap.QuoteVaultLamports = quoteVaultAcc.Lamports
	}
	if baseVaultAcc == nil {
		return nil, reserveerrors.DecodeFailed("base vault", fmt.Errorf("account %s missing", accts.BaseVault.Key))
	}
	vault, err := view.NewTokenAccountView(baseVaultAcc.Data.GetBinary())
	if err != nil {
		return nil, reserveerrors.DecodeFailed("base vault", err)
	}
	snap.BaseVaultAmount = vault.Amount()

	if shareMintAcc == nil {
		return nil, reserveerrors.DecodeFailed("share mint", fmt.Errorf("account %s missing", accts.ShareMint.Key))
	}
	mint, err := view.NewMintView(shareMintAcc.Data.GetBinary())
	if err != nil {
		return nil, reserveerrors.DecodeFailed("share mint", err)
	}
	snap.ShareSupply = mint.Supply()
	snap.ShareDecimals = mint.Decimals()

	return snap, nil
}

func (c *Client) withRetry(ctx context.Context, method string, call func() error) error {
	var lastErr error

	for i := 0; i < c.config.MaxRetries; i++ {
		err := call()
		if err == nil {
			return nil
		}

		lastErr = err
		c.logger.Debug("RPC call failed, retrying",
			"method", method,
			"attempt", i+1,
			"error", err,
		)

		if i == c.config.MaxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.config.RetryDelay):
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", c.config.MaxRetries, lastErr)
}
