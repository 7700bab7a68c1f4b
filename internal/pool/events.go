package pool

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

// Event names.
const (
	EventPoolInitialized  = "PoolInitialized"
	EventLiquidityAdded   = "LiquidityAdded"
	EventLiquidityRemoved = "LiquidityRemoved"
)

// Event describes one committed pool operation.
type Event struct {
	ID        uuid.UUID
	Name      string
	Slot      uint64
	Timestamp time.Time
	ProgramID solana.PublicKey
	Pool      solana.PublicKey
	BaseMint  solana.PublicKey
	User      solana.PublicKey

	NativeAmount uint64
	BaseAmount   uint64
	ShareAmount  uint64

	// Instructions is the trace of token and system instructions the operation executed.
	Instructions []solana.Instruction

	// Snapshot is the pool as left by the operation.
	Snapshot *Snapshot
}

// Data returns the event fields in a form suitable for document storage.
func (e *Event) Data() map[string]interface{} {
	programs := make([]string, 0, len(e.Instructions))
	for _, ix := range e.Instructions {
		programs = append(programs, ix.ProgramID().String())
	}
	return map[string]interface{}{
		"pool":          e.Pool.String(),
		"base_mint":     e.BaseMint.String(),
		"user":          e.User.String(),
		"native_amount": e.NativeAmount,
		"base_amount":   e.BaseAmount,
		"share_amount":  e.ShareAmount,
		"instructions":  programs,
	}
}

// Snapshot is a consistent view of one pool.
type Snapshot struct {
	Accounts           *Accounts `json:"accounts" yaml:"accounts"`
	Initialized        bool      `json:"initialized" yaml:"initialized"`
	Rate               uint64    `json:"rate" yaml:"rate"`
	QuoteVaultLamports uint64    `json:"quote_vault_lamports" yaml:"quote_vault_lamports"`
	BaseVaultAmount    uint64    `json:"base_vault_amount" yaml:"base_vault_amount"`
	ShareSupply        uint64    `json:"share_supply" yaml:"share_supply"`
	ShareDecimals      uint8     `json:"share_decimals" yaml:"share_decimals"`
	Slot               uint64    `json:"slot" yaml:"slot"`
}
