package storage

import (
	"time"

	"github.com/lugondev/go-reserve/internal/pool"
)

type EventModel struct {
	ID           string                 `json:"id" bson:"_id,omitempty" db:"id"`
	ProgramID    string                 `json:"program_id" bson:"program_id" db:"program_id"`
	EventName    string                 `json:"event_name" bson:"event_name" db:"event_name"`
	Pool         string                 `json:"pool" bson:"pool" db:"pool"`
	BaseMint     string                 `json:"base_mint" bson:"base_mint" db:"base_mint"`
	User         string                 `json:"user" bson:"user" db:"user_key"`
	NativeAmount Amount                 `json:"native_amount" bson:"native_amount" db:"native_amount"`
	BaseAmount   Amount                 `json:"base_amount" bson:"base_amount" db:"base_amount"`
	ShareAmount  Amount                 `json:"share_amount" bson:"share_amount" db:"share_amount"`
	Data         map[string]interface{} `json:"data" bson:"data" db:"data"`
	Slot         uint64                 `json:"slot" bson:"slot" db:"slot"`
	CreatedAt    time.Time              `json:"created_at" bson:"created_at" db:"created_at"`
}

// PoolModel is the latest known state of one pool.
type PoolModel struct {
	ID                 string    `json:"id" bson:"_id,omitempty" db:"id"` // pool state address
	BaseMint           string    `json:"base_mint" bson:"base_mint" db:"base_mint"`
	Authority          string    `json:"authority" bson:"authority" db:"authority"`
	BaseVault          string    `json:"base_vault" bson:"base_vault" db:"base_vault"`
	QuoteVault         string    `json:"quote_vault" bson:"quote_vault" db:"quote_vault"`
	ShareMint          string    `json:"share_mint" bson:"share_mint" db:"share_mint"`
	Rate               Amount    `json:"rate" bson:"rate" db:"rate"`
	QuoteVaultLamports Amount    `json:"quote_vault_lamports" bson:"quote_vault_lamports" db:"quote_vault_lamports"`
	BaseVaultAmount    Amount    `json:"base_vault_amount" bson:"base_vault_amount" db:"base_vault_amount"`
	ShareSupply        Amount    `json:"share_supply" bson:"share_supply" db:"share_supply"`
	Slot               uint64    `json:"slot" bson:"slot" db:"slot"`
	UpdatedAt          time.Time `json:"updated_at" bson:"updated_at" db:"updated_at"`
	CreatedAt          time.Time `json:"created_at" bson:"created_at" db:"created_at"`
}

// NewEventModel converts a committed pool event into its stored form.
func NewEventModel(ev *pool.Event) *EventModel {
	return &EventModel{
		ID:           ev.ID.String(),
		ProgramID:    ev.ProgramID.String(),
		EventName:    ev.Name,
		Pool:         ev.Pool.String(),
		BaseMint:     ev.BaseMint.String(),
		User:         ev.User.String(),
		NativeAmount: Amount(ev.NativeAmount),
		BaseAmount:   Amount(ev.BaseAmount),
		ShareAmount:  Amount(ev.ShareAmount),
		Data:         eventData(ev),
		Slot:         ev.Slot,
		CreatedAt:    ev.Timestamp,
	}
}

// eventData is ev.Data with its amounts wrapped as Amount, so every backend can store them.
func eventData(ev *pool.Event) map[string]interface{} {
	data := ev.Data()
	for k, v := range data {
		if n, ok := v.(uint64); ok {
			data[k] = Amount(n)
		}
	}
	return data
}

// NewPoolModel returns the pool snapshot carried by ev, or nil when the event has none.
func NewPoolModel(ev *pool.Event) *PoolModel {
	snap := ev.Snapshot
	if snap == nil || snap.Accounts == nil {
		return nil
	}
	a := snap.Accounts
	return &PoolModel{
		ID:                 a.PoolState.Key.String(),
		BaseMint:           a.BaseMint.String(),
		Authority:          a.Authority.Key.String(),
		BaseVault:          a.BaseVault.Key.String(),
		QuoteVault:         a.QuoteVault.Key.String(),
		ShareMint:          a.ShareMint.Key.String(),
		Rate:               Amount(snap.Rate),
		QuoteVaultLamports: Amount(snap.QuoteVaultLamports),
		BaseVaultAmount:    Amount(snap.BaseVaultAmount),
		ShareSupply:        Amount(snap.ShareSupply),
		Slot:               snap.Slot,
		UpdatedAt:          ev.Timestamp,
		CreatedAt:          ev.Timestamp,
	}
}
