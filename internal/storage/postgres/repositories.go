package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lugondev/go-reserve/internal/config"
	"github.com/lugondev/go-reserve/internal/storage"
)

const eventColumns = `id, program_id, event_name, pool, base_mint, user_key,
	native_amount, base_amount, share_amount, data, slot, created_at`

const insertEvent = `
	INSERT INTO events (` + eventColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO NOTHING
`

type postgresEventRepository struct {
	db Querier
}

func eventArgs(event *storage.EventModel, data []byte) []interface{} {
	return []interface{}{
		event.ID, event.ProgramID, event.EventName, event.Pool, event.BaseMint, event.User,
		event.NativeAmount, event.BaseAmount, event.ShareAmount, data, event.Slot, event.CreatedAt,
	}
}

func (r *postgresEventRepository) Save(ctx context.Context, event *storage.EventModel) error {
	dataJSON, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	_, err = r.db.Exec(ctx, insertEvent, eventArgs(event, dataJSON)...)
	return err
}

func (r *postgresEventRepository) SaveBatch(ctx context.Context, events []*storage.EventModel) error {
	_, err := storage.ExecBatch(ctx, r.db, events, func(b *pgx.Batch, event *storage.EventModel) error {
		dataJSON, err := json.Marshal(event.Data)
		if err != nil {
			return fmt.Errorf("marshal event %s data: %w", event.ID, err)
		}
		b.Queue(insertEvent, eventArgs(event, dataJSON)...)
		return nil
	})
	return err
}

func (r *postgresEventRepository) FindByID(ctx context.Context, id string) (*storage.EventModel, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	return queryOne(ctx, r.db, scanEvent, query, id)
}

func (r *postgresEventRepository) FindByPool(ctx context.Context, pool string, limit int, offset int) ([]*storage.EventModel, error) {
	query := `SELECT ` + eventColumns + `
		FROM events WHERE pool = $1 ORDER BY slot DESC LIMIT $2 OFFSET $3`

	return queryMany(ctx, r.db, scanEvent, query, pool, limit, offset)
}

func (r *postgresEventRepository) FindByEventName(ctx context.Context, eventName string, limit int, offset int) ([]*storage.EventModel, error) {
	query := `SELECT ` + eventColumns + `
		FROM events WHERE event_name = $1 ORDER BY slot DESC LIMIT $2 OFFSET $3`

	return queryMany(ctx, r.db, scanEvent, query, eventName, limit, offset)
}

func (r *postgresEventRepository) FindByUser(ctx context.Context, user string, limit int, offset int) ([]*storage.EventModel, error) {
	query := `SELECT ` + eventColumns + `
		FROM events WHERE user_key = $1 ORDER BY slot DESC LIMIT $2 OFFSET $3`

	return queryMany(ctx, r.db, scanEvent, query, user, limit, offset)
}

func (r *postgresEventRepository) FindBySlot(ctx context.Context, slot uint64, limit int, offset int) ([]*storage.EventModel, error) {
	query := `SELECT ` + eventColumns + `
		FROM events WHERE slot = $1 ORDER BY created_at LIMIT $2 OFFSET $3`

	return queryMany(ctx, r.db, scanEvent, query, slot, limit, offset)
}

func scanEvent(row scanner) (*storage.EventModel, error) {
	var event storage.EventModel
	var dataJSON []byte

	err := row.Scan(
		&event.ID, &event.ProgramID, &event.EventName, &event.Pool, &event.BaseMint, &event.User,
		&event.NativeAmount, &event.BaseAmount, &event.ShareAmount, &dataJSON, &event.Slot, &event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Amounts in data may exceed float64 precision.
	dec := json.NewDecoder(bytes.NewReader(dataJSON))
	dec.UseNumber()
	if err := dec.Decode(&event.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
	}

	return &event, nil
}

const poolColumns = `id, base_mint, authority, base_vault, quote_vault, share_mint,
	rate, quote_vault_lamports, base_vault_amount, share_supply, slot, updated_at, created_at`

type postgresPoolRepository struct {
	db Querier
}

// Upsert never moves a pool back to an older slot.
func (r *postgresPoolRepository) Upsert(ctx context.Context, p *storage.PoolModel) error {
	query := `
		INSERT INTO pools (` + poolColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			rate = $7, quote_vault_lamports = $8, base_vault_amount = $9, share_supply = $10,
			slot = $11, updated_at = $12
		WHERE pools.slot <= $11
	`
	_, err := r.db.Exec(ctx, query,
		p.ID, p.BaseMint, p.Authority, p.BaseVault, p.QuoteVault, p.ShareMint,
		p.Rate, p.QuoteVaultLamports, p.BaseVaultAmount, p.ShareSupply, p.Slot, p.UpdatedAt, p.CreatedAt,
	)
	return err
}

func (r *postgresPoolRepository) FindByBaseMint(ctx context.Context, baseMint string) (*storage.PoolModel, error) {
	query := `SELECT ` + poolColumns + ` FROM pools WHERE base_mint = $1`

	return queryOne(ctx, r.db, scanPool, query, baseMint)
}

func (r *postgresPoolRepository) List(ctx context.Context, limit int, offset int) ([]*storage.PoolModel, error) {
	query := `SELECT ` + poolColumns + ` FROM pools ORDER BY created_at LIMIT $1 OFFSET $2`

	return queryMany(ctx, r.db, scanPool, query, limit, offset)
}

func scanPool(row scanner) (*storage.PoolModel, error) {
	var p storage.PoolModel
	err := row.Scan(
		&p.ID, &p.BaseMint, &p.Authority, &p.BaseVault, &p.QuoteVault, &p.ShareMint,
		&p.Rate, &p.QuoteVaultLamports, &p.BaseVaultAmount, &p.ShareSupply, &p.Slot, &p.UpdatedAt, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func init() {
	storage.Register(config.DatabasePostgres, func(ctx context.Context, cfg *config.DatabaseConfig) (storage.Repository, error) {
		return NewPostgresRepository(ctx, &cfg.Postgres)
	})
}
