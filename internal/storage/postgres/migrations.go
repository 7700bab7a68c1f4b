package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lugondev/go-reserve/internal/common"
)

// Migration is one versioned schema change with its inverse.
type Migration struct {
	Version     int
	Description string
	Up          string
	Down        string
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Pool events and snapshots",
		Up: `
		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			program_id TEXT NOT NULL,
			event_name TEXT NOT NULL,
			pool TEXT NOT NULL,
			base_mint TEXT NOT NULL,
			user_key TEXT NOT NULL,
			native_amount BIGINT NOT NULL,
			base_amount BIGINT NOT NULL,
			share_amount BIGINT NOT NULL,
			data JSONB NOT NULL,
			slot BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_events_pool ON events(pool, slot DESC);
		CREATE INDEX IF NOT EXISTS idx_events_event_name ON events(event_name);
		CREATE INDEX IF NOT EXISTS idx_events_slot ON events(slot DESC);

		CREATE TABLE IF NOT EXISTS pools (
			id TEXT PRIMARY KEY,
			base_mint TEXT UNIQUE NOT NULL,
			authority TEXT NOT NULL,
			base_vault TEXT NOT NULL,
			quote_vault TEXT NOT NULL,
			share_mint TEXT NOT NULL,
			rate BIGINT NOT NULL,
			quote_vault_lamports BIGINT NOT NULL,
			base_vault_amount BIGINT NOT NULL,
			share_supply BIGINT NOT NULL,
			slot BIGINT NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL
		);
		`,
		Down: `
		DROP TABLE IF EXISTS pools;
		DROP TABLE IF EXISTS events;
		`,
	},
	{
		Version:     2,
		Description: "Per-user event lookup",
		Up:          `CREATE INDEX IF NOT EXISTS idx_events_user ON events(user_key, slot DESC);`,
		Down:        `DROP INDEX IF EXISTS idx_events_user;`,
	},
	{
		Version:     3,
		Description: "Unsigned 64-bit amounts",
		Up: `
		ALTER TABLE events
			ALTER COLUMN native_amount TYPE NUMERIC(20,0),
			ALTER COLUMN base_amount TYPE NUMERIC(20,0),
			ALTER COLUMN share_amount TYPE NUMERIC(20,0);
		ALTER TABLE pools
			ALTER COLUMN rate TYPE NUMERIC(20,0),
			ALTER COLUMN quote_vault_lamports TYPE NUMERIC(20,0),
			ALTER COLUMN base_vault_amount TYPE NUMERIC(20,0),
			ALTER COLUMN share_supply TYPE NUMERIC(20,0);
		`,
		Down: `
		ALTER TABLE events
			ALTER COLUMN native_amount TYPE BIGINT,
			ALTER COLUMN base_amount TYPE BIGINT,
			ALTER COLUMN share_amount TYPE BIGINT;
		ALTER TABLE pools
			ALTER COLUMN rate TYPE BIGINT,
			ALTER COLUMN quote_vault_lamports TYPE BIGINT,
			ALTER COLUMN base_vault_amount TYPE BIGINT,
			ALTER COLUMN share_supply TYPE BIGINT;
		`,
	},
}

// Migrations returns the known migrations in version order.
func Migrations() []Migration {
	return append([]Migration(nil), migrations...)
}

// migrationDB is implemented by *pgxpool.Pool and *pgx.Conn.
type migrationDB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Migrator applies migrations and records them in schema_migrations. Every migration
// runs in its own transaction, so a failure keeps the versions applied before it.
type Migrator struct {
	common.LoggerMixin
	db migrationDB
}

func NewMigrator(db migrationDB) *Migrator {
	return &Migrator{LoggerMixin: common.NewLoggerMixin(), db: db}
}

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INT PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TIMESTAMP NOT NULL DEFAULT NOW()
	)`

// Version returns the highest applied version, 0 on a fresh database.
func (m *Migrator) Version(ctx context.Context) (int, error) {
	if _, err := m.db.Exec(ctx, createMigrationsTable); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}
	var version int
	err := m.db.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

func (m *Migrator) apply(ctx context.Context, mig Migration, up bool) error {
	return pgx.BeginFunc(ctx, m.db, func(tx pgx.Tx) error {
		if !up {
			if _, err := tx.Exec(ctx, mig.Down); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, "DELETE FROM schema_migrations WHERE version = $1", mig.Version)
			return err
		}
		if _, err := tx.Exec(ctx, mig.Up); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			mig.Version, mig.Description,
		)
		return err
	})
}

// Up applies every migration newer than the current version and returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	current, err := m.Version(ctx)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, mig := range migrations {
		if mig.Version <= current {
			continue
		}
		if err := m.apply(ctx, mig, true); err != nil {
			return applied, fmt.Errorf("apply migration %d (%s): %w", mig.Version, mig.Description, err)
		}
		applied++
	}
	if applied > 0 {
		m.GetLogger().Info("applied migrations", "count", applied, "from_version", current)
	}
	return applied, nil
}

// Down reverts up to steps migrations, newest first, and returns how many ran.
func (m *Migrator) Down(ctx context.Context, steps int) (int, error) {
	current, err := m.Version(ctx)
	if err != nil {
		return 0, err
	}
	if current == 0 {
		return 0, fmt.Errorf("no migrations to roll back")
	}

	reverted := 0
	for i := len(migrations) - 1; i >= 0 && reverted < steps; i-- {
		mig := migrations[i]
		if mig.Version > current {
			continue
		}
		if err := m.apply(ctx, mig, false); err != nil {
			return reverted, fmt.Errorf("roll back migration %d: %w", mig.Version, err)
		}
		reverted++
	}
	m.GetLogger().Info("rolled back migrations", "count", reverted)
	return reverted, nil
}

// MigrationStatus reports whether one migration has been applied.
type MigrationStatus struct {
	Version     int    `json:"version" yaml:"version"`
	Description string `json:"description" yaml:"description"`
	Applied     bool   `json:"applied" yaml:"applied"`
}

func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	current, err := m.Version(ctx)
	if err != nil {
		return nil, err
	}
	status := make([]MigrationStatus, len(migrations))
	for i, mig := range migrations {
		status[i] = MigrationStatus{Version: mig.Version, Description: mig.Description, Applied: mig.Version <= current}
	}
	return status, nil
}
