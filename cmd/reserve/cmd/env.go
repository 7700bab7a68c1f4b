package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lugondev/go-reserve/internal/common"
	"github.com/lugondev/go-reserve/internal/config"
	"github.com/lugondev/go-reserve/internal/derive"
	"github.com/lugondev/go-reserve/internal/ledger"
	"github.com/lugondev/go-reserve/internal/ledger/kv/leveldb"
	"github.com/lugondev/go-reserve/internal/ledger/kv/pebble"
	"github.com/lugondev/go-reserve/internal/metrics"
	"github.com/lugondev/go-reserve/internal/pool"
	"github.com/lugondev/go-reserve/internal/processor"
	"github.com/lugondev/go-reserve/internal/processor/database"
	"github.com/lugondev/go-reserve/internal/storage"
	_ "github.com/lugondev/go-reserve/internal/storage/mongo"
	_ "github.com/lugondev/go-reserve/internal/storage/postgres"
)

// env is everything a command needs to run pool operations against the local ledger.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	ledger  *ledger.Ledger
	deriver *derive.Deriver
	program *pool.Program
	metrics *metrics.Collection
	repo    storage.Repository

	registry *prometheus.Registry
	conn     *storage.ConnectionManager
	batch    *database.BatchStorageProcessor
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	e := &env{
		cfg:     cfg,
		logger:  newLogger(cfg),
		metrics: metrics.NewCollection(),
	}

	store, err := openStore(cfg.Ledger)
	if err != nil {
		return nil, err
	}
	e.ledger, err = ledger.New(ctx, store, e.logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	programID, err := cfg.Program.PublicKey()
	if err != nil {
		e.Close(ctx)
		return nil, err
	}
	e.deriver, err = derive.NewDeriver(programID, cfg.Ledger.CacheSize)
	if err != nil {
		e.Close(ctx)
		return nil, err
	}

	if cfg.Metrics.Enabled {
		e.addMetrics()
	}
	if err := e.metrics.Initialize(ctx); err != nil {
		e.Close(ctx)
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	events := processor.NewChainedProcessor[*pool.Event](
		processor.NewLogProcessor(e.logger, "pool event", func(ev *pool.Event) []any {
			return []any{"id", ev.ID, "event", ev.Name, "slot", ev.Slot, "pool", ev.Pool}
		}),
	)
	if cfg.Database.Enabled {
		if err := e.connectDatabase(ctx); err != nil {
			e.Close(ctx)
			return nil, err
		}
		events.Add(processor.NewErrorHandlingProcessor[*pool.Event](
			e.storageProcessor(),
			func(err error) error {
				return fmt.Errorf("%s event storage: %w", e.cfg.Database.Type, err)
			},
		))
	}

	e.program, err = pool.NewProgramBuilder(e.ledger, e.deriver).
		Rate(cfg.Program.Rate).
		Processor(events).
		Metrics(e.metrics).
		Logger(e.logger).
		Build()
	if err != nil {
		e.Close(ctx)
		return nil, err
	}
	return e, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return common.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
}

func openStore(cfg config.LedgerConfig) (ledger.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return ledger.NewMemoryStore(), nil
	case config.BackendPebble:
		db, err := pebble.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.BackendLevelDB:
		db, err := leveldb.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported ledger backend: %s", cfg.Backend)
	}
}

func (e *env) addMetrics() {
	switch e.cfg.Metrics.Backend {
	case config.MetricsPrometheus:
		e.registry = prometheus.NewRegistry()
		e.metrics.Add(metrics.NewPrometheusMetrics(e.cfg.Metrics.Namespace, e.registry))
	default:
		e.metrics.Add(metrics.NewLogMetrics(e.logger))
	}
}

func (e *env) storageProcessor() processor.Processor[*pool.Event] {
	if e.cfg.Database.BatchSize > 1 {
		e.batch = database.NewBatchStorageProcessor(e.repo, e.logger, e.cfg.Database.BatchSize)
		return e.batch
	}
	return database.NewStorageProcessor(e.repo, e.logger)
}

func (e *env) connectDatabase(ctx context.Context) error {
	conn, err := storage.NewConnectionManager(&e.cfg.Database)
	if err != nil {
		return err
	}
	repo, err := conn.Connect(ctx)
	if err != nil {
		return err
	}
	e.conn = conn
	e.repo = repo
	return nil
}

// Close flushes metrics and releases the ledger and the database connection.
func (e *env) Close(ctx context.Context) error {
	var errs []error
	if e.batch != nil {
		errs = append(errs, e.batch.Flush(ctx, e.metrics))
	}
	if e.metrics != nil {
		errs = append(errs, e.metrics.Flush(ctx))
		if e.registry != nil {
			errs = append(errs, writeTextfile(e.cfg.Metrics.Textfile, e.registry))
		}
		errs = append(errs, e.metrics.Shutdown(ctx))
	}
	if e.conn != nil {
		errs = append(errs, e.conn.Close())
	}
	if e.ledger != nil {
		errs = append(errs, e.ledger.Close())
	}
	return errors.Join(errs...)
}

func writeTextfile(path string, g prometheus.Gatherer) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, g)
}
