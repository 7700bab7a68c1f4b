package config

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"

	reserveerrors "github.com/lugondev/go-reserve/internal/errors"
)

// DefaultProgramID is the address the reserve program was deployed under.
const DefaultProgramID = "E1CRjpkK9JyHhNvSFeVy1BgQSJx1CPZQuGfnrXR8Sbs2"

// DefaultRate is the number of base units paid out per share on withdrawal.
const DefaultRate uint64 = 10

// Ledger backends.
const (
	BackendMemory  = "memory"
	BackendPebble  = "pebble"
	BackendLevelDB = "leveldb"
)

// Metrics backends.
const (
	MetricsLog        = "log"
	MetricsPrometheus = "prometheus"
)

// Database types.
const (
	DatabaseMongoDB  = "mongodb"
	DatabasePostgres = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	Program  ProgramConfig  `mapstructure:"program"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Solana   SolanaConfig   `mapstructure:"solana"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Database DatabaseConfig `mapstructure:"database"`
}

// ProgramConfig identifies the program and its process-wide exchange rate.
type ProgramConfig struct {
	ID   string `mapstructure:"id"`
	Rate uint64 `mapstructure:"rate"`
}

// LedgerConfig selects where the local ledger keeps its accounts.
type LedgerConfig struct {
	Backend   string `mapstructure:"backend"`
	Path      string `mapstructure:"path"`
	CacheSize int    `mapstructure:"cache_size"` // derived address cache entries
}

// SolanaConfig holds Solana-specific configuration
type SolanaConfig struct {
	RPC     string `mapstructure:"rpc"`
	Network string `mapstructure:"network"`
	Timeout int    `mapstructure:"timeout"` // in seconds
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Backend   string `mapstructure:"backend"` // log or prometheus
	Namespace string `mapstructure:"namespace"`
	Textfile  string `mapstructure:"textfile"` // prometheus textfile written on shutdown
}

// DatabaseConfig holds event storage configuration
type DatabaseConfig struct {
	Enabled   bool           `mapstructure:"enabled"`
	Type      string         `mapstructure:"type"`
	BatchSize int            `mapstructure:"batch_size"` // events buffered per write, 0 writes each event
	Postgres  PostgresConfig `mapstructure:"postgres"`
	MongoDB   MongoDBConfig  `mapstructure:"mongodb"`
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // in seconds
}

// MongoDBConfig holds MongoDB connection settings
type MongoDBConfig struct {
	URI            string `mapstructure:"uri"`
	Database       string `mapstructure:"database"`
	MaxPoolSize    uint64 `mapstructure:"max_pool_size"`
	MinPoolSize    uint64 `mapstructure:"min_pool_size"`
	ConnectTimeout int    `mapstructure:"connect_timeout"` // in seconds
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Program: ProgramConfig{
			ID:   DefaultProgramID,
			Rate: DefaultRate,
		},
		Ledger: LedgerConfig{
			Backend:   BackendPebble,
			Path:      ".reserve/ledger",
			CacheSize: 1024,
		},
		Solana: SolanaConfig{
			RPC:     "",
			Network: "devnet",
			Timeout: 30,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Backend:   MetricsLog,
			Namespace: "reserve",
			Textfile:  ".reserve/metrics.prom",
		},
		Database: DatabaseConfig{
			Enabled: false,
			Type:    DatabasePostgres,
			Postgres: PostgresConfig{
				Host:            "localhost",
				Port:            5432,
				User:            "reserve",
				Database:        "reserve",
				SSLMode:         "disable",
				MaxOpenConns:    10,
				MaxIdleConns:    2,
				ConnMaxLifetime: 300,
			},
			MongoDB: MongoDBConfig{
				URI:            "mongodb://localhost:27017",
				Database:       "reserve",
				MaxPoolSize:    10,
				MinPoolSize:    1,
				ConnectTimeout: 10,
			},
		},
	}
}

// Load loads configuration from file and environment using the global viper instance.
func Load(configPath string) (*Config, error) {
	return LoadWith(viper.GetViper(), configPath)
}

// LoadWith loads configuration through v, so callers that bound flags to v see them applied.
func LoadWith(v *viper.Viper, configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".reserve")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	setDefaults(v, cfg)

	// Environment variables
	v.SetEnvPrefix("RESERVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys absent from the file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("program.id", cfg.Program.ID)
	v.SetDefault("program.rate", cfg.Program.Rate)
	v.SetDefault("ledger.backend", cfg.Ledger.Backend)
	v.SetDefault("ledger.path", cfg.Ledger.Path)
	v.SetDefault("ledger.cache_size", cfg.Ledger.CacheSize)
	v.SetDefault("solana.rpc", cfg.Solana.RPC)
	v.SetDefault("solana.network", cfg.Solana.Network)
	v.SetDefault("solana.timeout", cfg.Solana.Timeout)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.backend", cfg.Metrics.Backend)
	v.SetDefault("metrics.namespace", cfg.Metrics.Namespace)
	v.SetDefault("metrics.textfile", cfg.Metrics.Textfile)
	v.SetDefault("database.enabled", cfg.Database.Enabled)
	v.SetDefault("database.type", cfg.Database.Type)
	v.SetDefault("database.batch_size", cfg.Database.BatchSize)
}

// Validate rejects configurations the program cannot run with.
func (c *Config) Validate() error {
	if c.Program.Rate == 0 {
		return reserveerrors.InvalidConfig("program.rate must be greater than zero")
	}
	if _, err := c.Program.PublicKey(); err != nil {
		return reserveerrors.InvalidConfig("program.id is not a valid address").WithCause(err)
	}

	switch c.Ledger.Backend {
	case BackendMemory:
	case BackendPebble, BackendLevelDB:
		if c.Ledger.Path == "" {
			return reserveerrors.InvalidConfig(fmt.Sprintf("ledger.path is required for backend %q", c.Ledger.Backend))
		}
	default:
		return reserveerrors.InvalidConfig(fmt.Sprintf("unsupported ledger backend %q", c.Ledger.Backend))
	}

	if c.Metrics.Enabled {
		switch c.Metrics.Backend {
		case MetricsLog, MetricsPrometheus:
		default:
			return reserveerrors.InvalidConfig(fmt.Sprintf("unsupported metrics backend %q", c.Metrics.Backend))
		}
	}

	if c.Database.Enabled {
		switch c.Database.Type {
		case DatabasePostgres, DatabaseMongoDB:
		default:
			return reserveerrors.InvalidConfig(fmt.Sprintf("unsupported database type %q", c.Database.Type))
		}
	}
	return nil
}

// PublicKey parses the configured program id.
func (c *ProgramConfig) PublicKey() (solana.PublicKey, error) {
	return solana.PublicKeyFromBase58(c.ID)
}

// GetRPCEndpoint returns the RPC endpoint for the configured network
func (c *SolanaConfig) GetRPCEndpoint() string {
	if c.RPC != "" {
		return c.RPC
	}

	switch c.Network {
	case "mainnet", "mainnet-beta":
		return "https://api.mainnet-beta.solana.com"
	case "testnet":
		return "https://api.testnet.solana.com"
	case "localnet", "localhost":
		return "http://localhost:8899"
	default:
		return "https://api.devnet.solana.com"
	}
}
