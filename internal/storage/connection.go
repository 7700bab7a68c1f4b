package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lugondev/go-reserve/internal/config"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("storage: not found")

// ErrNotConnected is returned by Repository before Connect succeeded.
var ErrNotConnected = errors.New("storage: not connected")

// ConnectionManager owns the one Repository of a process.
type ConnectionManager struct {
	cfg *config.DatabaseConfig

	mu   sync.Mutex
	repo Repository
}

// NewConnectionManager fails when event storage is disabled in cfg.
func NewConnectionManager(cfg *config.DatabaseConfig) (*ConnectionManager, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("storage: database is not enabled")
	}
	return &ConnectionManager{cfg: cfg}, nil
}

// Connect opens and pings the repository. Later calls return the same repository.
func (cm *ConnectionManager) Connect(ctx context.Context) (Repository, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.repo != nil {
		return cm.repo, nil
	}

	repo, err := Open(ctx, cm.cfg)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cm.cfg.Type, err)
	}
	if err := repo.Ping(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping %s: %w", cm.cfg.Type, err), repo.Close())
	}

	cm.repo = repo
	return repo, nil
}

// Repository returns the connected repository.
func (cm *ConnectionManager) Repository() (Repository, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.repo == nil {
		return nil, ErrNotConnected
	}
	return cm.repo, nil
}

// Close releases the repository. The manager can connect again afterwards.
func (cm *ConnectionManager) Close() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.repo == nil {
		return nil
	}
	err := cm.repo.Close()
	cm.repo = nil
	return err
}
