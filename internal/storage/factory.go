package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lugondev/go-reserve/internal/config"
)

// Factory opens a Repository for the given database configuration.
type Factory func(ctx context.Context, cfg *config.DatabaseConfig) (Repository, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register makes a backend available under dbType. Backend packages call it from init,
// so a binary supports exactly the backends it imports. Registering a type twice panics.
func Register(dbType string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if f == nil {
		panic("storage: Register factory is nil")
	}
	if _, dup := factories[dbType]; dup {
		panic("storage: Register called twice for " + dbType)
	}
	factories[dbType] = f
}

// Backends lists the registered database types.
func Backends() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	types := make([]string, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Open creates a Repository with the factory registered for cfg.Type.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (Repository, error) {
	factoriesMu.RLock()
	f, ok := factories[cfg.Type]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown database type %q (registered: %v)", cfg.Type, Backends())
	}
	return f(ctx, cfg)
}
