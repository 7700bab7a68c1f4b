package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-reserve/internal/config"
)

type stubRepository struct {
	pingErr error
	closed  int
}

func (s *stubRepository) Events() EventRepository        { return nil }
func (s *stubRepository) Pools() PoolRepository          { return nil }
func (s *stubRepository) Ping(ctx context.Context) error { return s.pingErr }
func (s *stubRepository) Close() error {
	s.closed++
	return nil
}

func registerStub(t *testing.T, dbType string, repo *stubRepository) *int {
	t.Helper()
	opened := new(int)
	Register(dbType, func(ctx context.Context, cfg *config.DatabaseConfig) (Repository, error) {
		*opened++
		return repo, nil
	})
	return opened
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	registerStub(t, "stub-dup", &stubRepository{})
	assert.Contains(t, Backends(), "stub-dup")
	assert.Panics(t, func() { registerStub(t, "stub-dup", &stubRepository{}) })
}

func TestOpenUnknownType(t *testing.T) {
	_, err := Open(context.Background(), &config.DatabaseConfig{Type: "cassandra"})
	assert.ErrorContains(t, err, `unknown database type "cassandra"`)
}

func TestConnectionManagerReusesRepository(t *testing.T) {
	repo := &stubRepository{}
	opened := registerStub(t, "stub-reuse", repo)

	_, err := NewConnectionManager(&config.DatabaseConfig{Type: "stub-reuse"})
	require.Error(t, err)

	cm, err := NewConnectionManager(&config.DatabaseConfig{Enabled: true, Type: "stub-reuse"})
	require.NoError(t, err)

	_, err = cm.Repository()
	assert.ErrorIs(t, err, ErrNotConnected)

	first, err := cm.Connect(context.Background())
	require.NoError(t, err)
	second, err := cm.Connect(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, *opened)

	require.NoError(t, cm.Close())
	assert.Equal(t, 1, repo.closed)
	_, err = cm.Repository()
	assert.ErrorIs(t, err, ErrNotConnected)
	require.NoError(t, cm.Close())
}

func TestConnectionManagerClosesOnFailedPing(t *testing.T) {
	down := errors.New("no route to host")
	repo := &stubRepository{pingErr: down}
	registerStub(t, "stub-down", repo)

	cm, err := NewConnectionManager(&config.DatabaseConfig{Enabled: true, Type: "stub-down"})
	require.NoError(t, err)

	_, err = cm.Connect(context.Background())
	assert.ErrorIs(t, err, down)
	assert.Equal(t, 1, repo.closed)
}
