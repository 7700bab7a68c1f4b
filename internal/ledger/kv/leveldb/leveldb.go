// Package leveldb stores ledger accounts in a LevelDB database.
package leveldb

import (
	"context"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/lugondev/go-reserve/internal/ledger"
)

// DB is a ledger.Store backed by goleveldb.
type DB struct {
	mu sync.RWMutex
	db *leveldb.DB
}

// Open opens (or creates) a LevelDB database at path.
func Open(path string) (*DB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb database: %w", err)
	}
	return &DB{db: db}, nil
}

func (s *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ledger.ErrStoreClosed
	}

	data, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, ledger.ErrKeyNotFound
	}
	return data, err
}

func (s *DB) Write(ctx context.Context, key, value []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ledger.ErrStoreClosed
	}
	return s.db.Put(key, value, &opt.WriteOptions{Sync: true})
}

func (s *DB) Delete(ctx context.Context, key []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ledger.ErrStoreClosed
	}
	return s.db.Delete(key, &opt.WriteOptions{Sync: true})
}

func (s *DB) Batch(ctx context.Context, ops []ledger.BatchOperation) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ledger.ErrStoreClosed
	}

	batch := new(leveldb.Batch)
	for _, op := range ops {
		switch op.Type {
		case ledger.BatchPut:
			batch.Put(op.Key, op.Value)
		case ledger.BatchDelete:
			batch.Delete(op.Key)
		default:
			return fmt.Errorf("unknown batch operation type: %d", op.Type)
		}
	}
	return s.db.Write(batch, &opt.WriteOptions{Sync: true})
}

func (s *DB) Iterator(ctx context.Context, start, end []byte) (ledger.Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ledger.ErrStoreClosed
	}
	return &iterator{it: s.db.NewIterator(&util.Range{Start: start, Limit: end}, nil)}, nil
}

func (s *DB) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

type iterator struct {
	it interface {
		Next() bool
		Key() []byte
		Value() []byte
		Error() error
		Release()
	}
}

func (i *iterator) Next() bool { return i.it.Next() }

// Key and Value copy, since goleveldb reuses its buffers between calls to Next.
func (i *iterator) Key() []byte   { return append([]byte(nil), i.it.Key()...) }
func (i *iterator) Value() []byte { return append([]byte(nil), i.it.Value()...) }
func (i *iterator) Error() error  { return i.it.Error() }

func (i *iterator) Close() error {
	i.it.Release()
	return i.it.Error()
}
