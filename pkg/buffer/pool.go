// Package buffer pools the scratch buffers used to serialize account data.
package buffer

import (
	"bytes"
	"sync"
)

// MaxRetained is the largest buffer capacity returned to a pool. Larger buffers are
// left to the garbage collector so one oversized account does not pin memory.
const MaxRetained = 64 * 1024

// Pool hands out reset bytes.Buffers.
type Pool struct {
	pool sync.Pool
	size int
}

var globalPool = NewPool(256)

// NewPool creates a pool whose fresh buffers start with size bytes of capacity.
func NewPool(size int) *Pool {
	p := &Pool{size: size}
	p.pool.New = func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, p.size))
	}
	return p
}

// Get returns an empty buffer.
func (p *Pool) Get() *bytes.Buffer {
	buf := p.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// Put returns buf to the pool. buf must not be used afterwards.
func (p *Pool) Put(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > MaxRetained {
		return
	}
	p.pool.Put(buf)
}

// Encode runs fn against a pooled buffer and returns a copy of what it wrote.
func (p *Pool) Encode(fn func(buf *bytes.Buffer) error) ([]byte, error) {
	buf := p.Get()
	defer p.Put(buf)
	if err := fn(buf); err != nil {
		return nil, err
	}
	return bytes.Clone(buf.Bytes()), nil
}

// Get returns an empty buffer from the shared pool.
func Get() *bytes.Buffer {
	return globalPool.Get()
}

// Put returns buf to the shared pool.
func Put(buf *bytes.Buffer) {
	globalPool.Put(buf)
}

// Encode runs fn against a buffer from the shared pool and returns a copy of its contents.
func Encode(fn func(buf *bytes.Buffer) error) ([]byte, error) {
	return globalPool.Encode(fn)
}
