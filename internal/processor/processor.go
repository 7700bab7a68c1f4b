// Package processor receives the events of committed pool operations.
//
// The pool program hands every committed event to a single Processor. Processors are
// composed with ChainedProcessor and ErrorHandlingProcessor; a failing processor never
// rolls back the ledger commit that produced the event.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lugondev/go-reserve/internal/metrics"
)

// Processor handles items of type T after they were committed.
type Processor[T any] interface {
	// Process handles data. Implementations may record into mc, which can be nil.
	Process(ctx context.Context, data T, mc *metrics.Collection) error
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc[T any] func(ctx context.Context, data T, mc *metrics.Collection) error

func (f ProcessorFunc[T]) Process(ctx context.Context, data T, mc *metrics.Collection) error {
	return f(ctx, data, mc)
}

// NoopProcessor discards every item.
type NoopProcessor[T any] struct{}

func NewNoopProcessor[T any]() *NoopProcessor[T] {
	return &NoopProcessor[T]{}
}

func (*NoopProcessor[T]) Process(context.Context, T, *metrics.Collection) error {
	return nil
}

// ChainedProcessor runs its stages in the order they were added and stops at the
// first failing stage. Stages may be added while events are processed.
type ChainedProcessor[T any] struct {
	mu     sync.RWMutex
	stages []Processor[T]
}

// NewChainedProcessor creates a chain of stages.
func NewChainedProcessor[T any](stages ...Processor[T]) *ChainedProcessor[T] {
	return &ChainedProcessor[T]{stages: stages}
}

// Add appends a stage.
func (c *ChainedProcessor[T]) Add(p Processor[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stages = append(c.stages, p)
}

// Len returns the number of stages.
func (c *ChainedProcessor[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.stages)
}

func (c *ChainedProcessor[T]) Process(ctx context.Context, data T, mc *metrics.Collection) error {
	c.mu.RLock()
	stages := c.stages
	c.mu.RUnlock()

	for i, p := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.Process(ctx, data, mc); err != nil {
			return fmt.Errorf("stage %d: %w", i, err)
		}
	}
	return nil
}

// ErrorHandlingProcessor passes the error of the wrapped processor through handler,
// which may annotate it or swallow it by returning nil.
type ErrorHandlingProcessor[T any] struct {
	processor Processor[T]
	handler   func(error) error
}

func NewErrorHandlingProcessor[T any](p Processor[T], handler func(error) error) *ErrorHandlingProcessor[T] {
	return &ErrorHandlingProcessor[T]{processor: p, handler: handler}
}

func (e *ErrorHandlingProcessor[T]) Process(ctx context.Context, data T, mc *metrics.Collection) error {
	err := e.processor.Process(ctx, data, mc)
	if err == nil || e.handler == nil {
		return err
	}
	return e.handler(err)
}

// LogProcessor writes one log record per item.
type LogProcessor[T any] struct {
	logger *slog.Logger
	level  slog.Level
	msg    string
	attrs  func(T) []any
}

// NewLogProcessor creates a LogProcessor logging msg at info level with the attributes
// attrs extracts from each item. If logger is nil, the default logger is used.
func NewLogProcessor[T any](logger *slog.Logger, msg string, attrs func(T) []any) *LogProcessor[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProcessor[T]{logger: logger, level: slog.LevelInfo, msg: msg, attrs: attrs}
}

// AtLevel returns a copy of l logging at level.
func (l *LogProcessor[T]) AtLevel(level slog.Level) *LogProcessor[T] {
	cp := *l
	cp.level = level
	return &cp
}

func (l *LogProcessor[T]) Process(ctx context.Context, data T, mc *metrics.Collection) error {
	if !l.logger.Enabled(ctx, l.level) {
		return nil
	}
	var args []any
	if l.attrs != nil {
		args = l.attrs(data)
	}
	l.logger.Log(ctx, l.level, l.msg, args...)
	return nil
}
