package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-reserve/internal/metrics"
)

type deposit struct {
	User   string
	Amount uint64
}

func collect(out *[]deposit) ProcessorFunc[deposit] {
	return func(ctx context.Context, d deposit, m *metrics.Collection) error {
		*out = append(*out, d)
		return nil
	}
}

func TestChainedProcessorRunsInOrder(t *testing.T) {
	var order []string
	step := func(name string) Processor[deposit] {
		return ProcessorFunc[deposit](func(ctx context.Context, d deposit, m *metrics.Collection) error {
			order = append(order, name)
			return nil
		})
	}

	chain := NewChainedProcessor(step("log"), step("store"))
	chain.Add(step("notify"))

	require.NoError(t, chain.Process(context.Background(), deposit{User: "a"}, metrics.NewCollection()))
	assert.Equal(t, []string{"log", "store", "notify"}, order)
}

func TestChainedProcessorStopsAtFirstError(t *testing.T) {
	var seen []deposit
	boom := errors.New("boom")
	chain := NewChainedProcessor[deposit](
		ProcessorFunc[deposit](func(ctx context.Context, d deposit, m *metrics.Collection) error { return boom }),
		collect(&seen),
	)

	err := chain.Process(context.Background(), deposit{}, nil)
	assert.ErrorIs(t, err, boom)
	assert.EqualError(t, err, "stage 0: boom")
	assert.Empty(t, seen)
}

func TestErrorHandlingProcessor(t *testing.T) {
	failing := ProcessorFunc[deposit](func(ctx context.Context, d deposit, m *metrics.Collection) error {
		return errors.New("database unavailable")
	})

	wrapped := NewErrorHandlingProcessor[deposit](failing, func(err error) error {
		return fmt.Errorf("event storage: %w", err)
	})
	assert.EqualError(t, wrapped.Process(context.Background(), deposit{}, nil), "event storage: database unavailable")

	swallowed := NewErrorHandlingProcessor[deposit](failing, func(err error) error { return nil })
	assert.NoError(t, swallowed.Process(context.Background(), deposit{}, nil))
}

func TestChainedProcessorHonorsCancellation(t *testing.T) {
	var seen []deposit
	chain := NewChainedProcessor[deposit](collect(&seen))
	require.Equal(t, 1, chain.Len())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, chain.Process(ctx, deposit{Amount: 1}, nil), context.Canceled)
	assert.Empty(t, seen)
}

func TestLogProcessor(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	lp := NewLogProcessor[deposit](logger, "liquidity added", func(d deposit) []any {
		return []any{"user", d.User, "amount", d.Amount}
	})

	require.NoError(t, lp.Process(context.Background(), deposit{User: "alice", Amount: 1000}, nil))
	assert.Contains(t, buf.String(), "liquidity added")
	assert.Contains(t, buf.String(), "user=alice")
	assert.Contains(t, buf.String(), "amount=1000")

	buf.Reset()
	quiet := lp.AtLevel(slog.LevelDebug)
	require.NoError(t, quiet.Process(context.Background(), deposit{User: "bob"}, nil))
	assert.Empty(t, buf.String())
}

func BenchmarkChainedProcessor(b *testing.B) {
	ctx := context.Background()
	m := metrics.NewCollection()
	noop := ProcessorFunc[deposit](func(ctx context.Context, d deposit, m *metrics.Collection) error { return nil })

	for _, count := range []int{1, 5, 10} {
		processors := make([]Processor[deposit], count)
		for i := range processors {
			processors[i] = noop
		}
		chained := NewChainedProcessor(processors...)

		b.Run(fmt.Sprintf("Processors_%d", count), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = chained.Process(ctx, deposit{Amount: 1}, m)
			}
		})
	}
}
