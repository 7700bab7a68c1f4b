package pool

import (
	"log/slog"

	"github.com/lugondev/go-reserve/internal/common"
	"github.com/lugondev/go-reserve/internal/derive"
	reserveerrors "github.com/lugondev/go-reserve/internal/errors"
	"github.com/lugondev/go-reserve/internal/ledger"
	"github.com/lugondev/go-reserve/internal/metrics"
	"github.com/lugondev/go-reserve/internal/processor"
	"github.com/lugondev/go-reserve/internal/token"
)

// ProgramBuilder provides a fluent API for constructing a Program.
type ProgramBuilder struct {
	program *Program
}

// NewProgramBuilder creates a ProgramBuilder running against l with addresses derived by d.
// The SPL token service, the system transfer service, no-op event processing and an
// empty metrics collection are used unless replaced.
func NewProgramBuilder(l *ledger.Ledger, d *derive.Deriver) *ProgramBuilder {
	return &ProgramBuilder{
		program: &Program{
			LoggerMixin: common.NewLoggerMixin(),
			ledger:      l,
			deriver:     d,
			tokens:      token.NewProgram(),
			native:      token.System{},
			processor:   processor.NewNoopProcessor[*Event](),
			metrics:     metrics.NewCollection(),
			rate:        DefaultRate,
		},
	}
}

// Rate sets the number of base units paid out per share.
func (b *ProgramBuilder) Rate(rate uint64) *ProgramBuilder {
	b.program.rate = rate
	return b
}

// TokenLedger replaces the token service.
func (b *ProgramBuilder) TokenLedger(t token.Ledger) *ProgramBuilder {
	b.program.tokens = t
	return b
}

// Native replaces the native transfer service.
func (b *ProgramBuilder) Native(n token.Native) *ProgramBuilder {
	b.program.native = n
	return b
}

// Processor sets the processor receiving committed pool events.
func (b *ProgramBuilder) Processor(p processor.Processor[*Event]) *ProgramBuilder {
	b.program.processor = p
	return b
}

// Metrics sets a custom metrics collection.
func (b *ProgramBuilder) Metrics(mc *metrics.Collection) *ProgramBuilder {
	b.program.metrics = mc
	return b
}

// Logger sets a custom logger.
func (b *ProgramBuilder) Logger(logger *slog.Logger) *ProgramBuilder {
	b.program.SetLogger(logger)
	return b
}

// Build validates and returns the Program.
func (b *ProgramBuilder) Build() (*Program, error) {
	p := b.program
	switch {
	case p.ledger == nil:
		return nil, reserveerrors.InvalidConfig("ledger is required")
	case p.deriver == nil:
		return nil, reserveerrors.InvalidConfig("address deriver is required")
	case p.rate == 0:
		return nil, reserveerrors.InvalidConfig("rate must be positive")
	case p.tokens == nil || p.native == nil:
		return nil, reserveerrors.InvalidConfig("token services are required")
	}
	if p.processor == nil {
		p.processor = processor.NewNoopProcessor[*Event]()
	}
	if p.metrics == nil {
		p.metrics = metrics.NewCollection()
	}
	return p, nil
}
