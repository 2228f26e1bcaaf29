package compress

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/arloliu/sopkit/errs"
	"github.com/arloliu/sopkit/internal/options"
)

// DefaultMaxOutputSize caps how many bytes a single strategy attempt may produce.
const DefaultMaxOutputSize int64 = 256 * 1024 * 1024 // 256MiB

// AdaptiveDecompressor recovers payloads whose compression framing is not known in
// advance by trying an ordered list of strategies and returning the first success.
//
// An AdaptiveDecompressor is immutable after construction and safe for concurrent
// use; every call keeps its state on the stack or in pooled, per-call buffers.
type AdaptiveDecompressor struct {
	strategies []Strategy
	logger     *slog.Logger
}

var _ Decompressor = (*AdaptiveDecompressor)(nil)

type adaptiveConfig struct {
	strategies []Strategy
	extended   bool
	maxOutput  int64
	logger     *slog.Logger
}

// AdaptiveOption configures an AdaptiveDecompressor.
type AdaptiveOption = options.Option[*adaptiveConfig]

// WithLogger sets the logger that receives per-attempt debug records.
// The default logger discards everything.
func WithLogger(logger *slog.Logger) AdaptiveOption {
	return options.NoError(func(cfg *adaptiveConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	})
}

// WithExtendedStrategies appends the zstd, S2 and LZ4 block probes after the
// standard strategies. It has no effect when WithStrategies is also given.
func WithExtendedStrategies() AdaptiveOption {
	return options.NoError(func(cfg *adaptiveConfig) {
		cfg.extended = true
	})
}

// WithStrategies replaces the strategy list. Strategies run in the given order.
func WithStrategies(strategies ...Strategy) AdaptiveOption {
	return options.New(func(cfg *adaptiveConfig) error {
		for i, s := range strategies {
			if s.Decode == nil {
				return fmt.Errorf("strategy %d (%q) has no decode function", i, s.Name)
			}
		}
		cfg.strategies = append([]Strategy(nil), strategies...)

		return nil
	})
}

// WithMaxOutputSize caps the output of each strategy attempt. An attempt that would
// exceed the cap fails like any other attempt.
func WithMaxOutputSize(n int64) AdaptiveOption {
	return options.New(func(cfg *adaptiveConfig) error {
		if n <= 0 {
			return fmt.Errorf("max output size must be positive, got %d", n)
		}
		cfg.maxOutput = n

		return nil
	})
}

// NewAdaptiveDecompressor creates a decompressor using the standard SOP strategy
// order unless options say otherwise.
func NewAdaptiveDecompressor(opts ...AdaptiveOption) (*AdaptiveDecompressor, error) {
	cfg := &adaptiveConfig{
		maxOutput: DefaultMaxOutputSize,
		logger:    slog.New(slog.DiscardHandler),
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	strategies := cfg.strategies
	if strategies == nil {
		strategies = StandardStrategies(cfg.maxOutput)
		if cfg.extended {
			strategies = append(strategies, ExtendedStrategies(cfg.maxOutput)...)
		}
	}

	return &AdaptiveDecompressor{
		strategies: strategies,
		logger:     cfg.logger,
	}, nil
}

// Recovery is the outcome of a successful adaptive decompression.
type Recovery struct {
	// Data is the decompressed payload.
	Data []byte
	// Strategy names the strategy that produced Data.
	Strategy StrategyName
	// Failures lists the strategies that were tried and failed before Strategy, in order.
	Failures []errs.StrategyFailure
}

// Strategies returns the configured strategy names in attempt order.
func (d *AdaptiveDecompressor) Strategies() []StrategyName {
	names := make([]StrategyName, len(d.strategies))
	for i, s := range d.strategies {
		names[i] = s.Name
	}

	return names
}

// Decompress returns the output of the first strategy that succeeds on data.
//
// When every strategy fails the error is an *errs.ExhaustedError that matches
// errs.ErrDecompressionExhausted and lists each strategy's failure reason.
func (d *AdaptiveDecompressor) Decompress(data []byte) ([]byte, error) {
	rec, err := d.Recover(data)
	if err != nil {
		return nil, err
	}

	return rec.Data, nil
}

// Recover is Decompress plus the identity of the winning strategy and the
// failures that preceded it. The extra fields are informational only.
func (d *AdaptiveDecompressor) Recover(data []byte) (Recovery, error) {
	var failures []errs.StrategyFailure

	for _, s := range d.strategies {
		out, err := runStrategy(s, data)
		if err != nil {
			d.logger.Debug("decompression strategy failed",
				slog.String("strategy", s.Name.String()),
				slog.String("reason", err.Error()),
			)
			failures = append(failures, errs.StrategyFailure{Strategy: s.Name.String(), Reason: err})

			continue
		}

		d.logger.Debug("decompression strategy succeeded",
			slog.String("strategy", s.Name.String()),
			slog.Int("input_bytes", len(data)),
			slog.Int("output_bytes", len(out)),
		)

		return Recovery{Data: out, Strategy: s.Name, Failures: failures}, nil
	}

	return Recovery{}, &errs.ExhaustedError{Failures: failures}
}

// runStrategy shields the caller from panics inside third-party decoders fed
// adversarial input; a panic counts as a failed attempt.
func runStrategy(s Strategy, data []byte) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("strategy panicked: %v", r)
		}
	}()

	out, err = s.Decode(data)
	if err == nil && out == nil {
		return nil, errors.New("strategy returned no output")
	}

	return out, err
}
