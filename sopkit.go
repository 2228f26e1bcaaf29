// Package sopkit decodes and summarizes SOP packages.
//
// A SOP package is a zip archive whose ".data" entry holds a JSON document of
// table-mutation records, compressed with a deflate variant whose framing is not
// recorded anywhere. sopkit locates the entry, recovers the payload with an
// adaptive decompressor, parses the document and derives statistics from it.
//
// # Basic Usage
//
//	analyzer, err := sopkit.NewAnalyzer("package.sop")
//	if err != nil {
//	    return err
//	}
//
//	stats, err := analyzer.RecordStats(ctx)
//	if err != nil {
//	    // errors.Is(err, errs.ErrDecompressionExhausted) etc.
//	    diag := analyzer.Diagnose()
//	    ...
//	}
//	fmt.Println(stats.Total, stats.Deletes, stats.StrongOverwrites)
//
// The first successful Load is memoized, so every query after it reuses the
// parsed document. Failed loads are retried on the next call.
//
// For a single report use Analyze:
//
//	rep, err := sopkit.Analyze(ctx, "package.sop")
//
// # Package Structure
//
// The facade wires together the container, compress, document, stats and
// report packages. Use them directly for in-memory archives or custom
// strategy lists.
package sopkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/arloliu/sopkit/compress"
	"github.com/arloliu/sopkit/container"
	"github.com/arloliu/sopkit/document"
	"github.com/arloliu/sopkit/internal/options"
	"github.com/arloliu/sopkit/report"
	"github.com/arloliu/sopkit/stats"
)

// Analyzer answers queries about one SOP package. It is safe for concurrent use.
type Analyzer struct {
	path         string
	decompressor *compress.AdaptiveDecompressor
	logger       *slog.Logger
	now          func() time.Time

	mu       sync.Mutex
	doc      *document.Document
	strategy compress.StrategyName
}

type analyzerConfig struct {
	decompressor *compress.AdaptiveDecompressor
	logger       *slog.Logger
	now          func() time.Time
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption = options.Option[*analyzerConfig]

// WithDecompressor replaces the default adaptive decompressor, for example one
// built with compress.WithExtendedStrategies.
func WithDecompressor(d *compress.AdaptiveDecompressor) AnalyzerOption {
	return options.New(func(cfg *analyzerConfig) error {
		if d == nil {
			return errors.New("decompressor must not be nil")
		}
		cfg.decompressor = d

		return nil
	})
}

// WithLogger sets the logger for load events. The default decompressor logs
// its strategy attempts to the same logger.
func WithLogger(logger *slog.Logger) AnalyzerOption {
	return options.NoError(func(cfg *analyzerConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	})
}

// WithClock sets the time source used to stamp reports.
func WithClock(now func() time.Time) AnalyzerOption {
	return options.NoError(func(cfg *analyzerConfig) {
		if now != nil {
			cfg.now = now
		}
	})
}

// NewAnalyzer creates an Analyzer for the package at path. The file is not
// touched until the first query.
func NewAnalyzer(path string, opts ...AnalyzerOption) (*Analyzer, error) {
	if path == "" {
		return nil, errors.New("sop package path must not be empty")
	}

	cfg := &analyzerConfig{
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	if cfg.decompressor == nil {
		d, err := compress.NewAdaptiveDecompressor(compress.WithLogger(cfg.logger))
		if err != nil {
			return nil, err
		}
		cfg.decompressor = d
	}

	return &Analyzer{
		path:         path,
		decompressor: cfg.decompressor,
		logger:       cfg.logger.With(slog.String("path", path)),
		now:          cfg.now,
	}, nil
}

// Path returns the package path the Analyzer was created with.
func (a *Analyzer) Path() string {
	return a.path
}

// Load reads, decompresses and parses the package, once. Later calls return the
// memoized document. ctx is checked between pipeline stages.
func (a *Analyzer) Load(ctx context.Context) (*document.Document, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.doc != nil {
		return a.doc, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entry, err := container.OpenDataEntry(a.path)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, err := a.decompressor.Recover(entry.Data)
	if err != nil {
		a.logger.Debug("payload recovery failed", slog.String("entry", entry.Name), slog.Any("error", err))
		return nil, fmt.Errorf("decompress %s: %w", entry.Name, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := document.Parse(rec.Data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", entry.Name, err)
	}

	a.logger.Debug("sop package loaded",
		slog.String("entry", entry.Name),
		slog.Int("raw_bytes", len(entry.Data)),
		slog.Int("decoded_bytes", len(rec.Data)),
		slog.String("strategy", rec.Strategy.String()),
		slog.Int("records", doc.Len()),
	)

	a.doc = doc
	a.strategy = rec.Strategy

	return doc, nil
}

// Strategy returns the decompression strategy that recovered the payload, or
// an empty name before the first successful Load.
func (a *Analyzer) Strategy() compress.StrategyName {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.strategy
}

// Metadata returns the package metadata with defaults applied.
func (a *Analyzer) Metadata(ctx context.Context) (report.Metadata, error) {
	doc, err := a.Load(ctx)
	if err != nil {
		return report.Metadata{}, err
	}

	return report.MetadataOf(doc), nil
}

// RecordStats returns the document-wide record counters.
func (a *Analyzer) RecordStats(ctx context.Context) (stats.RecordStats, error) {
	doc, err := a.Load(ctx)
	if err != nil {
		return stats.RecordStats{}, err
	}

	return stats.ComputeRecordStats(doc), nil
}

// Tables returns the per-table breakdown, largest table first.
func (a *Analyzer) Tables(ctx context.Context) ([]stats.TableInfo, error) {
	doc, err := a.Load(ctx)
	if err != nil {
		return nil, err
	}

	return stats.ComputeTableInfo(doc), nil
}

// ActionsSummary returns the record count per action.
func (a *Analyzer) ActionsSummary(ctx context.Context) (stats.ActionsSummary, error) {
	doc, err := a.Load(ctx)
	if err != nil {
		return nil, err
	}

	return stats.ComputeActionsSummary(doc), nil
}

// Report assembles the full analysis report.
func (a *Analyzer) Report(ctx context.Context) (report.Report, error) {
	doc, err := a.Load(ctx)
	if err != nil {
		return report.Report{}, err
	}

	info, err := os.Stat(a.path)
	if err != nil {
		return report.Report{}, fmt.Errorf("stat %s: %w", a.path, err)
	}

	fi := report.NewFileInfo(a.path, info.Size(), a.Strategy().String(), a.now())
	a.logger.Info("analysis complete",
		slog.String("analysis_id", fi.AnalysisID),
		slog.Int("records", doc.Len()),
	)

	return report.Build(
		report.MetadataOf(doc),
		stats.ComputeRecordStats(doc),
		stats.ComputeTableInfo(doc),
		stats.ComputeActionsSummary(doc),
		fi,
	), nil
}

// Diagnose returns the raw-data view of the package. It does not decompress
// anything and never fails; problems are reported in Diagnostics.Error.
func (a *Analyzer) Diagnose() report.Diagnostics {
	return container.Inspect(a.path)
}

// Analyze builds the report for the package at path in one call.
func Analyze(ctx context.Context, path string, opts ...AnalyzerOption) (report.Report, error) {
	a, err := NewAnalyzer(path, opts...)
	if err != nil {
		return report.Report{}, err
	}

	return a.Report(ctx)
}
