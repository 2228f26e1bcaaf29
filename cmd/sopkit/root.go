package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/arloliu/sopkit"
	"github.com/arloliu/sopkit/compress"
	"github.com/arloliu/sopkit/errs"
	"github.com/arloliu/sopkit/internal/config"
	"github.com/arloliu/sopkit/report"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	configPath string
	logLevel   string

	metadata bool
	stats    bool
	tables   bool
	jsonOut  bool
	yamlOut  bool
	debug    bool
	verbose  bool
	extended bool
}

// reportedError marks a failure whose message was already written to the user.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func newRootCommand() *cobra.Command {
	var opts rootOptions

	rootCmd := &cobra.Command{
		Use:           "sopkit <file.sop>",
		Short:         "Analyze SOP data packages",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, &opts, args[0])
		},
	}

	flags := rootCmd.Flags()
	flags.BoolVar(&opts.metadata, "metadata", false, "Show package metadata only")
	flags.BoolVar(&opts.stats, "stats", false, "Show record statistics only")
	flags.BoolVar(&opts.tables, "tables", false, "Show table information only")
	flags.BoolVar(&opts.jsonOut, "json", false, "Print the full report as JSON")
	flags.BoolVar(&opts.yamlOut, "yaml", false, "Print the full report as YAML")
	flags.BoolVar(&opts.debug, "debug", false, "Show raw data diagnostics instead of the report")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output, including decode attempts")
	flags.BoolVar(&opts.extended, "extended", false, "Also try zstd, S2 and LZ4 block decoding")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.MarkFlagsMutuallyExclusive("json", "yaml")
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the sopkit version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "sopkit %s\n", version)
			return err
		},
	}
}

// loadConfig resolves the configuration and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	switch {
	case opts.jsonOut:
		cfg.Output.Format = config.FormatJSON
	case opts.yamlOut:
		cfg.Output.Format = config.FormatYAML
	}
	if cmd.Flags().Changed("extended") {
		cfg.Decode.ExtendedStrategies = opts.extended
	}
	switch {
	case opts.logLevel != "":
		cfg.Log.Level = opts.logLevel
	case opts.verbose:
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newLogger(w io.Writer, lc config.LogConfig) (*slog.Logger, error) {
	level, err := lc.SlogLevel()
	if err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	}

	return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
}

func newAnalyzer(path string, cfg *config.Config, logger *slog.Logger) (*sopkit.Analyzer, error) {
	maxOutput, err := cfg.Decode.MaxOutputBytes()
	if err != nil {
		return nil, err
	}

	decodeOpts := []compress.AdaptiveOption{
		compress.WithLogger(logger),
		compress.WithMaxOutputSize(maxOutput),
	}
	if cfg.Decode.ExtendedStrategies {
		decodeOpts = append(decodeOpts, compress.WithExtendedStrategies())
	}

	d, err := compress.NewAdaptiveDecompressor(decodeOpts...)
	if err != nil {
		return nil, err
	}

	return sopkit.NewAnalyzer(path, sopkit.WithDecompressor(d), sopkit.WithLogger(logger))
}

func runAnalyze(cmd *cobra.Command, opts *rootOptions, path string) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return err
	}

	analyzer, err := newAnalyzer(path, cfg, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	r := newRenderer(out, colorEnabled(cfg.Output.Color, out))

	if opts.debug {
		return writeDiagnostics(r, cfg.Output.Format, analyzer.Diagnose())
	}

	ctx := cmd.Context()
	switch {
	case cfg.Output.Format == config.FormatJSON || cfg.Output.Format == config.FormatYAML:
		err = writeReport(ctx, out, cfg.Output.Format, analyzer)
	case opts.metadata:
		err = r.renderMetadataOnly(ctx, analyzer)
	case opts.stats:
		err = r.renderStatsOnly(ctx, analyzer)
	case opts.tables:
		err = r.renderTablesOnly(ctx, analyzer)
	default:
		err = r.renderFull(ctx, analyzer, opts.verbose)
	}
	if err == nil {
		return nil
	}

	if errors.Is(err, errs.ErrNotFound) {
		return fmt.Errorf("file %s not found: %w", path, err)
	}

	// The diagnostics go to stderr so machine-readable stdout stays clean.
	er := newRenderer(cmd.ErrOrStderr(), colorEnabled(cfg.Output.Color, cmd.ErrOrStderr()))
	er.failure(err)
	er.diagnostics(analyzer.Diagnose())

	return &reportedError{err: err}
}

func writeDiagnostics(r *renderer, format string, diag report.Diagnostics) error {
	switch format {
	case config.FormatJSON:
		return report.WriteJSON(r.w, diag)
	case config.FormatYAML:
		return report.WriteYAML(r.w, diag)
	default:
		r.diagnostics(diag)
		return nil
	}
}
