package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mahdiidarabi/keyscan/internal/bruteforce"
	"github.com/mahdiidarabi/keyscan/internal/checkpoint"
	"github.com/mahdiidarabi/keyscan/internal/config"
	"github.com/mahdiidarabi/keyscan/internal/foundlog"
	"github.com/mahdiidarabi/keyscan/internal/metrics"
	"github.com/mahdiidarabi/keyscan/pkg/keyscan"
	"github.com/mahdiidarabi/keyscan/pkg/pathtree"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a key range for a matching address",
		Long: `Scan enumerates candidate keys in [start, end], derives each candidate's
identifier and compares it with the target.

Settings come from the config file; flags override individual values.

Examples:
  # Guided search of puzzle #20's range for an uncompressed P2PKH address
  keyscan scan --start 0x80000 --end 0xfffff --target 1HsMJxNiV7TLxmoF6uJNkydxPFDog4NQum

  # Restrict the guided search to frequent prefixes from an analysis
  keyscan scan -c keyscan.yaml --allowed-prefixes table.json --prefix-threshold 2

  # Collect every key whose HASH160 starts with 00
  keyscan scan --format hash160 --target 00 --policy prefix --prefix-length 2 \
      --mode collect-all --strategy exhaustive --start 1 --end 0xffff

Configuration file (keyscan.yaml) example:
  range:
    start: "0x20000"
    end: "0x3ffff"
  target:
    value: "${KEYSCAN_TARGET}"
    format: p2pkh
  strategy: guided
  workers: 8`,
		Args: cobra.NoArgs,
		RunE: runScanCmd,
	}

	// Range and target
	cmd.Flags().String("start", "", "Range start (hex)")
	cmd.Flags().String("end", "", "Range end (hex)")
	cmd.Flags().String("target", "", "Target identifier")
	cmd.Flags().String("format", "", "Identifier format: p2pkh or hash160")
	cmd.Flags().Bool("compressed", false, "Derive from compressed public keys")
	cmd.Flags().String("policy", "", "Match policy: exact or prefix")
	cmd.Flags().Int("prefix-length", 0, "Characters compared by the prefix policy")

	// Enumeration
	cmd.Flags().StringP("strategy", "s", "", "Enumeration strategy: uniform, exhaustive or guided")
	cmd.Flags().Float64("step", 0, "Uniform sampling step in percent")
	cmd.Flags().Int("max-depth", 0, "Guided search depth limit (0 = depth of range end)")
	cmd.Flags().String("allowed-prefixes", "", "Frequency table JSON restricting guided search")
	cmd.Flags().Uint64("prefix-threshold", 0, "Minimum prefix count (exclusive) kept from the frequency table")

	// Execution
	cmd.Flags().StringP("mode", "m", "", "Match mode: first-match or collect-all")
	cmd.Flags().IntP("workers", "w", 0, "Number of shards scanned concurrently")
	cmd.Flags().Uint64("max-found", 0, "Stop after this many matches (collect-all only)")
	cmd.Flags().Int("retries", 0, "Evaluator retries before a candidate is skipped")
	cmd.Flags().Bool("no-filter", false, "Disable the hex pattern filter")
	cmd.Flags().Bool("trim-leading-zeros", false, "Filter only the significant hex digits")

	// Persistence
	cmd.Flags().String("checkpoint-dir", "", "Checkpoint directory")
	cmd.Flags().Uint64("checkpoint-interval", 0, "Candidates between checkpoint saves")
	cmd.Flags().String("found-log", "", "Found-key log path")
	cmd.Flags().String("found-log-backend", "", "Found-key log backend: jsonl or sqlite")
	cmd.Flags().Bool("reset", false, "Discard saved checkpoints for this range before scanning")

	// Output
	cmd.Flags().Bool("json-logs", false, "Emit logs as JSON")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildScanConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	reset, err := cmd.Flags().GetBool("reset")
	if err != nil {
		return err
	}

	// Set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScan(ctx, cmd.OutOrStdout(), cfg, reset, logger)
}

// buildScanConfig loads the config file and applies flag overrides.
func buildScanConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	overrides := []struct {
		name  string
		apply func() error
	}{
		{"start", func() (err error) { cfg.Range.Start, err = f.GetString("start"); return }},
		{"end", func() (err error) { cfg.Range.End, err = f.GetString("end"); return }},
		{"target", func() (err error) { cfg.Target.Value, err = f.GetString("target"); return }},
		{"format", func() (err error) { cfg.Target.Format, err = f.GetString("format"); return }},
		{"compressed", func() (err error) { cfg.Target.Compressed, err = f.GetBool("compressed"); return }},
		{"policy", func() (err error) { cfg.Target.Policy, err = f.GetString("policy"); return }},
		{"prefix-length", func() (err error) { cfg.Target.PrefixLength, err = f.GetInt("prefix-length"); return }},
		{"strategy", func() (err error) { cfg.Strategy, err = f.GetString("strategy"); return }},
		{"step", func() (err error) { cfg.StepPercent, err = f.GetFloat64("step"); return }},
		{"max-depth", func() (err error) { cfg.MaxDepth, err = f.GetInt("max-depth"); return }},
		{"allowed-prefixes", func() (err error) { cfg.AllowedPrefixesSource, err = f.GetString("allowed-prefixes"); return }},
		{"prefix-threshold", func() (err error) { cfg.PrefixThreshold, err = f.GetUint64("prefix-threshold"); return }},
		{"mode", func() (err error) { cfg.Mode, err = f.GetString("mode"); return }},
		{"workers", func() (err error) { cfg.Workers, err = f.GetInt("workers"); return }},
		{"max-found", func() (err error) { cfg.MaxFound, err = f.GetUint64("max-found"); return }},
		{"retries", func() (err error) { cfg.EvaluatorRetries, err = f.GetInt("retries"); return }},
		{"trim-leading-zeros", func() (err error) { cfg.Filter.TrimLeadingZeros, err = f.GetBool("trim-leading-zeros"); return }},
		{"checkpoint-dir", func() (err error) { cfg.Checkpoint.Dir, err = f.GetString("checkpoint-dir"); return }},
		{"checkpoint-interval", func() (err error) { cfg.Checkpoint.Interval, err = f.GetUint64("checkpoint-interval"); return }},
		{"found-log", func() (err error) { cfg.FoundLog.Path, err = f.GetString("found-log"); return }},
		{"found-log-backend", func() (err error) { cfg.FoundLog.Backend, err = f.GetString("found-log-backend"); return }},
		{"json-logs", func() (err error) { cfg.JSONLogs, err = f.GetBool("json-logs"); return }},
		{"metrics-addr", func() (err error) { cfg.MetricsAddr, err = f.GetString("metrics-addr"); return }},
		{"no-filter", func() error {
			disabled, err := f.GetBool("no-filter")
			cfg.Filter.Enabled = !disabled
			return err
		}},
	}
	for _, o := range overrides {
		if !f.Changed(o.name) {
			continue
		}
		if err := o.apply(); err != nil {
			return nil, fmt.Errorf("flag --%s: %w", o.name, err)
		}
	}
	return cfg, nil
}

// runScan wires the configured components together and runs the pool.
func runScan(ctx context.Context, out io.Writer, cfg *config.Config, reset bool, logger *slog.Logger) error {
	r, err := cfg.ScanRange()
	if err != nil {
		return err
	}
	strategy, err := cfg.ScanStrategy()
	if err != nil {
		return err
	}
	mode, err := cfg.ScanMode()
	if err != nil {
		return err
	}
	matcher, err := cfg.Target.Matcher()
	if err != nil {
		return err
	}
	evaluator, err := cfg.Target.Evaluator()
	if err != nil {
		return err
	}

	client := keyscan.NewClient(matcher).
		WithEvaluator(evaluator).
		WithFilter(cfg.Filter.HexFilter()).
		WithRetries(cfg.EvaluatorRetries).
		WithLogger(logger)

	stratCfg := keyscan.StrategyConfig{
		StepPercent: cfg.StepPercent,
		MaxDepth:    cfg.MaxDepth,
	}
	if cfg.AllowedPrefixesSource != "" {
		table, err := pathtree.LoadTable(cfg.AllowedPrefixesSource)
		if err != nil {
			return fmt.Errorf("failed to load allowed prefixes: %w", err)
		}
		stratCfg.AllowedPrefixes = table.AllowedPrefixes(cfg.PrefixThreshold)
		logger.Info("loaded allowed prefixes",
			"source", cfg.AllowedPrefixesSource,
			"threshold", cfg.PrefixThreshold,
			"prefixes", stratCfg.AllowedPrefixes.Len(),
			"max_length", stratCfg.AllowedPrefixes.MaxLen())
	}

	store, err := checkpoint.NewFileStore(cfg.Checkpoint.Dir, checkpoint.WithLogger(logger))
	if err != nil {
		return err
	}

	fl, err := foundlog.Open(cfg.FoundLog.Backend, cfg.FoundLog.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := fl.Close(); err != nil {
			logger.Error("failed to close found log", "error", err)
		}
	}()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	scanner := bruteforce.NewScanner(client, store,
		bruteforce.WithCheckpointInterval(cfg.Checkpoint.Interval),
		bruteforce.WithMode(mode),
		bruteforce.WithLogger(logger),
	)
	pool := bruteforce.NewPool(scanner,
		bruteforce.WithWorkers(cfg.Workers),
		bruteforce.WithFoundLog(fl),
		bruteforce.WithMaxFound(cfg.MaxFound),
		bruteforce.WithPoolLogger(logger),
	)

	shards := pool.Shards(r, strategy)
	if reset {
		for _, shard := range shards {
			if err := store.Delete(shard.Identity(strategy)); err != nil {
				return err
			}
		}
		logger.Info("discarded saved checkpoints", "range", r.String(), "strategy", string(strategy))
	}

	fmt.Fprintf(out, "Scanning %s (%s, %s, %d shards)...\n",
		r, strategy, mode, len(shards))

	report, err := pool.Run(ctx, r, strategy, stratCfg)
	if report != nil {
		printReport(out, report, cfg.FoundLog.Path)
	}
	return err
}

// printReport writes the human-readable scan summary. Found keys go to stdout
// only; the logger masks them.
func printReport(w io.Writer, report *bruteforce.Report, foundLogPath string) {
	fmt.Fprintln(w)
	for _, rec := range report.Found {
		fmt.Fprintf(w, "[+] Found key %s\n", rec.CandidateHex)
		fmt.Fprintf(w, "    Identifier: %s\n", rec.DerivedIdentifier)
		fmt.Fprintf(w, "    Position:   %s\n", rec.PositionInRange)
		if rec.Path != "" {
			fmt.Fprintf(w, "    Path:       %s (%s)\n", rec.Path, rec.Path.FormatNodes())
		}
		if rec.Strategy == keyscan.StrategyUniform {
			fmt.Fprintf(w, "    Percent:    %.4f%%\n", rec.Percent)
		}
	}

	switch {
	case report.Cancelled:
		fmt.Fprintln(w, "Scan interrupted; progress saved, rerun to resume.")
	case len(report.Found) == 0 && report.Exhausted:
		fmt.Fprintln(w, "Range exhausted without a match.")
	}
	fmt.Fprintf(w, "Checked %d candidates in %s, %d found",
		report.Checked, report.Elapsed.Round(time.Millisecond), len(report.Found))
	if len(report.Found) > 0 {
		fmt.Fprintf(w, " (logged to %s)", foundLogPath)
	}
	fmt.Fprintln(w)
}
