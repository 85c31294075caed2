package bruteforce

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mahdiidarabi/keyscan/internal/foundlog"
	"github.com/mahdiidarabi/keyscan/internal/metrics"
	"github.com/mahdiidarabi/keyscan/pkg/keyscan"
)

// Report summarizes a pool run.
type Report struct {
	Shards    []ShardResult
	Found     []keyscan.FoundRecord
	Checked   uint64 // attempts across all shards, including resumed progress
	Elapsed   time.Duration
	Cancelled bool // the caller's context ended the run
	Exhausted bool // every shard ran to completion
}

// Pool shards a range across workers, each running a Scanner on its own
// checkpoint identity. Found records flow over a channel to one writer that
// appends them to the found log in arrival order.
type Pool struct {
	scanner  *Scanner
	workers  int
	foundLog foundlog.Log
	maxFound uint64
	logger   *slog.Logger
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithWorkers sets the shard count. Default is runtime.NumCPU().
func WithWorkers(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithFoundLog sets the log that receives every found record.
func WithFoundLog(l foundlog.Log) PoolOption {
	return func(p *Pool) {
		p.foundLog = l
	}
}

// WithMaxFound stops the run once n records have been written. Zero means no limit.
func WithMaxFound(n uint64) PoolOption {
	return func(p *Pool) {
		p.maxFound = n
	}
}

// WithPoolLogger sets the pool logger.
func WithPoolLogger(l *slog.Logger) PoolOption {
	return func(p *Pool) {
		p.logger = l
	}
}

// NewPool creates a Pool running scanner on every shard.
func NewPool(scanner *Scanner, opts ...PoolOption) *Pool {
	p := &Pool{
		scanner: scanner,
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Workers returns the configured shard count.
func (p *Pool) Workers() int { return p.workers }

// Shards returns the sub-ranges Run would scan for r with strategy. Each
// shard's checkpoint identity is shard.Identity(strategy).
//
// Uniform sampling always runs as one shard: its sample points are spaced
// across the whole range, and splitting by value would change both the sample
// set and each sample's percent.
func (p *Pool) Shards(r keyscan.Range, strategy keyscan.Strategy) []keyscan.Range {
	if strategy == keyscan.StrategyUniform {
		return []keyscan.Range{r}
	}
	return keyscan.SplitRange(r, p.workers)
}

// Run scans r with the given strategy until every shard is exhausted, the
// first match is found (first-match mode), MaxFound records were written, or
// ctx is cancelled.
//
// Args:
//   - ctx: caller cancellation, e.g. from signal.NotifyContext
//   - r: the full range; it is split as Shards describes
//   - strategy, cfg: enumerator construction for every shard; cfg.HexWidth and
//     a zero cfg.MaxDepth are taken from r so every shard enumerates alike
//
// Returns:
//   - Report, populated even when an error is returned
//   - error from a shard or from the found log; cancellation is not an error
func (p *Pool) Run(ctx context.Context, r keyscan.Range, strategy keyscan.Strategy, cfg keyscan.StrategyConfig) (*Report, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	cfg.HexWidth = r.HexWidth()
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = keyscan.DefaultMaxDepth(r)
	}
	shards := p.Shards(r, strategy)
	enums := make([]keyscan.Enumerator, len(shards))
	for i, shard := range shards {
		enum, err := keyscan.NewEnumerator(strategy, shard, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create enumerator for shard %s: %w", shard, err)
		}
		enums[i] = enum
	}

	p.logger.Info("starting scan",
		"range", r.String(),
		"strategy", string(strategy),
		"mode", string(p.scanner.Mode()),
		"shards", len(shards))

	startTime := time.Now()
	report := &Report{Shards: make([]ShardResult, len(shards))}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	found := make(chan keyscan.FoundRecord, len(shards))
	writerDone := make(chan error, 1)
	go func() {
		writerDone <- p.writeFound(context.WithoutCancel(ctx), found, report, stop)
	}()

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(p.workers)

	for i, enum := range enums {
		i, enum := i, enum
		g.Go(func() error {
			done := metrics.ShardStarted()
			defer done()

			res, err := p.scanner.RunShardOf(gctx, r, enum, found)
			report.Shards[i] = res
			if res.Matched {
				// Broadcast to the sibling shards.
				stop()
			}
			if err != nil && !isCancellation(err) {
				return fmt.Errorf("shard %s: %w", enum.Range(), err)
			}
			return nil
		})
	}

	err := g.Wait()
	close(found)
	if werr := <-writerDone; werr != nil {
		err = errors.Join(err, werr)
	}

	report.Elapsed = time.Since(startTime)
	report.Cancelled = ctx.Err() != nil
	report.Exhausted = true
	for _, s := range report.Shards {
		report.Checked += s.State.AttemptsChecked
		report.Exhausted = report.Exhausted && s.Exhausted
	}

	p.logger.Info("scan finished",
		"checked", report.Checked,
		"found", len(report.Found),
		"exhausted", report.Exhausted,
		"cancelled", report.Cancelled,
		"elapsed", report.Elapsed.Round(time.Millisecond).String())

	return report, err
}

// writeFound is the single writer for the found log. It drains found until
// the channel is closed so that no shard ever blocks on a send.
func (p *Pool) writeFound(ctx context.Context, found <-chan keyscan.FoundRecord, report *Report, stop context.CancelFunc) error {
	var firstErr error
	for rec := range found {
		if p.foundLog != nil {
			if err := p.foundLog.Append(ctx, rec); err != nil {
				p.logger.Error("failed to append found record", "identifier", rec.DerivedIdentifier, "error", err)
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to append found record: %w", err)
				}
			}
		}
		report.Found = append(report.Found, rec)
		if p.maxFound > 0 && uint64(len(report.Found)) >= p.maxFound {
			stop()
		}
	}
	return firstErr
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
