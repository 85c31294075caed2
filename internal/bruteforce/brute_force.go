// Package bruteforce drives enumerators through the check pipeline with
// checkpointing, sharding and a single found-record writer.
package bruteforce

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mahdiidarabi/keyscan/internal/checkpoint"
	"github.com/mahdiidarabi/keyscan/internal/metrics"
	"github.com/mahdiidarabi/keyscan/pkg/keyscan"
)

// DefaultCheckpointInterval is the number of candidates between checkpoint saves.
const DefaultCheckpointInterval = 100_000

// ShardResult describes how a shard run ended.
type ShardResult struct {
	State     keyscan.ScanState
	Resumed   bool // started from a saved checkpoint
	Matched   bool // stopped on a match in first-match mode
	Exhausted bool // enumerator ran to completion
}

// Scanner runs a single shard. It is stateless between runs, so one Scanner
// can serve any number of shards concurrently.
type Scanner struct {
	client   *keyscan.Client
	store    checkpoint.Store
	interval uint64
	mode     keyscan.Mode
	logger   *slog.Logger
	now      func() time.Time
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithCheckpointInterval sets how many candidates pass between saves.
func WithCheckpointInterval(n uint64) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.interval = n
		}
	}
}

// WithMode sets first-match or collect-all behaviour.
func WithMode(m keyscan.Mode) ScannerOption {
	return func(s *Scanner) {
		s.mode = m
	}
}

// WithLogger sets the scanner logger.
func WithLogger(l *slog.Logger) ScannerOption {
	return func(s *Scanner) {
		s.logger = l
	}
}

// WithClock overrides the timestamp source used for checkpoints and records.
func WithClock(now func() time.Time) ScannerOption {
	return func(s *Scanner) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScanner creates a Scanner checking candidates with client and persisting
// progress to store.
func NewScanner(client *keyscan.Client, store checkpoint.Store, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		client:   client,
		store:    store,
		interval: DefaultCheckpointInterval,
		mode:     keyscan.ModeFirstMatch,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Mode returns the scanner's match mode.
func (s *Scanner) Mode() keyscan.Mode { return s.mode }

// RunShard scans enum on its own, with positions relative to enum.Range().
// See RunShardOf.
func (s *Scanner) RunShard(ctx context.Context, enum keyscan.Enumerator, found chan<- keyscan.FoundRecord) (ShardResult, error) {
	return s.RunShardOf(ctx, enum.Range(), enum, found)
}

// RunShardOf scans enum until it is exhausted, ctx is cancelled, or (in
// first-match mode) a match is found. Matches are sent on found, which must be
// drained by the caller until RunShardOf returns.
//
// Args:
//   - ctx: cancellation; checked between candidates
//   - scope: the whole scanned range; found positions are relative to its start
//   - enum: the shard's enumerator, restored from the store when a checkpoint exists
//   - found: receives one FoundRecord per match
//
// Returns:
//   - ShardResult with the last saved state
//   - ctx.Err() on cancellation, or the error of the final checkpoint save
func (s *Scanner) RunShardOf(ctx context.Context, scope keyscan.Range, enum keyscan.Enumerator, found chan<- keyscan.FoundRecord) (ShardResult, error) {
	r := enum.Range()
	if !scope.Contains(r.Start) || !scope.Contains(r.End) {
		return ShardResult{}, fmt.Errorf("shard %s is outside scan range %s", r, scope)
	}
	strategy := enum.Strategy()
	settings := keyscan.SettingsOf(enum)
	id := r.Identity(strategy)
	logger := s.logger.With("shard", r.String(), "strategy", string(strategy))

	state, resumed := s.store.Load(id)
	if resumed && state.Settings != "" && state.Settings != settings {
		logger.Warn("checkpoint written with different settings, starting fresh",
			"checkpoint_settings", state.Settings,
			"settings", settings)
		state, resumed = keyscan.FreshState(id), false
	}
	if resumed {
		if err := enum.Restore(state.Position); err != nil {
			logger.Warn("checkpoint position rejected, starting fresh", "error", err)
			state, resumed = keyscan.FreshState(id), false
			if err := enum.Restore(keyscan.Position{}); err != nil {
				return ShardResult{State: state}, fmt.Errorf("failed to reset enumerator: %w", err)
			}
		} else {
			logger.Info("resuming shard",
				"attempts_checked", state.AttemptsChecked,
				"found_count", state.FoundCount)
		}
	}

	state.Settings = settings

	var (
		checked   uint64
		matched   uint64
		lastSave  = time.Now()
		lastTotal = state.AttemptsChecked
	)
	save := func() error {
		state = state.Advance(enum.Position(), checked, matched, s.now())
		checked, matched = 0, 0

		start := time.Now()
		err := s.store.Save(state)
		metrics.ObserveCheckpoint(time.Since(start), err)
		if err != nil {
			logger.Error("failed to save checkpoint", "error", err)
			return fmt.Errorf("failed to save checkpoint: %w", err)
		}

		elapsed := time.Since(lastSave).Seconds()
		rate := 0.0
		if elapsed > 0 {
			rate = float64(state.AttemptsChecked-lastTotal) / elapsed
		}
		logger.Info("progress",
			"checked", state.AttemptsChecked,
			"found", state.FoundCount,
			"rate_per_sec", fmt.Sprintf("%.0f", rate))
		lastSave, lastTotal = time.Now(), state.AttemptsChecked
		return nil
	}

	res := ShardResult{Resumed: resumed}
	for {
		select {
		case <-ctx.Done():
			// A failed save leaves the previous checkpoint intact.
			_ = save()
			res.State = state
			return res, ctx.Err()
		default:
		}

		cand, ok := enum.Next()
		if !ok {
			err := save()
			res.State, res.Exhausted = state, true
			logger.Info("shard exhausted", "checked", state.AttemptsChecked, "found", state.FoundCount)
			return res, err
		}

		out := s.client.Check(ctx, cand)
		metrics.ObserveCheck(strategy, out)
		checked++

		if out.Outcome == keyscan.OutcomeMatch {
			matched++
			rec := keyscan.NewFoundRecord(scope, cand, out.Identifier, strategy, s.now())
			logger.Info("match found",
				"candidate_hex", cand.Hex,
				"identifier", out.Identifier,
				"position", rec.PositionInRange.String())
			found <- rec

			if s.mode == keyscan.ModeFirstMatch {
				err := save()
				res.State, res.Matched = state, true
				return res, err
			}
		}

		if checked >= s.interval {
			// Periodic save failures are logged and retried at the next interval.
			_ = save()
		}
	}
}
