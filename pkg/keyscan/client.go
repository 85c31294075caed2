package keyscan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultEvaluatorRetries is the number of extra attempts after an evaluator error.
const DefaultEvaluatorRetries = 2

// Outcome classifies what happened to a single candidate.
type Outcome int

const (
	// OutcomeNoMatch means the candidate was evaluated and did not match.
	OutcomeNoMatch Outcome = iota
	// OutcomeFiltered means the hex filter rejected the candidate.
	OutcomeFiltered
	// OutcomeSkipped means evaluation kept failing and the candidate was dropped.
	OutcomeSkipped
	// OutcomeMatch means the derived identifier matched the target.
	OutcomeMatch
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoMatch:
		return "no_match"
	case OutcomeFiltered:
		return "filtered"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeMatch:
		return "match"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// CheckResult is the result of Client.Check.
type CheckResult struct {
	Outcome    Outcome
	Rule       Rule
	Identifier string
	Err        error
}

// Client provides a high-level API for checking candidates against a target.
// It runs the per-candidate pipeline: filter, evaluate with bounded retry, match.
// A Client is safe for concurrent use once configured.
type Client struct {
	matcher   *Matcher
	evaluator KeyEvaluator
	filter    *HexFilter
	retries   int
	logger    *slog.Logger
	now       func() time.Time
}

// NewClient creates a client with default settings: uncompressed mainnet P2PKH
// derivation and the hex filter enabled.
func NewClient(matcher *Matcher) *Client {
	return &Client{
		matcher:   matcher,
		evaluator: P2PKHEvaluator{Version: MainnetP2PKHVersion},
		filter:    &HexFilter{},
		retries:   DefaultEvaluatorRetries,
		logger:    slog.Default(),
		now:       time.Now,
	}
}

// WithEvaluator sets the key evaluator.
func (c *Client) WithEvaluator(e KeyEvaluator) *Client {
	c.evaluator = e
	return c
}

// WithFilter sets the hex filter. A nil filter disables filtering.
func (c *Client) WithFilter(f *HexFilter) *Client {
	c.filter = f
	return c
}

// WithRetries sets how many times a failed evaluation is retried.
func (c *Client) WithRetries(n int) *Client {
	if n < 0 {
		n = 0
	}
	c.retries = n
	return c
}

// WithLogger sets the logger.
func (c *Client) WithLogger(l *slog.Logger) *Client {
	if l != nil {
		c.logger = l
	}
	return c
}

// Matcher returns the client's matcher.
func (c *Client) Matcher() *Matcher { return c.matcher }

// Check runs one candidate through the pipeline.
//
// Evaluator errors are retried up to the configured count and then reported
// as OutcomeSkipped; ErrKeyOutOfRange is never retried. Check never fails the
// caller: skipped candidates are logged and the scan goes on.
func (c *Client) Check(ctx context.Context, cand Candidate) CheckResult {
	if c.filter != nil {
		v, err := c.filter.Check(cand.Hex)
		if err != nil {
			c.logger.WarnContext(ctx, "filter rejected malformed candidate",
				"candidate_hex", cand.Hex, "error", err)
			return CheckResult{Outcome: OutcomeSkipped, Err: err}
		}
		if !v.Valid {
			return CheckResult{Outcome: OutcomeFiltered, Rule: v.Rule}
		}
	}

	var (
		id  string
		err error
	)
	for attempt := 0; attempt <= c.retries; attempt++ {
		id, err = c.evaluator.Evaluate(cand)
		if err == nil || errors.Is(err, ErrKeyOutOfRange) {
			break
		}
	}
	if err != nil {
		c.logger.WarnContext(ctx, "skipping candidate after evaluator failure",
			"candidate_hex", cand.Hex, "retries", c.retries, "error", err)
		return CheckResult{Outcome: OutcomeSkipped, Err: err}
	}

	if c.matcher.Match(id) {
		return CheckResult{Outcome: OutcomeMatch, Identifier: id}
	}
	return CheckResult{Outcome: OutcomeNoMatch, Identifier: id}
}

// Search drains enum on the calling goroutine and returns the matches found.
// In ModeFirstMatch it stops at the first match. On cancellation it returns
// the matches found so far together with the context error.
//
// Search keeps no checkpoints; use the scan engine for long-running work.
func (c *Client) Search(ctx context.Context, enum Enumerator, mode Mode) ([]FoundRecord, error) {
	var found []FoundRecord
	for {
		select {
		case <-ctx.Done():
			return found, ctx.Err()
		default:
		}

		cand, ok := enum.Next()
		if !ok {
			return found, nil
		}
		res := c.Check(ctx, cand)
		if res.Outcome != OutcomeMatch {
			continue
		}
		found = append(found, NewFoundRecord(enum.Range(), cand, res.Identifier, enum.Strategy(), c.now()))
		if mode == ModeFirstMatch {
			return found, nil
		}
	}
}
