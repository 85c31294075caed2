package keyscan

import (
	"fmt"
	"math/big"

	"github.com/mahdiidarabi/keyscan/pkg/pathtree"
)

// Enumerator defines the interface for candidate enumeration strategies.
// An enumerator yields a finite, deterministic sequence of candidates and can
// be suspended and resumed through its Position.
//
// Enumerators are not safe for concurrent use; shard the range instead.
type Enumerator interface {
	// Next returns the next candidate, or false once the sequence is exhausted.
	Next() (Candidate, bool)

	// Position returns a cursor that resumes right after the last candidate
	// returned by Next.
	Position() Position

	// Restore moves the enumerator to a cursor obtained from Position.
	Restore(pos Position) error

	// Range returns the bounds being enumerated.
	Range() Range

	// Strategy returns the strategy name used in checkpoint identities.
	Strategy() Strategy
}

// StrategyConfig configures enumerator construction.
type StrategyConfig struct {
	// StepPercent is the uniform sampling step, in percent of the range (0, 100]
	StepPercent float64

	// MaxDepth bounds the guided search depth (0 = depth of the range end)
	MaxDepth int

	// AllowedPrefixes restricts the guided search (nil = allow all)
	AllowedPrefixes *pathtree.PrefixSet

	// HexWidth pads candidate hex to this many digits (0 = width of the
	// enumerated range). Shards set it to the width of the whole scan so the
	// filter sees the same string whatever the shard count.
	HexWidth int
}

// Settings is implemented by enumerators whose Position is only meaningful
// for the parameters it was taken with.
type Settings interface {
	// Settings returns a stable fingerprint of those parameters.
	Settings() string
}

// SettingsOf returns the fingerprint of e, or "" when it has none.
func SettingsOf(e Enumerator) string {
	if s, ok := e.(Settings); ok {
		return s.Settings()
	}
	return ""
}

// DefaultStrategyConfig returns the default enumeration settings.
func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		StepPercent: 0.01,
		MaxDepth:    0,
	}
}

// NewEnumerator creates a fresh enumerator for strategy s over r.
func NewEnumerator(s Strategy, r Range, cfg StrategyConfig) (Enumerator, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	switch s {
	case StrategyUniform:
		u, err := NewUniformSample(r, cfg.StepPercent)
		if err != nil {
			return nil, err
		}
		return u.WithHexWidth(cfg.HexWidth), nil
	case StrategyExhaustive:
		w, err := NewExhaustiveWalk(r, nil)
		if err != nil {
			return nil, err
		}
		return w.WithHexWidth(cfg.HexWidth), nil
	case StrategyGuided:
		depth := cfg.MaxDepth
		if depth <= 0 {
			depth = DefaultMaxDepth(r)
		}
		g, err := NewGuidedDFS(r, depth, cfg.AllowedPrefixes)
		if err != nil {
			return nil, err
		}
		return g.WithHexWidth(cfg.HexWidth), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStrategy, s)
	}
}

// DefaultMaxDepth is the tree depth of r.End, the deepest level that can hold
// a value of the range.
func DefaultMaxDepth(r Range) int {
	return r.End.BitLen() - 1
}

// SplitRange divides r into at most n disjoint, contiguous sub-ranges that
// cover it exactly. Earlier shards absorb the remainder, so sizes differ by at
// most one. Fewer than n shards are returned when r is smaller than n.
func SplitRange(r Range, n int) []Range {
	if n < 1 {
		n = 1
	}
	size := r.Size()
	if size.Cmp(big.NewInt(int64(n))) < 0 {
		n = int(size.Int64())
	}

	quo, rem := new(big.Int).QuoRem(size, big.NewInt(int64(n)), new(big.Int))
	extra := int(rem.Int64())

	shards := make([]Range, 0, n)
	start := new(big.Int).Set(r.Start)
	for i := 0; i < n; i++ {
		width := new(big.Int).Set(quo)
		if i < extra {
			width.Add(width, big.NewInt(1))
		}
		end := new(big.Int).Add(start, width)
		end.Sub(end, big.NewInt(1))
		shards = append(shards, Range{Start: new(big.Int).Set(start), End: end})
		start = new(big.Int).Add(end, big.NewInt(1))
	}
	return shards
}
