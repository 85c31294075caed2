package keyscan

import (
	"fmt"
	"math/big"

	"github.com/mahdiidarabi/keyscan/pkg/pathtree"
)

// GuidedDFS walks the binary path tree rooted at 1 (children 2n and 2n+1)
// in pre-order, Left before Right, and yields the nodes that fall inside the
// range.
//
// A node is pruned, together with its subtree, when it is deeper than
// maxDepth, when its path is not admitted by the allowed prefixes, or when
// no level of its subtree down to maxDepth overlaps the range. The pending
// nodes live on an explicit stack that never exceeds maxDepth+1 entries.
type GuidedDFS struct {
	r        Range
	maxDepth int
	allowed  *pathtree.PrefixSet
	stack    []pathtree.Path
	width    int

	// depth window holding range values: [minDepth, maxRangeDepth]
	minDepth      int
	maxRangeDepth int
}

// NewGuidedDFS creates a search over r. A nil allowed set admits every path.
func NewGuidedDFS(r Range, maxDepth int, allowed *pathtree.PrefixSet) (*GuidedDFS, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if maxDepth < 0 {
		return nil, fmt.Errorf("max depth must be >= 0, got %d", maxDepth)
	}
	g := &GuidedDFS{
		r:             r,
		maxDepth:      maxDepth,
		allowed:       allowed,
		stack:         make([]pathtree.Path, 0, maxDepth+1),
		width:         r.HexWidth(),
		minDepth:      r.Start.BitLen() - 1,
		maxRangeDepth: r.End.BitLen() - 1,
	}
	g.stack = append(g.stack, pathtree.Root)
	return g, nil
}

// MaxDepth returns the configured depth bound.
func (g *GuidedDFS) MaxDepth() int { return g.maxDepth }

// WithHexWidth pads candidate hex to n digits. Values n <= 0 are ignored.
func (g *GuidedDFS) WithHexWidth(n int) *GuidedDFS {
	if n > 0 {
		g.width = n
	}
	return g
}

// Settings implements Settings. A saved stack is bounded by the depth limit.
func (g *GuidedDFS) Settings() string {
	return fmt.Sprintf("max_depth=%d", g.maxDepth)
}

// Next implements Enumerator. Each call pops nodes until one inside the range
// is found, so the amount of work per call is bounded by the pruned nodes
// between two yields.
func (g *GuidedDFS) Next() (Candidate, bool) {
	for len(g.stack) > 0 {
		p := g.stack[len(g.stack)-1]
		g.stack = g.stack[:len(g.stack)-1]

		if p.Depth() > g.maxDepth || !g.allowed.Allows(p) {
			continue
		}
		v := p.Value()
		if !g.subtreeIntersects(v, p.Depth()) {
			continue
		}
		if p.Depth() < g.maxDepth {
			g.stack = append(g.stack, p.Child(pathtree.Right), p.Child(pathtree.Left))
		}
		if g.r.Contains(v) {
			c := paddedCandidate(v, g.width)
			c.Path = p
			return c, true
		}
	}
	return Candidate{}, false
}

// subtreeIntersects reports whether any descendant of v (v included) down to
// maxDepth lies in the range. At depth d+j the subtree covers the contiguous
// interval [v<<j, ((v+1)<<j)-1]; only the depths that can hold range values
// need checking.
func (g *GuidedDFS) subtreeIntersects(v *big.Int, depth int) bool {
	from := max(depth, g.minDepth)
	to := min(g.maxDepth, g.maxRangeDepth)

	next := new(big.Int).Add(v, big.NewInt(1))
	lo, hi := new(big.Int), new(big.Int)
	for d := from; d <= to; d++ {
		shift := uint(d - depth)
		lo.Lsh(v, shift)
		hi.Lsh(next, shift)
		hi.Sub(hi, big.NewInt(1))
		if lo.Cmp(g.r.End) <= 0 && hi.Cmp(g.r.Start) >= 0 {
			return true
		}
	}
	return false
}

// Position implements Enumerator. The stack is serialized bottom first.
func (g *GuidedDFS) Position() Position {
	return StackPosition(g.stack)
}

// Restore implements Enumerator.
func (g *GuidedDFS) Restore(pos Position) error {
	if pos.IsZero() {
		g.stack = append(g.stack[:0], pathtree.Root)
		return nil
	}
	if pos.Offset != nil || pos.Stack == nil {
		return fmt.Errorf("%w: guided search needs a path stack", ErrInvalidPosition)
	}
	for _, p := range pos.Stack {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPosition, err)
		}
		if p.Depth() > g.maxDepth {
			return fmt.Errorf("%w: path %s deeper than %d", ErrInvalidPosition, p, g.maxDepth)
		}
	}
	g.stack = append(g.stack[:0], pos.Stack...)
	return nil
}

// Range implements Enumerator.
func (g *GuidedDFS) Range() Range { return g.r }

// Strategy implements Enumerator.
func (g *GuidedDFS) Strategy() Strategy { return StrategyGuided }
