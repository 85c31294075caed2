package keyscan

import (
	"fmt"
	"math/big"
)

// ExhaustiveWalk yields every value of a range in increasing order.
type ExhaustiveWalk struct {
	r     Range
	next  *big.Int
	end1  *big.Int // End + 1, the exhausted cursor
	width int
}

// NewExhaustiveWalk creates a walk over r starting at resumeFrom, or at the
// range start when resumeFrom is nil.
func NewExhaustiveWalk(r Range, resumeFrom *big.Int) (*ExhaustiveWalk, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	w := &ExhaustiveWalk{
		r:     r,
		next:  new(big.Int).Set(r.Start),
		end1:  new(big.Int).Add(r.End, big.NewInt(1)),
		width: r.HexWidth(),
	}
	if resumeFrom != nil {
		if err := w.Restore(OffsetPosition(resumeFrom)); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// WithHexWidth pads candidate hex to n digits. Values n <= 0 are ignored.
func (w *ExhaustiveWalk) WithHexWidth(n int) *ExhaustiveWalk {
	if n > 0 {
		w.width = n
	}
	return w
}

// Next implements Enumerator.
func (w *ExhaustiveWalk) Next() (Candidate, bool) {
	if w.next.Cmp(w.r.End) > 0 {
		return Candidate{}, false
	}
	c := paddedCandidate(new(big.Int).Set(w.next), w.width)
	w.next.Add(w.next, big.NewInt(1))
	return c, true
}

// Position implements Enumerator. The offset is the next value to test.
func (w *ExhaustiveWalk) Position() Position {
	return OffsetPosition(w.next)
}

// Restore implements Enumerator.
func (w *ExhaustiveWalk) Restore(pos Position) error {
	if pos.IsZero() {
		w.next.Set(w.r.Start)
		return nil
	}
	if pos.Offset == nil {
		return fmt.Errorf("%w: exhaustive walk needs a value", ErrInvalidPosition)
	}
	if pos.Offset.Cmp(w.r.Start) < 0 || pos.Offset.Cmp(w.end1) > 0 {
		return fmt.Errorf("%w: value 0x%s outside %s", ErrInvalidPosition, pos.Offset.Text(16), w.r)
	}
	w.next.Set(pos.Offset)
	return nil
}

// Range implements Enumerator.
func (w *ExhaustiveWalk) Range() Range { return w.r }

// Strategy implements Enumerator.
func (w *ExhaustiveWalk) Strategy() Strategy { return StrategyExhaustive }
