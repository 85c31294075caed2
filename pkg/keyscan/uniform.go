package keyscan

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
)

// maxUniformSamples bounds the sample count so the cursor fits in a uint64.
const maxUniformSamples = 1 << 62

// UniformSample yields evenly spaced samples across a range.
//
// Sample i maps to start + floor((end-start) * min(i*step, 100) / 100). The
// arithmetic is exact: the step is taken from its shortest decimal form, so a
// step of 0.01 yields exactly 10001 samples. Tiny ranges may repeat values;
// they are still yielded so the sample count depends only on the step.
type UniformSample struct {
	r     Range
	step  *big.Rat
	span  *big.Int
	count uint64
	next  uint64
	width int
}

var hundred = big.NewRat(100, 1)

// NewUniformSample creates a sampler over r with the given step in percent.
func NewUniformSample(r Range, stepPercent float64) (*UniformSample, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(stepPercent) || math.IsInf(stepPercent, 0) || stepPercent <= 0 || stepPercent > 100 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStep, stepPercent)
	}

	step, ok := new(big.Rat).SetString(strconv.FormatFloat(stepPercent, 'g', -1, 64))
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStep, stepPercent)
	}

	// ceil(100/step) + 1
	q := new(big.Rat).Quo(hundred, step)
	steps, rem := new(big.Int).QuoRem(q.Num(), q.Denom(), new(big.Int))
	if rem.Sign() != 0 {
		steps.Add(steps, big.NewInt(1))
	}
	steps.Add(steps, big.NewInt(1))
	if !steps.IsUint64() || steps.Uint64() > maxUniformSamples {
		return nil, fmt.Errorf("%w: %v yields too many samples", ErrInvalidStep, stepPercent)
	}

	return &UniformSample{
		r:     r,
		step:  step,
		span:  new(big.Int).Sub(r.End, r.Start),
		count: steps.Uint64(),
		width: r.HexWidth(),
	}, nil
}

// WithHexWidth pads candidate hex to n digits. Values n <= 0 are ignored.
func (u *UniformSample) WithHexWidth(n int) *UniformSample {
	if n > 0 {
		u.width = n
	}
	return u
}

// Settings implements Settings. A sample index only means something for the
// step it was counted with.
func (u *UniformSample) Settings() string {
	return "step=" + u.step.RatString()
}

// Count returns the total number of samples.
func (u *UniformSample) Count() uint64 {
	return u.count
}

// Next implements Enumerator.
func (u *UniformSample) Next() (Candidate, bool) {
	if u.next >= u.count {
		return Candidate{}, false
	}
	i := u.next
	u.next++

	pct := new(big.Rat).Mul(u.step, new(big.Rat).SetInt(new(big.Int).SetUint64(i)))
	if pct.Cmp(hundred) > 0 {
		pct.Set(hundred)
	}

	// floor(span * pct / 100); all terms are non-negative so Quo truncates down.
	num := new(big.Int).Mul(u.span, pct.Num())
	den := new(big.Int).Mul(pct.Denom(), big.NewInt(100))
	v := num.Quo(num, den)
	v.Add(v, u.r.Start)

	c := paddedCandidate(v, u.width)
	c.Percent, _ = pct.Float64()
	return c, true
}

// Position implements Enumerator. The offset is the next sample index.
func (u *UniformSample) Position() Position {
	return OffsetPosition(new(big.Int).SetUint64(u.next))
}

// Restore implements Enumerator.
func (u *UniformSample) Restore(pos Position) error {
	if pos.IsZero() {
		u.next = 0
		return nil
	}
	if pos.Offset == nil {
		return fmt.Errorf("%w: uniform sampling needs an index", ErrInvalidPosition)
	}
	if !pos.Offset.IsUint64() || pos.Offset.Uint64() > u.count {
		return fmt.Errorf("%w: index %s outside [0, %d]", ErrInvalidPosition, pos.Offset, u.count)
	}
	u.next = pos.Offset.Uint64()
	return nil
}

// Range implements Enumerator.
func (u *UniformSample) Range() Range { return u.r }

// Strategy implements Enumerator.
func (u *UniformSample) Strategy() Strategy { return StrategyUniform }
