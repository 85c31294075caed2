package keyscan

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// mustRange builds a range from small decimal bounds.
func mustRange(t *testing.T, start, end int64) Range {
	t.Helper()
	r, err := NewRange(big.NewInt(start), big.NewInt(end))
	require.NoError(t, err)
	return r
}

// drain collects the values of every remaining candidate.
func drain(e Enumerator) []int64 {
	var out []int64
	for {
		c, ok := e.Next()
		if !ok {
			return out
		}
		out = append(out, c.Value.Int64())
	}
}

// take collects the values of the next n candidates.
func take(e Enumerator, n int) []int64 {
	out := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		c, ok := e.Next()
		if !ok {
			break
		}
		out = append(out, c.Value.Int64())
	}
	return out
}

// decimalEvaluator derives the decimal text of the key, which keeps matcher
// and engine tests independent of elliptic-curve arithmetic.
var decimalEvaluator = EvaluatorFunc(func(c Candidate) (string, error) {
	return c.Value.Text(10), nil
})
