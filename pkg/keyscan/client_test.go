package keyscan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahdiidarabi/keyscan/pkg/pathtree"
)

func decimalClient(t *testing.T, target string, policy MatchPolicy) *Client {
	t.Helper()
	m, err := NewMatcher(target, policy, FormatHash160)
	require.NoError(t, err)
	return NewClient(m).WithEvaluator(decimalEvaluator).WithFilter(nil)
}

func TestClient_Search_GuidedReportsPath(t *testing.T) {
	client := decimalClient(t, "7", Exact())
	enum, err := NewGuidedDFS(mustRange(t, 1, 15), 3, nil)
	require.NoError(t, err)

	found, err := client.Search(context.Background(), enum, ModeFirstMatch)
	require.NoError(t, err)
	require.Len(t, found, 1)

	rec := found[0]
	assert.Equal(t, "7", rec.DerivedIdentifier)
	assert.Equal(t, pathtree.Path("RR"), rec.Path)
	assert.Equal(t, "1 -> 3 -> 7", rec.Path.FormatNodes())
	assert.Equal(t, int64(6), rec.PositionInRange.Int64())
	assert.Equal(t, StrategyGuided, rec.Strategy)

	// Only 7, 14 and 15 remain after the match at 7.
	assert.Equal(t, []int64{14, 15}, drain(enum))
}

func TestClient_Search_CollectAll(t *testing.T) {
	client := decimalClient(t, "1", PrefixOfLength(1))
	enum, err := NewExhaustiveWalk(mustRange(t, 1, 15), nil)
	require.NoError(t, err)

	found, err := client.Search(context.Background(), enum, ModeCollectAll)
	require.NoError(t, err)

	var ids []string
	for _, rec := range found {
		ids = append(ids, rec.DerivedIdentifier)
	}
	assert.Equal(t, []string{"1", "10", "11", "12", "13", "14", "15"}, ids)
}

func TestClient_Search_Cancelled(t *testing.T) {
	client := decimalClient(t, "7", Exact())
	enum, err := NewExhaustiveWalk(mustRange(t, 1, 15), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	found, err := client.Search(ctx, enum, ModeFirstMatch)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, found)
}

func TestClient_Check_Filtered(t *testing.T) {
	m, err := NewMatcher("aa", Exact(), FormatHash160)
	require.NoError(t, err)
	client := NewClient(m).WithEvaluator(decimalEvaluator)

	r := mustRange(t, 0xaa, 0xab)
	res := client.Check(context.Background(), newCandidate(r, r.Start))
	assert.Equal(t, OutcomeFiltered, res.Outcome)
	assert.Equal(t, RuleRestrictedDouble, res.Rule)

	res = client.Check(context.Background(), newCandidate(r, r.End))
	assert.Equal(t, OutcomeNoMatch, res.Outcome)
	assert.Equal(t, "171", res.Identifier)
}

func TestClient_Check_RetriesTransientFailures(t *testing.T) {
	calls := 0
	flaky := EvaluatorFunc(func(c Candidate) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return c.Value.Text(10), nil
	})
	m, err := NewMatcher("5", Exact(), FormatHash160)
	require.NoError(t, err)
	client := NewClient(m).WithEvaluator(flaky).WithFilter(nil).WithRetries(2)

	res := client.Check(context.Background(), candidateOf(5))
	assert.Equal(t, OutcomeMatch, res.Outcome)
	assert.Equal(t, 3, calls)
}

func TestClient_Check_SkipsAfterRetries(t *testing.T) {
	calls := 0
	broken := EvaluatorFunc(func(Candidate) (string, error) {
		calls++
		return "", errors.New("boom")
	})
	m, err := NewMatcher("5", Exact(), FormatHash160)
	require.NoError(t, err)
	client := NewClient(m).WithEvaluator(broken).WithFilter(nil).WithRetries(1)

	res := client.Check(context.Background(), candidateOf(5))
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Error(t, res.Err)
	assert.Equal(t, 2, calls)
}

func TestClient_Check_OutOfRangeIsNotRetried(t *testing.T) {
	m, err := NewMatcher("5", Exact(), FormatHash160)
	require.NoError(t, err)
	client := NewClient(m).WithEvaluator(Hash160Evaluator{}).WithFilter(nil).WithRetries(5)

	res := client.Check(context.Background(), candidateOf(0))
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrKeyOutOfRange)
}
