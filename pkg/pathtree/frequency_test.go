package pathtree

import (
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bigs(values ...int64) []*big.Int {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		out[i] = big.NewInt(v)
	}
	return out
}

func TestAnalyzer_Analyze_Counts(t *testing.T) {
	// 7 = RR, 6 = RL, 5 = LR
	table, err := NewAnalyzer(WithPrefixLengths(1, 2, 3)).Analyze(bigs(7, 6, 5))
	require.NoError(t, err)

	assert.Equal(t, 3, table.TotalPaths)
	assert.Equal(t, uint64(3), table.Nodes["1"])
	assert.Equal(t, uint64(2), table.Nodes["3"])
	assert.Equal(t, uint64(1), table.Nodes["2"])
	assert.Equal(t, uint64(1), table.Nodes["7"])

	assert.Equal(t, uint64(2), table.Edges["1->3"])
	assert.Equal(t, uint64(1), table.Edges["1->2"])
	assert.Equal(t, uint64(1), table.Edges["3->7"])

	assert.Equal(t, uint64(2), table.Prefixes[1]["R"])
	assert.Equal(t, uint64(1), table.Prefixes[1]["L"])
	assert.Equal(t, uint64(1), table.Prefixes[2]["RR"])
	assert.Empty(t, table.Prefixes[3], "paths shorter than k must not contribute")
}

func TestAnalyzer_DefaultLengths(t *testing.T) {
	a := NewAnalyzer()
	assert.Len(t, a.lengths, DefaultMaxPrefixLength)
	assert.Equal(t, 1, a.lengths[0])
}

func TestAnalyzer_RejectsBadInput(t *testing.T) {
	_, err := NewAnalyzer().Analyze(bigs(3, 0))
	require.ErrorIs(t, err, ErrNonPositive)

	_, err = NewAnalyzer(WithPrefixLengths(0)).Analyze(bigs(3))
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestFrequencyTable_AllowedPrefixes(t *testing.T) {
	// Three keys under RL, one under LL.
	table, err := NewAnalyzer(WithPrefixLengths(2)).Analyze(bigs(12, 13, 25, 8))
	require.NoError(t, err)

	set := table.AllowedPrefixes(1)
	assert.True(t, set.Allows("RL"))
	assert.True(t, set.Allows("R"), "ancestors are closed in")
	assert.False(t, set.Allows("LL"), "count equal to threshold is excluded")
	assert.False(t, set.Allows("L"))
	assert.True(t, set.Allows("RLLR"), "deeper paths are truncated to the max prefix length")
	assert.True(t, set.Allows(Root))
}

func TestFrequencyTable_MostCommon(t *testing.T) {
	table, err := NewAnalyzer(WithPrefixLengths(1)).Analyze(bigs(2, 3, 3, 6))
	require.NoError(t, err)

	nodes := table.MostCommonNodes(2)
	require.Len(t, nodes, 2)
	assert.Equal(t, Count{Key: "1", Count: 4}, nodes[0])
	assert.Equal(t, Count{Key: "3", Count: 3}, nodes[1])

	prefixes := table.MostCommonPrefixes(1, 0)
	require.Len(t, prefixes, 2)
	assert.Equal(t, "R", prefixes[0].Key)

	edges := table.MostCommonEdges(1)
	require.Len(t, edges, 1)
	assert.Equal(t, "1->3", edges[0].Key)

	e, err := ParseEdge(edges[0].Key)
	require.NoError(t, err)
	assert.Equal(t, Edge{From: "1", To: "3"}, e)
}

func TestSaveLoadTable(t *testing.T) {
	table, err := NewAnalyzer(WithPrefixLengths(1, 2)).Analyze(bigs(5, 6, 7, 9))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "table.json")
	require.NoError(t, SaveTable(path, table))

	loaded, err := LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, table, loaded)
	assert.Equal(t, table.AllowedPrefixes(0).Prefixes(), loaded.AllowedPrefixes(0).Prefixes())
}
