package pathtree

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultMaxPrefixLength is the longest prefix length tracked by default.
const DefaultMaxPrefixLength = 10

// ErrInvalidLength is returned for prefix lengths below 1.
var ErrInvalidLength = errors.New("prefix length must be >= 1")

// Edge is a parent to child step, keyed by decimal node values.
type Edge struct {
	From string
	To   string
}

// String renders the edge the way it is stored in a FrequencyTable.
func (e Edge) String() string {
	return e.From + "->" + e.To
}

// ParseEdge splits an edge key of the form "from->to".
func ParseEdge(key string) (Edge, error) {
	from, to, ok := strings.Cut(key, "->")
	if !ok || from == "" || to == "" {
		return Edge{}, fmt.Errorf("malformed edge key %q", key)
	}
	return Edge{From: from, To: to}, nil
}

// FrequencyTable holds node, edge and prefix occurrence counts across a corpus
// of solved keys.
type FrequencyTable struct {
	TotalPaths int                     `json:"total_paths"`
	Lengths    []int                   `json:"lengths"`
	Nodes      map[string]uint64       `json:"nodes"`
	Edges      map[string]uint64       `json:"edges"`
	Prefixes   map[int]map[Path]uint64 `json:"prefixes"`
}

// NewFrequencyTable returns an empty table tracking the given prefix lengths.
func NewFrequencyTable(lengths []int) *FrequencyTable {
	t := &FrequencyTable{
		Lengths:  append([]int(nil), lengths...),
		Nodes:    make(map[string]uint64),
		Edges:    make(map[string]uint64),
		Prefixes: make(map[int]map[Path]uint64, len(lengths)),
	}
	for _, k := range lengths {
		t.Prefixes[k] = make(map[Path]uint64)
	}
	return t
}

// Add records one path.
func (t *FrequencyTable) Add(p Path) {
	t.TotalPaths++

	nodes := p.Nodes()
	for i, n := range nodes {
		t.Nodes[n.String()]++
		if i > 0 {
			t.Edges[Edge{From: nodes[i-1].String(), To: n.String()}.String()]++
		}
	}
	for _, k := range t.Lengths {
		if len(p) < k {
			continue
		}
		t.Prefixes[k][p[:k]]++
	}
}

// AllowedPrefixes keeps every prefix whose count strictly exceeds threshold,
// across all tracked lengths, and closes the result under ancestors.
func (t *FrequencyTable) AllowedPrefixes(threshold uint64) *PrefixSet {
	var keep []Path
	for _, counts := range t.Prefixes {
		for p, c := range counts {
			if c > threshold {
				keep = append(keep, p)
			}
		}
	}
	return NewPrefixSet(keep...)
}

// Count is a single entry of a MostCommon view.
type Count struct {
	Key   string `json:"key"`
	Count uint64 `json:"count"`
}

// MostCommonNodes returns the n most visited nodes.
func (t *FrequencyTable) MostCommonNodes(n int) []Count {
	return mostCommon(t.Nodes, n)
}

// MostCommonEdges returns the n most traversed edges.
func (t *FrequencyTable) MostCommonEdges(n int) []Count {
	return mostCommon(t.Edges, n)
}

// MostCommonPrefixes returns the n most frequent prefixes of length k.
func (t *FrequencyTable) MostCommonPrefixes(k, n int) []Count {
	counts := make(map[string]uint64, len(t.Prefixes[k]))
	for p, c := range t.Prefixes[k] {
		counts[string(p)] = c
	}
	return mostCommon(counts, n)
}

// mostCommon sorts by count descending, breaking ties by key so the output
// is stable across runs. n <= 0 returns every entry.
func mostCommon(counts map[string]uint64, n int) []Count {
	out := make([]Count, 0, len(counts))
	for k, c := range counts {
		out = append(out, Count{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Analyzer derives a FrequencyTable from historical keys.
type Analyzer struct {
	lengths []int
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithPrefixLengths sets the prefix lengths to count.
func WithPrefixLengths(lengths ...int) AnalyzerOption {
	return func(a *Analyzer) {
		a.lengths = append([]int(nil), lengths...)
	}
}

// NewAnalyzer creates an analyzer tracking prefix lengths 1..DefaultMaxPrefixLength
// unless overridden.
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{}
	for k := 1; k <= DefaultMaxPrefixLength; k++ {
		a.lengths = append(a.lengths, k)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze walks the path of every key in order and aggregates the counts.
func (a *Analyzer) Analyze(keys []*big.Int) (*FrequencyTable, error) {
	for _, k := range a.lengths {
		if k < 1 {
			return nil, fmt.Errorf("%w: got %d", ErrInvalidLength, k)
		}
	}

	t := NewFrequencyTable(a.lengths)
	for i, key := range keys {
		p, err := PathOf(key)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		t.Add(p)
	}
	return t, nil
}

// SaveTable writes the table as indented JSON.
func SaveTable(path string, t *FrequencyTable) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal frequency table: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("failed to write frequency table: %w", err)
	}
	return nil
}

// LoadTable reads a table written by SaveTable.
func LoadTable(path string) (*FrequencyTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frequency table: %w", err)
	}
	var t FrequencyTable
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse frequency table: %w", err)
	}
	for k, counts := range t.Prefixes {
		for p := range counts {
			if err := p.Validate(); err != nil {
				return nil, fmt.Errorf("prefix length %d: %w", k, err)
			}
		}
	}
	if t.Nodes == nil {
		t.Nodes = make(map[string]uint64)
	}
	if t.Edges == nil {
		t.Edges = make(map[string]uint64)
	}
	if t.Prefixes == nil {
		t.Prefixes = make(map[int]map[Path]uint64)
	}
	return &t, nil
}
