package keyscan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/mahdiidarabi/keyscan/pkg/pathtree"
)

// Strategy names a candidate enumeration order.
type Strategy string

const (
	StrategyUniform    Strategy = "uniform"
	StrategyExhaustive Strategy = "exhaustive"
	StrategyGuided     Strategy = "guided"
)

// ParseStrategy maps a configuration name to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch s := Strategy(strings.ToLower(strings.TrimSpace(name))); s {
	case StrategyUniform, StrategyExhaustive, StrategyGuided:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStrategy, name)
	}
}

// Range is an inclusive interval [Start, End] of candidate keys.
type Range struct {
	Start *big.Int
	End   *big.Int
}

// NewRange validates and copies the bounds.
func NewRange(start, end *big.Int) (Range, error) {
	r := Range{}
	if start != nil {
		r.Start = new(big.Int).Set(start)
	}
	if end != nil {
		r.End = new(big.Int).Set(end)
	}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// ParseRange parses hex bounds, with or without a 0x prefix.
func ParseRange(startHex, endHex string) (Range, error) {
	start, err := ParseHex(startHex)
	if err != nil {
		return Range{}, fmt.Errorf("%w: start: %v", ErrInvalidRange, err)
	}
	end, err := ParseHex(endHex)
	if err != nil {
		return Range{}, fmt.Errorf("%w: end: %v", ErrInvalidRange, err)
	}
	return NewRange(start, end)
}

// ParseHex parses a non-negative hex integer with an optional 0x prefix.
func ParseHex(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return nil, fmt.Errorf("empty hex value")
	}
	v, ok := new(big.Int).SetString(s, 16)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid hex value %q", s)
	}
	return v, nil
}

// Validate checks 1 <= Start <= End.
func (r Range) Validate() error {
	if r.Start == nil || r.End == nil {
		return fmt.Errorf("%w: missing bound", ErrInvalidRange)
	}
	if r.Start.Sign() <= 0 {
		return fmt.Errorf("%w: start must be >= 1, got %s", ErrInvalidRange, r.Start.Text(10))
	}
	if r.Start.Cmp(r.End) > 0 {
		return fmt.Errorf("%w: start 0x%s > end 0x%s", ErrInvalidRange, r.Start.Text(16), r.End.Text(16))
	}
	return nil
}

// Contains reports whether start <= v <= end.
func (r Range) Contains(v *big.Int) bool {
	return v.Cmp(r.Start) >= 0 && v.Cmp(r.End) <= 0
}

// Size returns end - start + 1.
func (r Range) Size() *big.Int {
	n := new(big.Int).Sub(r.End, r.Start)
	return n.Add(n, big.NewInt(1))
}

// HexWidth is the number of hex digits needed to render End.
func (r Range) HexWidth() int {
	w := (r.End.BitLen() + 3) / 4
	if w == 0 {
		return 1
	}
	return w
}

// Format renders v as zero-padded lowercase hex of HexWidth digits.
func (r Range) Format(v *big.Int) string {
	return FormatHex(v, r.HexWidth())
}

// FormatHex renders v as lowercase hex left-padded with zeros to width digits.
// Values wider than width are never truncated.
func FormatHex(v *big.Int, width int) string {
	s := v.Text(16)
	if pad := width - len(s); pad > 0 {
		return strings.Repeat("0", pad) + s
	}
	return s
}

func (r Range) String() string {
	return "0x" + r.Start.Text(16) + ":0x" + r.End.Text(16)
}

// Identity returns the checkpoint key of a scan of r with strategy s.
func (r Range) Identity(s Strategy) RangeIdentity {
	return RangeIdentity{
		Start:    "0x" + r.Start.Text(16),
		End:      "0x" + r.End.Text(16),
		Strategy: s,
	}
}

// RangeIdentity keys a checkpoint: a saved state only applies to a scan of
// exactly the same bounds with the same strategy.
type RangeIdentity struct {
	Start    string   `json:"start"`
	End      string   `json:"end"`
	Strategy Strategy `json:"strategy"`
}

// Key returns a file-system safe name for the identity.
func (id RangeIdentity) Key() string {
	trim := func(s string) string { return strings.TrimPrefix(s, "0x") }
	return fmt.Sprintf("%s_%s_%s", id.Strategy, trim(id.Start), trim(id.End))
}

// Candidate is a key proposed by an enumerator.
type Candidate struct {
	Value *big.Int
	Hex   string
	// Path is set by the guided strategy only.
	Path pathtree.Path
	// Percent is the position of a uniform sample within the range.
	Percent float64
}

func newCandidate(r Range, v *big.Int) Candidate {
	return paddedCandidate(v, r.HexWidth())
}

func paddedCandidate(v *big.Int, width int) Candidate {
	return Candidate{Value: v, Hex: FormatHex(v, width)}
}

// Position is a resumable enumerator cursor. Exactly one of Offset or Stack is
// set for a started scan; both are nil for a fresh one.
//
// Offset is the next value for the exhaustive walk and the next sample index
// for uniform sampling. Stack holds the pending guided-search nodes as paths,
// bottom of the stack first.
type Position struct {
	Offset *big.Int
	Stack  []pathtree.Path
}

// OffsetPosition returns an integer cursor.
func OffsetPosition(v *big.Int) Position {
	return Position{Offset: new(big.Int).Set(v)}
}

// StackPosition returns a path-stack cursor. The slice is copied.
func StackPosition(stack []pathtree.Path) Position {
	out := make([]pathtree.Path, len(stack))
	copy(out, stack)
	return Position{Stack: out}
}

// IsZero reports whether the position is the fresh-start cursor.
func (p Position) IsZero() bool {
	return p.Offset == nil && p.Stack == nil
}

// Equal compares two positions by value.
func (p Position) Equal(o Position) bool {
	if (p.Offset == nil) != (o.Offset == nil) {
		return false
	}
	if p.Offset != nil && p.Offset.Cmp(o.Offset) != 0 {
		return false
	}
	if (p.Stack == nil) != (o.Stack == nil) || len(p.Stack) != len(o.Stack) {
		return false
	}
	for i := range p.Stack {
		if p.Stack[i] != o.Stack[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes an offset as a JSON number and a stack as an array of
// path strings.
func (p Position) MarshalJSON() ([]byte, error) {
	switch {
	case p.Offset != nil:
		return p.Offset.MarshalJSON()
	case p.Stack != nil:
		raw := make([]string, len(p.Stack))
		for i, s := range p.Stack {
			raw[i] = string(s)
		}
		return json.Marshal(raw)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts the forms produced by MarshalJSON.
func (p *Position) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*p = Position{}
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '[':
		var raw []string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPosition, err)
		}
		p.Stack = make([]pathtree.Path, len(raw))
		for i, s := range raw {
			path, err := pathtree.ParsePath(s)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidPosition, err)
			}
			p.Stack[i] = path
		}
		return nil
	default:
		v := new(big.Int)
		if err := v.UnmarshalJSON(data); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPosition, err)
		}
		if v.Sign() < 0 {
			return fmt.Errorf("%w: negative offset", ErrInvalidPosition)
		}
		p.Offset = v
		return nil
	}
}

// ScanState is the persisted progress of one shard.
type ScanState struct {
	Identity        RangeIdentity `json:"range_identity"`
	Position        Position      `json:"position"`
	AttemptsChecked uint64        `json:"attempts_checked"`
	FoundCount      uint64        `json:"found_count"`
	Timestamp       time.Time     `json:"timestamp"`
	// Settings fingerprints the enumerator parameters the position depends on.
	Settings        string        `json:"settings,omitempty"`
}

// FreshState is the state of a scan that has not started.
func FreshState(id RangeIdentity) ScanState {
	return ScanState{Identity: id}
}

// IsFresh reports whether s carries no progress.
func (s ScanState) IsFresh() bool {
	return s.Position.IsZero() && s.AttemptsChecked == 0 && s.FoundCount == 0
}

// Advance returns a copy of s moved to pos with the batch counters added.
func (s ScanState) Advance(pos Position, checked, found uint64, now time.Time) ScanState {
	s.Position = pos
	s.AttemptsChecked += checked
	s.FoundCount += found
	s.Timestamp = now.UTC()
	return s
}

// Equal compares two states by value.
func (s ScanState) Equal(o ScanState) bool {
	return s.Identity == o.Identity &&
		s.Position.Equal(o.Position) &&
		s.AttemptsChecked == o.AttemptsChecked &&
		s.FoundCount == o.FoundCount &&
		s.Timestamp.Equal(o.Timestamp) &&
		s.Settings == o.Settings
}

// FoundRecord is an immutable entry of the found-keys log.
type FoundRecord struct {
	CandidateHex      string        `json:"candidate_hex"`
	DerivedIdentifier string        `json:"derived_identifier"`
	PositionInRange   *big.Int      `json:"position_in_range"`
	Path              pathtree.Path `json:"path,omitempty"`
	Percent           float64       `json:"percent,omitempty"`
	Strategy          Strategy      `json:"strategy"`
	Timestamp         time.Time     `json:"timestamp"`
}

// NewFoundRecord builds the record for a matching candidate of r.
func NewFoundRecord(r Range, c Candidate, identifier string, s Strategy, now time.Time) FoundRecord {
	return FoundRecord{
		CandidateHex:      c.Hex,
		DerivedIdentifier: identifier,
		PositionInRange:   new(big.Int).Sub(c.Value, r.Start),
		Path:              c.Path,
		Percent:           c.Percent,
		Strategy:          s,
		Timestamp:         now.UTC(),
	}
}
