package keyscan

import (
	"fmt"
	"strings"
)

// Rule identifies which admissibility rule rejected a candidate.
type Rule int

const (
	// RuleNone means the candidate passed every rule.
	RuleNone Rule = iota
	// RuleTriple rejects three identical adjacent characters.
	RuleTriple
	// RuleRestrictedDouble rejects an adjacent pair of 6, 9, a or d.
	RuleRestrictedDouble
	// RuleRepeatedDouble rejects a character forming two or more doubles.
	RuleRepeatedDouble
)

func (r Rule) String() string {
	switch r {
	case RuleNone:
		return "none"
	case RuleTriple:
		return "triple"
	case RuleRestrictedDouble:
		return "restricted_double"
	case RuleRepeatedDouble:
		return "repeated_double"
	default:
		return fmt.Sprintf("rule(%d)", int(r))
	}
}

// Verdict is the outcome of HexFilter.Check.
type Verdict struct {
	Valid bool
	Rule  Rule
}

// restricted marks the nibbles 6, 9, a and d.
var restricted = [16]bool{6: true, 9: true, 10: true, 13: true}

// HexFilter rejects structurally implausible candidates before the expensive
// key derivation. The zero value checks strings of any width.
type HexFilter struct {
	// Width, when positive, is the exact input length required.
	Width int
	// TrimLeadingZeros evaluates only the significant digits.
	TrimLeadingZeros bool
}

// Check evaluates s against the rules in order and reports the first one
// that fired. Input is case-insensitive. Malformed input yields ErrInvalidInput.
func (f HexFilter) Check(s string) (Verdict, error) {
	if f.Width > 0 && len(s) != f.Width {
		return Verdict{}, fmt.Errorf("%w: length %d, want %d", ErrInvalidInput, len(s), f.Width)
	}
	if f.TrimLeadingZeros {
		s = strings.TrimLeft(s, "0")
	}
	return evaluate(s)
}

// IsValid reports whether s passes every rule. Malformed input is not valid.
func IsValid(s string) bool {
	v, err := evaluate(s)
	return err == nil && v.Valid
}

// NoTriple reports whether s passes the triple rule alone.
func NoTriple(s string) bool {
	return passes(s, RuleTriple)
}

// NoRestrictedDouble reports whether s passes the restricted-double rule alone.
func NoRestrictedDouble(s string) bool {
	return passes(s, RuleRestrictedDouble)
}

// NoRepeatedDouble reports whether s passes the repeated-double rule alone.
func NoRepeatedDouble(s string) bool {
	return passes(s, RuleRepeatedDouble)
}

func passes(s string, rule Rule) bool {
	st, err := scan(s)
	if err != nil {
		return false
	}
	switch rule {
	case RuleTriple:
		return !st.triple
	case RuleRestrictedDouble:
		return !st.restricted
	case RuleRepeatedDouble:
		return !st.repeated
	}
	return true
}

func evaluate(s string) (Verdict, error) {
	st, err := scan(s)
	if err != nil {
		return Verdict{}, err
	}
	switch {
	case st.triple:
		return Verdict{Rule: RuleTriple}, nil
	case st.restricted:
		return Verdict{Rule: RuleRestrictedDouble}, nil
	case st.repeated:
		return Verdict{Rule: RuleRepeatedDouble}, nil
	default:
		return Verdict{Valid: true}, nil
	}
}

type scanResult struct {
	triple     bool
	restricted bool
	repeated   bool
}

// scan makes one pass over s tracking the current run length. A double is
// counted when a run reaches exactly two; any run that goes on to three is
// caught by the triple flag, which outranks the double counts.
func scan(s string) (scanResult, error) {
	var (
		res     scanResult
		doubles [16]uint8
		prev    byte
		run     int
	)
	for i := 0; i < len(s); i++ {
		c, ok := nibble(s[i])
		if !ok {
			return scanResult{}, fmt.Errorf("%w: %q at offset %d", ErrInvalidInput, s[i], i)
		}
		if i > 0 && c == prev {
			run++
		} else {
			run = 1
		}
		prev = c

		switch run {
		case 2:
			if restricted[c] {
				res.restricted = true
			}
			if doubles[c]++; doubles[c] >= 2 {
				res.repeated = true
			}
		case 3:
			res.triple = true
		}
	}
	return res, nil
}

func nibble(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}
