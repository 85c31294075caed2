package keyscan

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// IdentifierFormat names what a KeyEvaluator derives from a candidate.
type IdentifierFormat string

const (
	// FormatP2PKH is a Base58Check pay-to-pubkey-hash address.
	FormatP2PKH IdentifierFormat = "p2pkh"
	// FormatHash160 is the lowercase hex RIPEMD160(SHA256(pubkey)).
	FormatHash160 IdentifierFormat = "hash160"
)

// Hash160HexLen is the length of a full hex HASH160.
const Hash160HexLen = 40

// PolicyKind selects how an identifier is compared with the target.
type PolicyKind int

const (
	PolicyExact PolicyKind = iota
	PolicyPrefix
)

// MatchPolicy compares identifiers either exactly or on their first Length characters.
type MatchPolicy struct {
	Kind   PolicyKind
	Length int
}

// Exact returns the exact-equality policy.
func Exact() MatchPolicy {
	return MatchPolicy{Kind: PolicyExact}
}

// PrefixOfLength returns a policy matching the first n characters.
func PrefixOfLength(n int) MatchPolicy {
	return MatchPolicy{Kind: PolicyPrefix, Length: n}
}

// ParsePolicy maps a configuration name ("exact" or "prefix") to a policy.
func ParsePolicy(name string, length int) (MatchPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "exact":
		return Exact(), nil
	case "prefix":
		if length < 1 {
			return MatchPolicy{}, fmt.Errorf("%w: prefix length must be >= 1, got %d", ErrInvalidPolicy, length)
		}
		return PrefixOfLength(length), nil
	default:
		return MatchPolicy{}, fmt.Errorf("%w: %q", ErrInvalidPolicy, name)
	}
}

func (p MatchPolicy) String() string {
	if p.Kind == PolicyPrefix {
		return fmt.Sprintf("prefix(%d)", p.Length)
	}
	return "exact"
}

// Matches compares identifier with target under policy. A prefix policy needs
// both strings to be at least Length characters long.
func Matches(identifier, target string, policy MatchPolicy) bool {
	switch policy.Kind {
	case PolicyPrefix:
		n := policy.Length
		if n < 1 || len(identifier) < n || len(target) < n {
			return false
		}
		return identifier[:n] == target[:n]
	default:
		return identifier == target
	}
}

// Mode controls what happens after a match.
type Mode string

const (
	// ModeFirstMatch stops the whole scan at the first match.
	ModeFirstMatch Mode = "first-match"
	// ModeCollectAll records every match and keeps scanning.
	ModeCollectAll Mode = "collect-all"
)

// ParseMode maps a configuration name to a Mode.
func ParseMode(name string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(name))); m {
	case ModeFirstMatch, ModeCollectAll:
		return m, nil
	case "":
		return ModeFirstMatch, nil
	default:
		return "", fmt.Errorf("unknown mode %q", name)
	}
}

// ValidateTarget checks that target could have been produced in format.
func ValidateTarget(target string, format IdentifierFormat) error {
	if target == "" {
		return fmt.Errorf("%w: empty target", ErrMalformedTarget)
	}
	switch format {
	case FormatHash160:
		if len(target) > Hash160HexLen {
			return fmt.Errorf("%w: hash160 target longer than %d characters", ErrMalformedTarget, Hash160HexLen)
		}
		for i := 0; i < len(target); i++ {
			if _, ok := nibble(target[i]); !ok {
				return fmt.Errorf("%w: non-hex character %q at offset %d", ErrMalformedTarget, target[i], i)
			}
		}
		return nil
	case FormatP2PKH:
		for i := 0; i < len(target); i++ {
			if !strings.ContainsRune(base58Alphabet, rune(target[i])) {
				return fmt.Errorf("%w: character %q at offset %d is not base58", ErrMalformedTarget, target[i], i)
			}
		}
		if len(base58.Decode(target)) == 0 {
			return fmt.Errorf("%w: undecodable base58 %q", ErrMalformedTarget, target)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown identifier format %q", ErrMalformedTarget, format)
	}
}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// Matcher holds a validated target and policy.
type Matcher struct {
	target string
	policy MatchPolicy
}

// NewMatcher validates target for format and returns a matcher. Hash160
// targets are lowercased to match the evaluator output.
func NewMatcher(target string, policy MatchPolicy, format IdentifierFormat) (*Matcher, error) {
	target = strings.TrimSpace(target)
	if err := ValidateTarget(target, format); err != nil {
		return nil, err
	}
	if format == FormatHash160 {
		target = strings.ToLower(target)
	}
	switch policy.Kind {
	case PolicyExact:
	case PolicyPrefix:
		if policy.Length < 1 || policy.Length > len(target) {
			return nil, fmt.Errorf("%w: prefix length %d for a %d-character target", ErrInvalidPolicy, policy.Length, len(target))
		}
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrInvalidPolicy, policy.Kind)
	}
	return &Matcher{target: target, policy: policy}, nil
}

// Match reports whether identifier satisfies the target.
func (m *Matcher) Match(identifier string) bool {
	return Matches(identifier, m.target, m.policy)
}

// Target returns the normalized target.
func (m *Matcher) Target() string { return m.target }

// Policy returns the match policy.
func (m *Matcher) Policy() MatchPolicy { return m.policy }
