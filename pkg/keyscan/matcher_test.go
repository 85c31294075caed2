package keyscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		target     string
		policy     MatchPolicy
		want       bool
	}{
		{"exact equal", "1abc", "1abc", Exact(), true},
		{"exact differs", "1abc", "1abd", Exact(), false},
		{"prefix equal", "1abcXYZ", "1abcQRS", PrefixOfLength(4), true},
		{"prefix differs", "1abdXYZ", "1abcQRS", PrefixOfLength(4), false},
		{"prefix identifier too short", "1ab", "1abc", PrefixOfLength(4), false},
		{"prefix target too short", "1abc", "1ab", PrefixOfLength(4), false},
		{"prefix zero length", "1abc", "1abc", PrefixOfLength(0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.identifier, tt.target, tt.policy))
		})
	}
}

func TestValidateTarget(t *testing.T) {
	require.NoError(t, ValidateTarget("751e76e8199196d454941c45d1b3a323f1433bd6", FormatHash160))
	require.NoError(t, ValidateTarget("751E76", FormatHash160))
	require.NoError(t, ValidateTarget("1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", FormatP2PKH))

	for _, tc := range []struct {
		target string
		format IdentifierFormat
	}{
		{"", FormatHash160},
		{"751e76e8199196d454941c45d1b3a323f1433bd6aa", FormatHash160},
		{"xyz", FormatHash160},
		{"1BgGZ9tcN0rm9", FormatP2PKH},
		{"1Il", FormatP2PKH},
		{"abc", "bech32"},
	} {
		assert.ErrorIs(t, ValidateTarget(tc.target, tc.format), ErrMalformedTarget, "%s/%s", tc.format, tc.target)
	}
}

func TestNewMatcher(t *testing.T) {
	m, err := NewMatcher("751E76", PrefixOfLength(4), FormatHash160)
	require.NoError(t, err)
	assert.Equal(t, "751e76", m.Target())
	assert.True(t, m.Match("751e00"))
	assert.False(t, m.Match("751f76"))

	_, err = NewMatcher("751e", PrefixOfLength(5), FormatHash160)
	require.ErrorIs(t, err, ErrInvalidPolicy)

	_, err = NewMatcher("not-hex", Exact(), FormatHash160)
	require.ErrorIs(t, err, ErrMalformedTarget)
}

func TestParsePolicyAndMode(t *testing.T) {
	p, err := ParsePolicy("prefix", 6)
	require.NoError(t, err)
	assert.Equal(t, PrefixOfLength(6), p)
	assert.Equal(t, "prefix(6)", p.String())

	p, err = ParsePolicy("", 0)
	require.NoError(t, err)
	assert.Equal(t, Exact(), p)

	_, err = ParsePolicy("prefix", 0)
	require.ErrorIs(t, err, ErrInvalidPolicy)

	m, err := ParseMode("collect-all")
	require.NoError(t, err)
	assert.Equal(t, ModeCollectAll, m)

	_, err = ParseMode("sometimes")
	require.Error(t, err)
}
