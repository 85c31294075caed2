package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahdiidarabi/keyscan/pkg/keyscan"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewConfig()
	cfg.Range = RangeConfig{Start: "0x20000", End: "0x3ffff"}
	cfg.Target.Value = "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH"
	cfg.Checkpoint.Dir = t.TempDir()
	cfg.FoundLog.Path = filepath.Join(t.TempDir(), "found.jsonl")
	return cfg
}

func TestNewConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	assert.Equal(t, string(keyscan.StrategyGuided), cfg.Strategy)
	assert.Equal(t, DefaultStepPercent, cfg.StepPercent)
	assert.Equal(t, uint64(DefaultCheckpointInterval), cfg.Checkpoint.Interval)
	assert.Equal(t, string(keyscan.ModeFirstMatch), cfg.Mode)
	assert.True(t, cfg.Filter.Enabled)
	assert.Equal(t, FoundLogJSONL, cfg.FoundLog.Backend)
	assert.Contains(t, cfg.Checkpoint.Dir, filepath.Join(AppName, "checkpoints"))
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validConfig(t).Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		target error
	}{
		{"missing range", func(c *Config) { c.Range = RangeConfig{} }, ErrNoRange},
		{"start above end", func(c *Config) { c.Range = RangeConfig{Start: "0x10", End: "0x1"} }, keyscan.ErrInvalidRange},
		{"zero start", func(c *Config) { c.Range.Start = "0" }, keyscan.ErrInvalidRange},
		{"missing target", func(c *Config) { c.Target.Value = "" }, ErrNoTarget},
		{"malformed hash160 target", func(c *Config) {
			c.Target.Format = string(keyscan.FormatHash160)
			c.Target.Value = "xyz"
		}, keyscan.ErrMalformedTarget},
		{"prefix longer than target", func(c *Config) {
			c.Target.Policy = "prefix"
			c.Target.PrefixLength = 99
		}, keyscan.ErrInvalidPolicy},
		{"allow-list with exhaustive", func(c *Config) {
			c.Strategy = string(keyscan.StrategyExhaustive)
			c.AllowedPrefixesSource = "table.json"
		}, ErrAllowListWithoutGuided},
		{"max found with first match", func(c *Config) { c.MaxFound = 3 }, ErrMaxFoundWithFirstMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.target)
		})
	}
}

func TestConfig_Validate_FieldRules(t *testing.T) {
	t.Parallel()

	for name, mutate := range map[string]func(*Config){
		"unknown strategy": func(c *Config) { c.Strategy = "spiral" },
		"zero workers":     func(c *Config) { c.Workers = 0 },
		"step above 100":   func(c *Config) { c.StepPercent = 150 },
		"zero interval":    func(c *Config) { c.Checkpoint.Interval = 0 },
		"unknown backend":  func(c *Config) { c.FoundLog.Backend = "csv" },
		"unknown mode":     func(c *Config) { c.Mode = "sometimes" },
		"non-hex end":      func(c *Config) { c.Range.End = "0xzz" },
	} {
		cfg := validConfig(t)
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("KEYSCAN_TEST_TARGET", "751e76e8199196d454941c45d1b3a323f1433bd6")

	path := filepath.Join(t.TempDir(), "keyscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
range:
  start: "0x1"
  end: "0xffff"
target:
  value: ${KEYSCAN_TEST_TARGET}
  format: hash160
  compressed: true
strategy: exhaustive
workers: 2
filter:
  trim_leading_zeros: true
`), 0o600))

	cfg := NewConfig()
	require.NoError(t, Load(path, cfg))

	assert.Equal(t, "751e76e8199196d454941c45d1b3a323f1433bd6", cfg.Target.Value)
	assert.Equal(t, "hash160", cfg.Target.Format)
	assert.Equal(t, "exact", cfg.Target.Policy, "unset fields keep defaults")
	assert.Equal(t, 2, cfg.Workers)
	assert.True(t, cfg.Filter.Enabled)
	assert.True(t, cfg.Filter.TrimLeadingZeros)

	r, err := cfg.ScanRange()
	require.NoError(t, err)
	assert.Equal(t, int64(0xffff), r.End.Int64())

	e, err := cfg.Target.Evaluator()
	require.NoError(t, err)
	assert.Equal(t, keyscan.Hash160Evaluator{Compressed: true}, e)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	err := Load(filepath.Join(t.TempDir(), "missing.yaml"), NewConfig())
	require.ErrorIs(t, err, ErrConfigNotFound)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("workers: [1, 2"), 0o600))
	require.Error(t, Load(bad, NewConfig()))
}

func TestFindConfigFile_Explicit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 1\n"), 0o600))
	assert.Equal(t, path, FindConfigFile(path))
	assert.Empty(t, FindConfigFile(filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestFilterConfig_HexFilter(t *testing.T) {
	t.Parallel()

	assert.Nil(t, FilterConfig{}.HexFilter())
	f := FilterConfig{Enabled: true, TrimLeadingZeros: true}.HexFilter()
	require.NotNil(t, f)
	assert.True(t, f.TrimLeadingZeros)
}
