package config

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/adrg/xdg"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/mahdiidarabi/keyscan/pkg/keyscan"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "keyscan"

	// DefaultStepPercent samples the range in 0.01% steps.
	DefaultStepPercent = 0.01

	// DefaultCheckpointInterval is the number of candidates between checkpoint writes.
	DefaultCheckpointInterval = 100_000

	// DefaultPrefixThreshold keeps every prefix seen more than once.
	DefaultPrefixThreshold = 1

	// DefaultWorkers is the number of shards scanned in parallel.
	DefaultWorkers = 4

	// FoundLogJSONL appends one JSON object per line.
	FoundLogJSONL = "jsonl"

	// FoundLogSQLite inserts into a found_keys table.
	FoundLogSQLite = "sqlite"
)

var hexPattern = regexp.MustCompile(`^(0[xX])?[0-9a-fA-F]+$`)

// Config is the full scan configuration.
type Config struct {
	Range                 RangeConfig      `yaml:"range"`
	Target                TargetConfig     `yaml:"target"`
	Strategy              string           `yaml:"strategy"`
	StepPercent           float64          `yaml:"step_percent"`
	MaxDepth              int              `yaml:"max_depth"`
	AllowedPrefixesSource string           `yaml:"allowed_prefixes_source"`
	PrefixThreshold       uint64           `yaml:"prefix_threshold"`
	Checkpoint            CheckpointConfig `yaml:"checkpoint"`
	Mode                  string           `yaml:"mode"`
	Workers               int              `yaml:"workers"`
	MaxFound              uint64           `yaml:"max_found"`
	EvaluatorRetries      int              `yaml:"evaluator_retries"`
	Filter                FilterConfig     `yaml:"filter"`
	FoundLog              FoundLogConfig   `yaml:"found_log"`
	Verbose               bool             `yaml:"verbose"`
	JSONLogs              bool             `yaml:"json_logs"`
	MetricsAddr           string           `yaml:"metrics_addr"`
}

// RangeConfig holds the hex bounds of the keyspace.
type RangeConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Validate validates the range configuration.
func (c *RangeConfig) Validate() error {
	if c.Start == "" || c.End == "" {
		return ErrNoRange
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Start, validation.Match(hexPattern).Error("must be a hex number")),
		validation.Field(&c.End, validation.Match(hexPattern).Error("must be a hex number")),
	); err != nil {
		return err
	}
	_, err := keyscan.ParseRange(c.Start, c.End)
	return err
}

// TargetConfig describes what a matching key derives to.
type TargetConfig struct {
	Value        string `yaml:"value"`
	Policy       string `yaml:"policy"`
	PrefixLength int    `yaml:"prefix_length"`
	Format       string `yaml:"format"`
	Compressed   bool   `yaml:"compressed"`
}

// Validate validates the target configuration.
func (c *TargetConfig) Validate() error {
	if c.Value == "" {
		return ErrNoTarget
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Policy, validation.Required, validation.In("exact", "prefix")),
		validation.Field(&c.Format, validation.Required, validation.In(string(keyscan.FormatP2PKH), string(keyscan.FormatHash160))),
		validation.Field(&c.PrefixLength, validation.Min(0)),
	); err != nil {
		return err
	}
	_, err := c.Matcher()
	return err
}

// Matcher builds the matcher described by the target configuration.
func (c *TargetConfig) Matcher() (*keyscan.Matcher, error) {
	policy, err := keyscan.ParsePolicy(c.Policy, c.PrefixLength)
	if err != nil {
		return nil, err
	}
	return keyscan.NewMatcher(c.Value, policy, keyscan.IdentifierFormat(c.Format))
}

// Evaluator builds the key evaluator producing identifiers in the target format.
func (c *TargetConfig) Evaluator() (keyscan.KeyEvaluator, error) {
	return keyscan.NewEvaluator(keyscan.IdentifierFormat(c.Format), c.Compressed)
}

// CheckpointConfig holds checkpoint persistence settings.
type CheckpointConfig struct {
	Interval uint64 `yaml:"interval"`
	Dir      string `yaml:"dir"`
}

// Validate validates the checkpoint configuration.
func (c *CheckpointConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Interval, validation.Required, validation.Min(uint64(1))),
		validation.Field(&c.Dir, validation.Required),
	)
}

// FilterConfig controls the hex pattern filter.
type FilterConfig struct {
	Enabled          bool `yaml:"enabled"`
	TrimLeadingZeros bool `yaml:"trim_leading_zeros"`
}

// HexFilter returns the configured filter, or nil when disabled.
func (c FilterConfig) HexFilter() *keyscan.HexFilter {
	if !c.Enabled {
		return nil
	}
	return &keyscan.HexFilter{TrimLeadingZeros: c.TrimLeadingZeros}
}

// FoundLogConfig selects the found-keys log backend.
type FoundLogConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// Validate validates the found log configuration.
func (c *FoundLogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(FoundLogJSONL, FoundLogSQLite)),
		validation.Field(&c.Path, validation.Required),
	)
}

// NewConfig returns a configuration with default values.
// The range and target have no sensible defaults and must be supplied.
func NewConfig() *Config {
	return &Config{
		Target: TargetConfig{
			Policy: "exact",
			Format: string(keyscan.FormatP2PKH),
		},
		Strategy:        string(keyscan.StrategyGuided),
		StepPercent:     DefaultStepPercent,
		PrefixThreshold: DefaultPrefixThreshold,
		Checkpoint: CheckpointConfig{
			Interval: DefaultCheckpointInterval,
			Dir:      DefaultCheckpointDir(),
		},
		Mode:             string(keyscan.ModeFirstMatch),
		Workers:          DefaultWorkers,
		EvaluatorRetries: keyscan.DefaultEvaluatorRetries,
		Filter:           FilterConfig{Enabled: true},
		FoundLog: FoundLogConfig{
			Backend: FoundLogJSONL,
			Path:    DefaultFoundLogPath(),
		},
	}
}

// DefaultCheckpointDir returns $XDG_DATA_HOME/keyscan/checkpoints.
func DefaultCheckpointDir() string {
	return filepath.Join(xdg.DataHome, AppName, "checkpoints")
}

// DefaultFoundLogPath returns $XDG_DATA_HOME/keyscan/found.jsonl.
func DefaultFoundLogPath() string {
	return filepath.Join(xdg.DataHome, AppName, "found.jsonl")
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := c.Range.Validate(); err != nil {
		return fmt.Errorf("range: %w", err)
	}
	if err := c.Target.Validate(); err != nil {
		return fmt.Errorf("target: %w", err)
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Strategy, validation.Required, validation.In(
			string(keyscan.StrategyUniform), string(keyscan.StrategyExhaustive), string(keyscan.StrategyGuided))),
		validation.Field(&c.Mode, validation.Required, validation.In(
			string(keyscan.ModeFirstMatch), string(keyscan.ModeCollectAll))),
		validation.Field(&c.StepPercent, validation.Required, validation.Min(0.0).Exclusive(), validation.Max(100.0)),
		validation.Field(&c.MaxDepth, validation.Min(0)),
		validation.Field(&c.Workers, validation.Required, validation.Min(1)),
		validation.Field(&c.EvaluatorRetries, validation.Min(0)),
	); err != nil {
		return err
	}
	if err := c.Checkpoint.Validate(); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if err := c.FoundLog.Validate(); err != nil {
		return fmt.Errorf("found_log: %w", err)
	}
	if c.AllowedPrefixesSource != "" && c.Strategy != string(keyscan.StrategyGuided) {
		return ErrAllowListWithoutGuided
	}
	if c.MaxFound > 0 && c.Mode == string(keyscan.ModeFirstMatch) {
		return ErrMaxFoundWithFirstMatch
	}
	return nil
}

// ScanRange returns the parsed keyspace.
func (c *Config) ScanRange() (keyscan.Range, error) {
	return keyscan.ParseRange(c.Range.Start, c.Range.End)
}

// ScanStrategy returns the parsed strategy.
func (c *Config) ScanStrategy() (keyscan.Strategy, error) {
	return keyscan.ParseStrategy(c.Strategy)
}

// ScanMode returns the parsed match mode.
func (c *Config) ScanMode() (keyscan.Mode, error) {
	return keyscan.ParseMode(c.Mode)
}
