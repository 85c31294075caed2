package config

import "errors"

// Configuration errors returned by Load and Config.Validate.
// They are sentinels so that callers can use errors.Is.
var (
	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrNoTarget is returned when no target identifier is configured.
	ErrNoTarget = errors.New("no target specified: set target.value or use --target")

	// ErrNoRange is returned when either range bound is missing.
	ErrNoRange = errors.New("no range specified: set range.start and range.end")

	// ErrAllowListWithoutGuided is returned when an allow-list source is set
	// for a strategy that cannot use it.
	ErrAllowListWithoutGuided = errors.New("allowed_prefixes_source requires the guided strategy")

	// ErrMaxFoundWithFirstMatch is returned when max_found is combined with
	// first-match mode, which already stops after one match.
	ErrMaxFoundWithFirstMatch = errors.New("max_found only applies to collect-all mode")
)
