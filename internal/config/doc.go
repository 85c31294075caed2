// Package config holds the scan configuration of keyscan.
//
// A configuration is assembled in three layers: the defaults of NewConfig,
// an optional YAML file (with ${VAR} expansion), and command-line flags. The
// result is checked once by Validate before any scanning starts, so that an
// invalid range or a malformed target fails fast.
package config
