// Package log provides slog loggers that mask key material before it reaches
// any output.
//
// A scanner handles private keys in its hot loop. Candidate keys, WIF strings
// and raw 256-bit hex values are replaced by MaskValue whether they are
// logged under a known attribute name or detected by their shape. Found keys
// are written only to the found log and to the command output.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("checkpoint saved",
//	    "shard", id.Key(),
//	    "candidate_hex", c.Hex, // masked
//	)
//	slog.SetDefault(logger)
package log
