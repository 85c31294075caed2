// Package main provides the entry point for the keyscan CLI.
//
// keyscan searches a bounded range of secp256k1 private keys for one whose
// derived identifier matches a target, with resumable checkpoints.
//
// Usage:
//
//	keyscan scan --config keyscan.yaml
//	keyscan analyze --corpus solved.txt --out table.json
//	keyscan filter 1a2b3c
//	keyscan status
//
// See --help for all available options.
package main

// main is the entry point for keyscan.
func main() {
	Execute()
}
