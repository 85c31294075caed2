// Package foundlog stores matching keys in an append-only log.
//
// Records are only ever appended. Neither backend truncates or rewrites
// earlier entries, so a found key survives any later crash. The scan engine
// writes from a single goroutine; the backends still serialize Append
// themselves so they can be shared by tools reading the log.
package foundlog

import (
	"context"
	"fmt"

	"github.com/mahdiidarabi/keyscan/pkg/keyscan"
)

// Backend names accepted by Open.
const (
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
)

// Log is an append-only found-record log.
type Log interface {
	// Append adds rec at the end of the log.
	Append(ctx context.Context, rec keyscan.FoundRecord) error
	// Records returns every record in append order.
	Records(ctx context.Context) ([]keyscan.FoundRecord, error)
	// Close releases the underlying file or database.
	Close() error
}

// Open opens the log at path with the named backend, creating it if needed.
func Open(backend, path string) (Log, error) {
	switch backend {
	case BackendJSONL, "":
		return OpenJSONL(path)
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown found log backend %q", backend)
	}
}
