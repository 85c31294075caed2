package foundlog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mahdiidarabi/keyscan/pkg/keyscan"
)

// maxLineSize bounds a single JSONL record when reading the log back.
const maxLineSize = 1 << 20

// JSONLLog appends one JSON object per line to a file opened with O_APPEND.
type JSONLLog struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// OpenJSONL opens or creates the log file at path.
func OpenJSONL(path string) (*JSONLLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("foundlog: mkdir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // operator-chosen path
	if err != nil {
		return nil, fmt.Errorf("foundlog: open: %w", err)
	}
	return &JSONLLog{path: path, f: f}, nil
}

// Path returns the log file path.
func (l *JSONLLog) Path() string { return l.path }

// Append implements Log. The line is fsynced before Append returns.
func (l *JSONLLog) Append(_ context.Context, rec keyscan.FoundRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("foundlog: marshal: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return errors.New("foundlog: log is closed")
	}
	if _, err := l.f.Write(line); err != nil {
		return fmt.Errorf("foundlog: append: %w", err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("foundlog: fsync: %w", err)
	}
	return nil
}

// Records implements Log.
func (l *JSONLLog) Records(_ context.Context) ([]keyscan.FoundRecord, error) {
	f, err := os.Open(l.path) //nolint:gosec // operator-chosen path
	if err != nil {
		return nil, fmt.Errorf("foundlog: open: %w", err)
	}
	defer f.Close()

	var out []keyscan.FoundRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for line := 1; sc.Scan(); line++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec keyscan.FoundRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("foundlog: line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("foundlog: read: %w", err)
	}
	return out, nil
}

// Close implements Log.
func (l *JSONLLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
