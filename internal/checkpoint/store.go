// Package checkpoint persists scan progress so that an interrupted scan
// resumes where it stopped.
//
// Each shard owns one JSON file named after its range identity. Files are
// replaced atomically (temp file, fsync, rename), so a crash mid-write leaves
// the previous checkpoint intact.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mahdiidarabi/keyscan/pkg/keyscan"
)

const fileExt = ".json"

// Store loads and saves shard states.
type Store interface {
	// Save atomically persists s under its identity.
	Save(s keyscan.ScanState) error
	// Load returns the saved state for id, or keyscan.FreshState(id) and
	// false when there is none usable.
	Load(id keyscan.RangeIdentity) (keyscan.ScanState, bool)
}

// FileStore is a Store keeping one JSON file per identity in a directory.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithLogger sets the logger used for load warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *FileStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string, opts ...Option) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("checkpoint: empty directory")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("checkpoint: mkdir: %w", err)
	}
	s := &FileStore{dir: dir, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the directory holding the checkpoint files.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the file used for id.
func (s *FileStore) Path(id keyscan.RangeIdentity) string {
	return filepath.Join(s.dir, id.Key()+fileExt)
}

// Save implements Store.
func (s *FileStore) Save(state keyscan.ScanState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("checkpoint: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("checkpoint: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("checkpoint: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("checkpoint: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("checkpoint: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(state.Identity)); err != nil {
		return fmt.Errorf("checkpoint: rename: %w", err)
	}
	success = true
	return nil
}

// Load implements Store. A missing file is a normal fresh start; an unreadable,
// corrupt or mismatched file is logged as a warning and also starts fresh.
func (s *FileStore) Load(id keyscan.RangeIdentity) (keyscan.ScanState, bool) {
	path := s.Path(id)
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from the identity
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("cannot read checkpoint, starting fresh", "path", path, "error", err)
		}
		return keyscan.FreshState(id), false
	}

	var state keyscan.ScanState
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("corrupt checkpoint, starting fresh", "path", path, "error", err)
		return keyscan.FreshState(id), false
	}
	if state.Identity != id {
		s.logger.Warn("checkpoint belongs to another scan, starting fresh",
			"path", path,
			"want", id.Key(),
			"got", state.Identity.Key())
		return keyscan.FreshState(id), false
	}
	return state, true
}

// Delete removes the checkpoint of id. Deleting a missing checkpoint is not an error.
func (s *FileStore) Delete(id keyscan.RangeIdentity) error {
	if err := os.Remove(s.Path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checkpoint: delete: %w", err)
	}
	return nil
}

// List returns every readable checkpoint in the directory, ordered by file
// name. Unreadable files are skipped with a warning.
func (s *FileStore) List() ([]keyscan.ScanState, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: list: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || filepath.Ext(e.Name()) != fileExt {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	states := make([]keyscan.ScanState, 0, len(names))
	for _, name := range names {
		path := filepath.Join(s.dir, name)
		data, err := os.ReadFile(path) //nolint:gosec // listing our own directory
		if err != nil {
			s.logger.Warn("skipping unreadable checkpoint", "path", path, "error", err)
			continue
		}
		var state keyscan.ScanState
		if err := json.Unmarshal(data, &state); err != nil {
			s.logger.Warn("skipping corrupt checkpoint", "path", path, "error", err)
			continue
		}
		states = append(states, state)
	}
	return states, nil
}
