// Package file implements the storage contract on two JSON files: a ledger
// array and a state blob holding the update offset and the user sessions.
// The layout matches the files written by earlier versions of the bot.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/David-Schmidt02/gastos-bot/pkg/lock"
	"github.com/David-Schmidt02/gastos-bot/pkg/storage"
)

// LockKey names the distributed lock guarding both files.
const LockKey = "gastos-bot:file-store"

// Store implements the Storage interface on local JSON files.
// Every mutation is a full read-check-rewrite. The in-process mutex covers
// one process; the Locker extends it across processes when configured.
type Store struct {
	LedgerPath string
	StatePath  string

	mu     sync.Mutex
	locker lock.Locker
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

// New creates the parent directories of both files and returns the store.
// A nil locker means single-writer mode.
func New(ledgerPath, statePath string, locker lock.Locker) (*Store, error) {
	for _, p := range []string{ledgerPath, statePath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	if locker == nil {
		locker = lock.Nop{}
	}

	return &Store{LedgerPath: ledgerPath, StatePath: statePath, locker: locker}, nil
}

func (s *Store) Close() error {
	return nil
}

// mutate runs fn under both the process mutex and the configured locker.
func (s *Store) mutate(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.locker.WithLock(ctx, LockKey, func(context.Context) error {
		return fn()
	})
}

// readJSON decodes path into v. A missing or empty file leaves v untouched.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", storage.ErrCorruptState, path, err)
	}
	return nil
}

// writeJSON replaces path atomically: the document is written to a temp file
// in the same directory and renamed over the target.
func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
