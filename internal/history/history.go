// Package history maintains the log of installed package names: a plain
// text file with one filename per line and no header.
//
// Readers never lock. Writers hold an exclusive lock file next to the log
// for the whole read-modify-write and replace the log atomically, so a
// crashed or concurrent writer can never leave a truncated log behind.
package history

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZebulonRouseFrantzich/unapt/internal/logger"
	"github.com/ZebulonRouseFrantzich/unapt/internal/transaction"
)

// ErrNoHistory is returned when the log is missing or holds no entries.
var ErrNoHistory = errors.New("no history found")

// LockName is the lock file created next to the log while writing.
const LockName = "history.lock"

// Log is the history log at a fixed path.
type Log struct {
	path string
	log  *logger.Logger
}

// New returns the log stored at path.
func New(path string, log *logger.Logger) *Log {
	if log == nil {
		log = logger.Nop()
	}
	return &Log{path: path, log: log.Component("history")}
}

// Path returns the log location.
func (l *Log) Path() string {
	return l.path
}

// Entries returns the recorded names in file order. Lines are trimmed and
// blank lines skipped; duplicates are kept as found.
func (l *Log) Entries() ([]string, error) {
	entries, err := l.read()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoHistory
	}
	return entries, nil
}

// Add records name unless it is already present.
func (l *Log) Add(ctx context.Context, name string) error {
	return l.update(ctx, func(entries []string) ([]string, bool) {
		for _, e := range entries {
			if e == name {
				return entries, false
			}
		}
		return append(entries, name), true
	})
}

// Replace drops every line for name and appends a single fresh entry.
func (l *Log) Replace(ctx context.Context, name string) error {
	return l.update(ctx, func(entries []string) ([]string, bool) {
		return append(without(entries, name), name), true
	})
}

// Remove drops every line for name. It reports whether anything was removed;
// a missing log is not an error.
func (l *Log) Remove(ctx context.Context, name string) (bool, error) {
	removed := false
	err := l.update(ctx, func(entries []string) ([]string, bool) {
		kept := without(entries, name)
		removed = len(kept) != len(entries)
		return kept, removed
	})
	return removed, err
}

// update runs a locked read-modify-write. fn reports whether the entries
// changed; unchanged entries are not written back.
func (l *Log) update(ctx context.Context, fn func([]string) ([]string, bool)) error {
	dir := filepath.Dir(l.path)
	lock, err := transaction.AcquireLock(ctx, dir, LockName)
	if err != nil {
		return fmt.Errorf("lock history: %w", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			l.log.Warn().Err(err).Msg("release history lock")
		}
	}()

	entries, err := l.read()
	if err != nil && !errors.Is(err, ErrNoHistory) {
		return err
	}

	next, changed := fn(entries)
	if !changed {
		l.log.Debug().Str("path", l.path).Msg("history unchanged")
		return nil
	}

	if err := l.write(next); err != nil {
		return err
	}
	l.log.Debug().
		Str("path", l.path).
		Str("lock", lock.Path()).
		Int("entries", len(next)).
		Msg("history written")
	return nil
}

func (l *Log) read() ([]string, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoHistory
		}
		return nil, fmt.Errorf("read history: %w", err)
	}

	var entries []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			entries = append(entries, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan history: %w", err)
	}
	return entries, nil
}

// write replaces the log with entries using write-then-rename.
func (l *Log) write(entries []string) error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	var buf bytes.Buffer
	for _, e := range entries {
		buf.WriteString(e)
		buf.WriteByte('\n')
	}

	tmpPath := l.path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write temporary history file: %w", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename history file: %w", err)
	}

	return transaction.SyncDir(dir)
}

func without(entries []string, name string) []string {
	kept := make([]string, 0, len(entries))
	for _, e := range entries {
		if e != name {
			kept = append(kept, e)
		}
	}
	return kept
}
