package binary

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

const (
	partSuffix   = ".part"
	backupSuffix = ".bak"

	// StaleTempAge is how old an abandoned download must be before
	// PrepareDir removes it.
	StaleTempAge = time.Hour
)

// staleTemp matches the names os.CreateTemp gives tempPattern(name, partSuffix).
var staleTemp = regexp.MustCompile(`^\..+\.[0-9]+\.part$`)

// tempPattern names hidden scratch files for name. The random part keeps
// them from colliding with any package name, including "name.bak".
func tempPattern(name, suffix string) string {
	return "." + name + ".*" + suffix
}

// Manager places package files into the binary directory.
type Manager struct {
	binDir string
}

// NewManager creates a manager for binDir.
func NewManager(binDir string) (*Manager, error) {
	if binDir == "" {
		return nil, fmt.Errorf("binary directory is required")
	}
	return &Manager{binDir: binDir}, nil
}

// BinDir returns the binary directory.
func (m *Manager) BinDir() string {
	return m.binDir
}

// Path returns the filesystem path of the named package.
func (m *Manager) Path(name string) string {
	return filepath.Join(m.binDir, name)
}

// IsInstalled reports whether the named package file exists as a regular
// file.
func (m *Manager) IsInstalled(name string) (bool, error) {
	info, err := os.Stat(m.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat package: %w", err)
	}
	return info.Mode().IsRegular(), nil
}

// PrepareDir creates the binary directory if needed and removes downloads
// abandoned for longer than StaleTempAge. It returns how many were removed.
func (m *Manager) PrepareDir() (int, error) {
	if err := os.MkdirAll(m.binDir, 0o755); err != nil {
		return 0, fmt.Errorf("create bin dir: %w", err)
	}
	return m.sweepStale(time.Now()), nil
}

func (m *Manager) sweepStale(now time.Time) int {
	entries, err := os.ReadDir(m.binDir)
	if err != nil {
		return 0
	}

	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() || !staleTemp.MatchString(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil || now.Sub(info.ModTime()) < StaleTempAge {
			continue
		}
		if os.Remove(filepath.Join(m.binDir, e.Name())) == nil {
			removed++
		}
	}
	return removed
}

// Backup moves an existing package file aside under a unique hidden name and
// returns that path, or "" when there was nothing to back up.
func (m *Manager) Backup(name string) (string, error) {
	f, err := os.CreateTemp(m.binDir, tempPattern(name, backupSuffix))
	if err != nil {
		return "", fmt.Errorf("back up %s: %w", name, err)
	}
	backupPath := f.Name()
	f.Close()

	if err := os.Rename(m.Path(name), backupPath); err != nil {
		os.Remove(backupPath)
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("back up %s: %w", name, err)
	}
	return backupPath, nil
}

// Restore moves the backup at backupPath back to name.
func (m *Manager) Restore(backupPath, name string) error {
	if err := os.Rename(backupPath, m.Path(name)); err != nil {
		return fmt.Errorf("restore %s: %w", name, err)
	}
	return nil
}

// Place moves a downloaded file to its final name in the binary directory.
func (m *Manager) Place(tmpPath, name string) error {
	if err := os.Rename(tmpPath, m.Path(name)); err != nil {
		return fmt.Errorf("move %s into %s: %w", name, m.binDir, err)
	}
	return nil
}

// SetExecutable adds the execute bits to the package file's existing mode.
func (m *Manager) SetExecutable(name string) error {
	path := m.Path(name)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat package: %w", err)
	}
	if err := os.Chmod(path, info.Mode().Perm()|0o111); err != nil {
		return fmt.Errorf("set executable: %w", err)
	}
	return nil
}

// Delete removes the package file. A missing file is ErrNotInstalled.
func (m *Manager) Delete(name string) error {
	if err := os.Remove(m.Path(name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", name, ErrNotInstalled)
		}
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// Discard removes a file left over from a failed operation.
func (m *Manager) Discard(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("discard %s: %w", filepath.Base(path), err)
	}
	return nil
}
