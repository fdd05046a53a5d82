package binary

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "bin"))
	require.NoError(t, err)
	_, err = m.PrepareDir()
	require.NoError(t, err)
	return m
}

func writeFile(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
}

func TestNewManager(t *testing.T) {
	_, err := NewManager("")
	assert.Error(t, err, "empty bin dir")

	m, err := NewManager("/usr/local/bin")
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/foo", m.Path("foo"))
}

func TestManagerPlaceAndSetExecutable(t *testing.T) {
	m := newTestManager(t)
	tmp := filepath.Join(m.BinDir(), ".foo.part")
	writeFile(t, tmp, "binary", 0o640)

	require.NoError(t, m.Place(tmp, "foo"))
	require.NoError(t, m.SetExecutable("foo"))

	info, err := os.Stat(m.Path("foo"))
	require.NoError(t, err)
	// Execute bits are added to the existing bits.
	assert.Equal(t, os.FileMode(0o751), info.Mode().Perm())

	installed, err := m.IsInstalled("foo")
	require.NoError(t, err)
	assert.True(t, installed)
	assert.NoFileExists(t, tmp)
}

func TestManagerBackupRestore(t *testing.T) {
	m := newTestManager(t)

	backup, err := m.Backup("foo")
	require.NoError(t, err)
	assert.Empty(t, backup, "nothing to back up")
	assert.Empty(t, dirEntries(t, m.BinDir()), "no placeholder may remain")

	writeFile(t, m.Path("foo"), "old", 0o755)
	backup, err = m.Backup("foo")
	require.NoError(t, err)
	require.NotEmpty(t, backup)
	assert.Equal(t, m.BinDir(), filepath.Dir(backup))

	installed, err := m.IsInstalled("foo")
	require.NoError(t, err)
	assert.False(t, installed, "file should have moved aside")

	writeFile(t, m.Path("foo"), "new", 0o755)
	require.NoError(t, m.Restore(backup, "foo"))

	content, err := os.ReadFile(m.Path("foo"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(content))
	assert.NoFileExists(t, backup)
}

func TestManagerBackupNeverTouchesOtherPackages(t *testing.T) {
	m := newTestManager(t)
	writeFile(t, m.Path("foo.bak"), "other", 0o755)
	writeFile(t, m.Path("foo"), "mine", 0o755)

	backup, err := m.Backup("foo")
	require.NoError(t, err)
	assert.NotEqual(t, m.Path("foo.bak"), backup)

	content, err := os.ReadFile(m.Path("foo.bak"))
	require.NoError(t, err)
	assert.Equal(t, "other", string(content))

	require.NoError(t, m.Discard(backup))
	assert.FileExists(t, m.Path("foo.bak"))
}

func TestManagerPrepareDirSweepsStaleDownloads(t *testing.T) {
	m := newTestManager(t)
	old := time.Now().Add(-2 * StaleTempAge)

	stale := filepath.Join(m.BinDir(), ".foo.4242.part")
	fresh := filepath.Join(m.BinDir(), ".bar.4243.part")
	oldBackup := filepath.Join(m.BinDir(), ".baz.4244.bak")
	oldPackage := m.Path("tool.part")
	for _, p := range []string{stale, fresh, oldBackup, oldPackage} {
		writeFile(t, p, "x", 0o600)
	}
	for _, p := range []string{stale, oldBackup, oldPackage} {
		require.NoError(t, os.Chtimes(p, old, old))
	}

	removed, err := m.PrepareDir()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.FileExists(t, oldBackup, "backups hold a previous install")
	assert.FileExists(t, oldPackage)
}

func TestManagerDelete(t *testing.T) {
	m := newTestManager(t)

	assert.ErrorIs(t, m.Delete("foo"), ErrNotInstalled)

	writeFile(t, m.Path("foo"), "x", 0o755)
	require.NoError(t, m.Delete("foo"))

	installed, err := m.IsInstalled("foo")
	require.NoError(t, err)
	assert.False(t, installed)
}

func TestManagerIsInstalledDirectory(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, os.Mkdir(m.Path("dir"), 0o755))

	installed, err := m.IsInstalled("dir")
	require.NoError(t, err)
	assert.False(t, installed, "a directory is not a package")
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"foo", "tool-1.2", ".hidden", "a..b", "foo.bak"} {
		assert.NoError(t, ValidateName(name), name)
	}

	for _, name := range []string{"", ".", "..", "../x", "x/y", `x\y`, "a\x00b"} {
		assert.ErrorIs(t, ValidateName(name), ErrInvalidName, name)
	}
}
