// Package testutil provides utilities for testing unapt in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Env holds the isolated paths created by SetupTestEnv.
type Env struct {
	Root        string
	BinDir      string
	StateDir    string
	HistoryFile string
	ConfigFile  string
}

// clearedVars are unset for every test so the developer's own environment
// never leaks into a run.
var clearedVars = []string{
	"UNAPT_FILE_HOST",
	"UNAPT_TIMEOUT",
	"UNAPT_RETRIES",
	"UNAPT_LOG_LEVEL",
	"UNAPT_SOURCE_API",
	"UNAPT_SOURCE_DIR",
	"UNAPT_SOURCE_BASE",
	"UNAPT_TOKEN",
	"GITHUB_TOKEN",
}

// SetupTestEnv points unapt at temp directories so tests never touch
// /usr/local/bin or the real history log. Cleanup is handled by t.TempDir
// and t.Setenv.
func SetupTestEnv(t *testing.T) *Env {
	t.Helper()

	tmpDir := t.TempDir()
	e := &Env{
		Root:     tmpDir,
		BinDir:   filepath.Join(tmpDir, "bin"),
		StateDir: filepath.Join(tmpDir, "state"),
	}
	e.HistoryFile = filepath.Join(e.StateDir, "history.txt")
	// Never created, so the loader sees "no config file".
	e.ConfigFile = filepath.Join(tmpDir, "config", "config.lua")

	for _, key := range clearedVars {
		UnsetEnv(t, key)
	}

	t.Setenv("UNAPT_BIN_DIR", e.BinDir)
	t.Setenv("UNAPT_HISTORY_FILE", e.HistoryFile)
	t.Setenv("UNAPT_CONFIG", e.ConfigFile)

	for _, dir := range []string{e.BinDir, e.StateDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	return e
}

// UnsetEnv removes key for the duration of the test. t.Setenv registers the
// restore; the variable is then removed outright.
func UnsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unset %s: %v", key, err)
	}
}
