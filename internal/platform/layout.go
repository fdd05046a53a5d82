package platform

import (
	"errors"
	"path/filepath"
)

// ErrUnsupportedPlatform is returned when no binary directory is known for
// the running platform.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

const (
	// LinuxBinDir is the system-wide binary directory on Linux.
	LinuxBinDir = "/usr/local/bin"

	// TermuxPrefix is the Termux installation prefix on Android.
	TermuxPrefix = "/data/data/com.termux/files/usr"

	// HistoryFileName is the name of the history log inside the state dir.
	HistoryFileName = "history.txt"

	// ConfigFileName is the name of the optional Lua configuration file.
	ConfigFileName = "config.lua"
)

// Layout holds the filesystem locations unapt works with.
type Layout struct {
	BinDir    string // where packages are installed
	StateDir  string // holds the history log and its lock
	ConfigDir string // holds the optional config.lua
}

// HistoryFile returns the path of the history log.
func (l *Layout) HistoryFile() string {
	return filepath.Join(l.StateDir, HistoryFileName)
}

// ConfigFile returns the path of the default Lua configuration file.
func (l *Layout) ConfigFile() string {
	return filepath.Join(l.ConfigDir, ConfigFileName)
}

// ResolveLayout maps platform information to a Layout.
//
// Termux is checked before plain Linux: Termux sessions report a Linux
// kernel but cannot write to /usr/local/bin.
func ResolveLayout(info *Info) (*Layout, error) {
	if info == nil {
		return nil, ErrUnsupportedPlatform
	}

	switch {
	case info.IsTermux():
		return &Layout{
			BinDir:    filepath.Join(TermuxPrefix, "bin"),
			StateDir:  filepath.Join(TermuxPrefix, "var", "lib", "unapt"),
			ConfigDir: filepath.Join(TermuxPrefix, "etc", "unapt"),
		}, nil
	case info.OS == "linux":
		return &Layout{
			BinDir:    LinuxBinDir,
			StateDir:  "/var/lib/unapt",
			ConfigDir: "/etc/unapt",
		}, nil
	default:
		return nil, ErrUnsupportedPlatform
	}
}
