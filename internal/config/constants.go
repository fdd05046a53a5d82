package config

import "time"

// Lua schema field names and globals.
const (
	luaGlobalUnapt     = "unapt"
	luaFieldFileHost   = "file_host"
	luaFieldBinDir     = "bin_dir"
	luaFieldHistory    = "history_file"
	luaFieldTimeout    = "timeout"
	luaFieldRetries    = "retries"
	luaFieldLogLevel   = "log_level"
	luaFieldSource     = "source"
	luaFieldSourceAPI  = "api"
	luaFieldSourceDir  = "dir"
	luaFieldSourceBase = "base"
	luaFieldToken      = "token"
)

// Defaults for the public unapt repository.
const (
	DefaultFileHost   = "https://tont-linux.github.io/unapt/unapt"
	DefaultSourceAPI  = "https://api.github.com/repos/Tony-Linux/unapt"
	DefaultSourceDir  = "unapt"
	DefaultSourceBase = "main"
	DefaultTimeout    = 5 * time.Minute
	DefaultLogLevel   = "warn"
)

const (
	// maxConfigSize bounds the Lua file read from disk.
	maxConfigSize = 1 << 20

	// parseTimeout bounds Lua evaluation when the caller's context has no
	// deadline.
	parseTimeout = 5 * time.Second
)
