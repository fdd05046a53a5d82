package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"

	"github.com/ZebulonRouseFrantzich/unapt/internal/platform"
)

// EnvConfigPath names the environment variable pointing at a config file.
const EnvConfigPath = "UNAPT_CONFIG"

// LoadOptions controls Load.
type LoadOptions struct {
	// Path is an explicit config file (--config). A missing explicit file is
	// an error; a missing default file is not.
	Path string

	// Platform is injected into the Lua VM.
	Platform *platform.Info

	// Layout supplies the default config file, BinDir and HistoryFile.
	Layout *platform.Layout

	// Overrides is the flag layer, merged last.
	Overrides *Config
}

// Load assembles the configuration from defaults, the Lua file, the
// environment and flag overrides, then validates it.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg := Defaults()

	fileCfg, err := loadFile(ctx, opts)
	if err != nil {
		return nil, err
	}
	if fileCfg != nil {
		if err := mergo.Merge(cfg, fileCfg, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if opts.Overrides != nil {
		if err := mergo.Merge(cfg, opts.Overrides, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge flags: %w", err)
		}
	}

	if opts.Layout != nil {
		if cfg.BinDir == "" {
			cfg.BinDir = opts.Layout.BinDir
		}
		if cfg.HistoryFile == "" {
			cfg.HistoryFile = opts.Layout.HistoryFile()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFile returns the file layer, or nil when there is no file to read.
func loadFile(ctx context.Context, opts LoadOptions) (*Config, error) {
	path, explicit := configPath(opts)
	if path == "" {
		return nil, nil
	}

	var detector platform.Detector
	if opts.Platform != nil {
		detector = platform.StaticDetector{Info: opts.Platform}
	}

	cfg, err := NewParser(detector).ParseFile(ctx, path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

// configPath picks the config file: the --config flag, then UNAPT_CONFIG,
// then the platform default. Only the flag counts as explicit.
func configPath(opts LoadOptions) (string, bool) {
	if opts.Path != "" {
		return opts.Path, true
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, false
	}
	if opts.Layout != nil {
		return opts.Layout.ConfigFile(), false
	}
	return "", false
}
