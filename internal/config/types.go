package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config is the complete unapt configuration.
type Config struct {
	// FileHost is the base URL packages are downloaded from.
	FileHost string `env:"UNAPT_FILE_HOST"`

	// BinDir overrides the platform binary directory.
	BinDir string `env:"UNAPT_BIN_DIR"`

	// HistoryFile overrides the platform history log path.
	HistoryFile string `env:"UNAPT_HISTORY_FILE"`

	// Timeout bounds every HTTP request.
	Timeout time.Duration `env:"UNAPT_TIMEOUT"`

	// Retries is the number of extra download attempts on transport errors
	// and 5xx responses.
	Retries int `env:"UNAPT_RETRIES"`

	LogLevel string `env:"UNAPT_LOG_LEVEL"`

	Source Source
}

// Source describes the hosted repository packages are published to.
type Source struct {
	// API is the repository API base, e.g.
	// https://api.github.com/repos/<owner>/<repo>.
	API string `env:"UNAPT_SOURCE_API"`

	// Dir is the repository subdirectory packages live in.
	Dir string `env:"UNAPT_SOURCE_DIR"`

	// Base is the branch pull requests target.
	Base string `env:"UNAPT_SOURCE_BASE"`

	// Token authenticates API requests.
	Token string `env:"UNAPT_TOKEN"`

	// GitHubToken is the conventional GITHUB_TOKEN, used when Token is empty.
	GitHubToken string `env:"GITHUB_TOKEN"`
}

// Defaults returns the built-in configuration. BinDir and HistoryFile are
// left empty; they come from the platform layout.
func Defaults() *Config {
	return &Config{
		FileHost: DefaultFileHost,
		Timeout:  DefaultTimeout,
		LogLevel: DefaultLogLevel,
		Source: Source{
			API:  DefaultSourceAPI,
			Dir:  DefaultSourceDir,
			Base: DefaultSourceBase,
		},
	}
}

// AuthToken returns the token used for the source host, if any.
func (s Source) AuthToken() string {
	if t := strings.TrimSpace(s.Token); t != "" {
		return t
	}
	return strings.TrimSpace(s.GitHubToken)
}

// Validate checks the configuration for values unapt cannot work with.
func (c *Config) Validate() error {
	var errs []error

	if err := validateURL("file host", c.FileHost); err != nil {
		errs = append(errs, err)
	}
	if err := validateURL("source api", c.Source.API); err != nil {
		errs = append(errs, err)
	}
	if strings.Trim(c.Source.Dir, "/ ") == "" {
		errs = append(errs, errors.New("source dir must not be empty"))
	}
	if strings.TrimSpace(c.Source.Base) == "" {
		errs = append(errs, errors.New("source base branch must not be empty"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.Retries < 0 {
		errs = append(errs, fmt.Errorf("retries must not be negative, got %d", c.Retries))
	}
	if c.BinDir == "" {
		errs = append(errs, errors.New("bin dir is not set"))
	}
	if c.HistoryFile == "" {
		errs = append(errs, errors.New("history file is not set"))
	}

	return errors.Join(errs...)
}

func validateURL(what, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s URL %q: %w", what, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s URL %q: scheme must be http or https", what, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid %s URL %q: missing host", what, raw)
	}
	return nil
}
