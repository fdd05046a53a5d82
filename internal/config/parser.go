package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/unapt/internal/platform"
	lua "github.com/yuin/gopher-lua"
)

// Parser evaluates Lua config files into Config layers.
type Parser struct {
	detector platform.Detector
}

// NewParser creates a parser. When detector is non-nil the "platform" table
// is injected before the config runs.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// ParseError represents a config error with a user-facing message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// ParseFile reads and evaluates the config file at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxConfigSize+1))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > maxConfigSize {
		return nil, &ParseError{
			Message: "config file too large",
			Detail:  fmt.Sprintf("%s exceeds %d bytes", path, maxConfigSize),
		}
	}

	return p.ParseString(ctx, string(data))
}

// ParseString evaluates Lua config code. The returned Config only carries
// the fields the code set; everything else is zero.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Config, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, parseTimeout)
		defer cancel()
	}

	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		info, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &ParseError{Message: "config evaluation timed out", Detail: ctxErr.Error()}
		}
		return nil, &ParseError{Message: "Lua syntax error", Detail: err.Error()}
	}

	return extractConfig(L)
}

// extractConfig reads the global "unapt" table.
func extractConfig(L *lua.LState) (*Config, error) {
	root, ok := L.GetGlobal(luaGlobalUnapt).(*lua.LTable)
	if !ok {
		return nil, &ParseError{
			Message: fmt.Sprintf("missing or invalid '%s' table", luaGlobalUnapt),
			Detail:  fmt.Sprintf("expected table, got %s", L.GetGlobal(luaGlobalUnapt).Type()),
		}
	}

	cfg := &Config{}
	var errs []error

	stringField(root, luaFieldFileHost, &cfg.FileHost, &errs)
	stringField(root, luaFieldBinDir, &cfg.BinDir, &errs)
	stringField(root, luaFieldHistory, &cfg.HistoryFile, &errs)
	stringField(root, luaFieldLogLevel, &cfg.LogLevel, &errs)

	if v := root.RawGetString(luaFieldTimeout); v != lua.LNil {
		n, ok := v.(lua.LNumber)
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("%s must be a number of seconds, got %s", luaFieldTimeout, v.Type()))
		case n < 0:
			errs = append(errs, fmt.Errorf("%s must not be negative", luaFieldTimeout))
		default:
			cfg.Timeout = time.Duration(float64(n) * float64(time.Second))
		}
	}

	if v := root.RawGetString(luaFieldRetries); v != lua.LNil {
		n, ok := v.(lua.LNumber)
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("%s must be a number, got %s", luaFieldRetries, v.Type()))
		case n < 0:
			errs = append(errs, fmt.Errorf("%s must not be negative", luaFieldRetries))
		default:
			cfg.Retries = int(n)
		}
	}

	switch src := root.RawGetString(luaFieldSource).(type) {
	case *lua.LTable:
		stringField(src, luaFieldSourceAPI, &cfg.Source.API, &errs)
		stringField(src, luaFieldSourceDir, &cfg.Source.Dir, &errs)
		stringField(src, luaFieldSourceBase, &cfg.Source.Base, &errs)
		stringField(src, luaFieldToken, &cfg.Source.Token, &errs)
	case *lua.LNilType:
	default:
		errs = append(errs, fmt.Errorf("%s must be a table, got %s", luaFieldSource, src.Type()))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, &ParseError{Message: "invalid config", Detail: err.Error()}
	}
	return cfg, nil
}

// stringField copies a string field into dst. Nil values are skipped so
// platform.when(...) can switch a setting off.
func stringField(t *lua.LTable, name string, dst *string, errs *[]error) {
	switch v := t.RawGetString(name).(type) {
	case lua.LString:
		*dst = strings.TrimSpace(string(v))
	case *lua.LNilType:
	default:
		*errs = append(*errs, fmt.Errorf("%s must be a string, got %s", name, v.Type()))
	}
}

// FormatError formats a config error for the terminal. Without verbose the
// Lua stack traceback is cut off.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		return err.Error()
	}
	if verbose {
		return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
	}
	detail := parseErr.Detail
	if idx := strings.Index(detail, "stack traceback"); idx > 0 {
		detail = strings.TrimSpace(detail[:idx])
	}
	if detail == "" {
		return parseErr.Message
	}
	return fmt.Sprintf("%s: %s", parseErr.Message, detail)
}
