package binary

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ZebulonRouseFrantzich/unapt/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 5 * time.Minute
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "unapt"

	retryWaitTime    = 1 * time.Second
	retryMaxWaitTime = 30 * time.Second
)

// DownloaderConfig configures a Downloader.
type DownloaderConfig struct {
	// BaseURL is the file host; packages live at BaseURL/<name>.
	BaseURL string
	// Timeout bounds each request.
	Timeout time.Duration
	// Retries is the number of extra attempts after a transport error or a
	// 5xx response. Zero disables retries.
	Retries int
	// UserAgent overrides DefaultUserAgent.
	UserAgent string
}

// Downloader fetches package files from the file host.
type Downloader struct {
	client  *resty.Client
	baseURL string
	log     *logger.Logger
}

// NewDownloader creates a downloader for the configured file host.
func NewDownloader(cfg DownloaderConfig, log *logger.Logger) *Downloader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if log == nil {
		log = logger.Nop()
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(retryWaitTime).
		SetRetryMaxWaitTime(retryMaxWaitTime).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode() >= http.StatusInternalServerError
		})

	return &Downloader{
		client:  client,
		baseURL: baseURL,
		log:     log.Component("download"),
	}
}

// URL returns the address of the named package.
func (d *Downloader) URL(name string) string {
	return d.baseURL + "/" + url.PathEscape(name)
}

// FetchTemp downloads name into a new temporary file inside destDir and
// returns its path. The caller owns the file. On any failure no file is
// left in destDir.
func (d *Downloader) FetchTemp(ctx context.Context, name, destDir string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}

	tmpFile, err := os.CreateTemp(destDir, tempPattern(name, partSuffix))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	target := d.URL(name)
	d.log.Debug().Str("url", target).Msg("downloading")

	// resty streams every attempt, retried ones included, into tmpPath and
	// closes the body.
	resp, err := d.client.R().
		SetContext(ctx).
		SetOutput(tmpPath).
		Get(target)
	if err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("download %s: %w", name, err)
	}

	if resp.StatusCode() != http.StatusOK {
		os.Remove(tmpPath)
		d.log.Debug().Str("url", target).Int("status", resp.StatusCode()).Msg("download rejected")
		return "", &StatusError{Name: name, StatusCode: resp.StatusCode()}
	}

	d.log.Debug().Str("name", name).Int64("bytes", resp.Size()).Msg("downloaded")
	return tmpPath, nil
}

// Fetch downloads name to destDir/name, replacing any existing file.
func (d *Downloader) Fetch(ctx context.Context, name, destDir string) (string, error) {
	tmpPath, err := d.FetchTemp(ctx, name, destDir)
	if err != nil {
		return "", err
	}

	destPath := filepath.Join(destDir, name)
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename temp file: %w", err)
	}
	return destPath, nil
}
