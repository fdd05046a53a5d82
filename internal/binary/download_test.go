package binary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDownloader(url string, retries int) *Downloader {
	d := NewDownloader(DownloaderConfig{BaseURL: url + "/", Timeout: 10 * time.Second, Retries: retries}, nil)
	// Keep retry tests fast.
	d.client.SetRetryWaitTime(time.Millisecond).SetRetryMaxWaitTime(5 * time.Millisecond)
	return d
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestDownloaderFetch(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    bool
	}{
		{
			name:       "successful_download",
			statusCode: http.StatusOK,
			body:       "#!/bin/sh\necho hi\n",
		},
		{
			name:       "404_not_found",
			statusCode: http.StatusNotFound,
			body:       "not found",
			wantErr:    true,
		},
		{
			name:       "500_server_error",
			statusCode: http.StatusInternalServerError,
			body:       "server error",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/foo", r.URL.Path)
				assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			destDir := t.TempDir()
			path, err := newTestDownloader(server.URL, 0).Fetch(context.Background(), "foo", destDir)

			if tt.wantErr {
				var statusErr *StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, tt.statusCode, statusErr.StatusCode)
				assert.Equal(t, "foo", statusErr.Name)
				assert.Empty(t, dirEntries(t, destDir), "destination should be empty")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, filepath.Join(destDir, "foo"), path)
			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(content))
			assert.Equal(t, []string{"foo"}, dirEntries(t, destDir))
		})
	}
}

func TestStatusErrorMessage(t *testing.T) {
	err := &StatusError{Name: "foo", StatusCode: 404}
	assert.Equal(t, "Failed to download foo. Status code: 404", err.Error())
}

func TestDownloaderRetryLogic(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("bad gateway, try again later"))
			return
		}
		_, _ = w.Write([]byte("success"))
	}))
	defer server.Close()

	destDir := t.TempDir()
	path, err := newTestDownloader(server.URL, 3).Fetch(context.Background(), "foo", destDir)
	require.NoError(t, err, "expected success after retries")
	assert.Equal(t, int32(3), attempts.Load())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "success", string(content), "earlier attempts must not leak into the file")
	assert.Equal(t, []string{"foo"}, dirEntries(t, destDir))
}

func TestDownloaderRetriesExhausted(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	destDir := t.TempDir()
	_, err := newTestDownloader(server.URL, 2).Fetch(context.Background(), "foo", destDir)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, int32(3), attempts.Load())
	assert.Empty(t, dirEntries(t, destDir))
}

func TestDownloaderNoRetryOn404(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestDownloader(server.URL, 3).Fetch(context.Background(), "foo", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load(), "4xx must not be retried")
}

func TestDownloaderFetchTemp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer server.Close()

	destDir := t.TempDir()
	tmpPath, err := newTestDownloader(server.URL, 0).FetchTemp(context.Background(), "foo", destDir)
	require.NoError(t, err)

	assert.Equal(t, destDir, filepath.Dir(tmpPath))
	base := filepath.Base(tmpPath)
	assert.True(t, strings.HasPrefix(base, ".foo.") && strings.HasSuffix(base, partSuffix), base)
	assert.True(t, staleTemp.MatchString(base), "PrepareDir must recognise %s", base)
	assert.NoFileExists(t, filepath.Join(destDir, "foo"))

	content, err := os.ReadFile(tmpPath)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))
}

func TestDownloaderInvalidName(t *testing.T) {
	d := newTestDownloader("http://127.0.0.1:1", 0)

	for _, name := range []string{"", ".", "..", "../etc/passwd", "a/b", `a\b`} {
		_, err := d.Fetch(context.Background(), name, t.TempDir())
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestDownloaderContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	destDir := t.TempDir()
	_, err := newTestDownloader(server.URL, 0).Fetch(ctx, "foo", destDir)
	require.Error(t, err, "expected error for cancelled context")
	assert.Empty(t, dirEntries(t, destDir))
}

func TestDownloaderURL(t *testing.T) {
	d := NewDownloader(DownloaderConfig{BaseURL: "https://example.com/unapt/"}, nil)
	assert.Equal(t, "https://example.com/unapt/tool", d.URL("tool"))
}
