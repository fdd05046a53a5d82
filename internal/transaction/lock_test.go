package transaction

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLockName = "history.lock"

func TestAcquireLock(t *testing.T) {
	t.Run("creates lock file", func(t *testing.T) {
		dir := t.TempDir()

		lock, err := AcquireLock(context.Background(), dir, testLockName)
		require.NoError(t, err)
		defer lock.Release()

		want := filepath.Join(dir, testLockName)
		assert.Equal(t, want, lock.Path())
		assert.FileExists(t, want)
	})

	t.Run("held lock times out", func(t *testing.T) {
		dir := t.TempDir()

		lock1, err := AcquireLock(context.Background(), dir, testLockName)
		require.NoError(t, err)
		defer lock1.Release()

		ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
		defer cancel()

		_, err = AcquireLock(ctx, dir, testLockName)
		assert.ErrorIs(t, err, ErrLockExists)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("waits for release", func(t *testing.T) {
		dir := t.TempDir()

		lock1, err := AcquireLock(context.Background(), dir, testLockName)
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(150 * time.Millisecond)
			lock1.Release()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		lock2, err := AcquireLock(ctx, dir, testLockName)
		require.NoError(t, err, "second AcquireLock should succeed after release")
		lock2.Release()
		wg.Wait()
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		dir := t.TempDir()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := AcquireLock(ctx, dir, testLockName)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("creates directory if needed", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "state")

		lock, err := AcquireLock(context.Background(), dir, testLockName)
		require.NoError(t, err)
		defer lock.Release()

		assert.DirExists(t, dir)
	})

	t.Run("writes lock metadata", func(t *testing.T) {
		dir := t.TempDir()

		lock, err := AcquireLock(context.Background(), dir, testLockName)
		require.NoError(t, err)
		defer lock.Release()

		data, err := os.ReadFile(lock.Path())
		require.NoError(t, err)
		assert.Contains(t, string(data), "pid=")
		assert.Contains(t, string(data), "timestamp=")
	})
}

func TestLockRelease(t *testing.T) {
	t.Run("removes lock file", func(t *testing.T) {
		lock, err := AcquireLock(context.Background(), t.TempDir(), testLockName)
		require.NoError(t, err)
		lockPath := lock.Path()

		require.NoError(t, lock.Release())
		assert.NoFileExists(t, lockPath)
	})

	t.Run("is idempotent", func(t *testing.T) {
		lock, err := AcquireLock(context.Background(), t.TempDir(), testLockName)
		require.NoError(t, err)

		require.NoError(t, lock.Release())
		assert.NoError(t, lock.Release())
	})
}

func TestStaleLockHandling(t *testing.T) {
	writeLock := func(t *testing.T, dir string, age time.Duration) {
		t.Helper()
		lockPath := filepath.Join(dir, testLockName)
		require.NoError(t, os.WriteFile(lockPath, []byte("pid=99999\ntimestamp=2020-01-01T00:00:00Z\n"), 0o600))
		mtime := time.Now().Add(-age)
		require.NoError(t, os.Chtimes(lockPath, mtime, mtime))
	}

	t.Run("removes stale lock and acquires new one", func(t *testing.T) {
		dir := t.TempDir()
		writeLock(t, dir, StaleLockThreshold+time.Minute)

		lock, err := AcquireLock(context.Background(), dir, testLockName)
		require.NoError(t, err)
		defer lock.Release()
	})

	t.Run("waits on fresh lock", func(t *testing.T) {
		dir := t.TempDir()
		writeLock(t, dir, 0)

		ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
		defer cancel()

		_, err := AcquireLock(ctx, dir, testLockName)
		assert.ErrorIs(t, err, ErrLockExists)
	})
}
