package filelock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	apperrors "studyvault/internal/platform/errors"
)

func fastOptions(mode Mode) Options {
	return Options{Mode: mode, MaxRetries: 3, RetryDelay: 5 * time.Millisecond, StaleAfter: time.Minute}
}

func TestAcquireTimesOutWhileHeld(t *testing.T) {
	t.Parallel()

	for _, mode := range []Mode{ModeSentinel, ModeAdvisory} {
		path := filepath.Join(t.TempDir(), ".metadata.lock")
		m := NewManager(fastOptions(mode), nil)

		held, err := m.Acquire(context.Background(), path)
		if err != nil {
			t.Fatalf("%s: first acquire: %v", mode, err)
		}

		_, err = m.Acquire(context.Background(), path)
		if !errors.Is(err, apperrors.ErrLockTimeout) {
			t.Fatalf("%s: expected lock timeout, got %v", mode, err)
		}
		var timeout *TimeoutError
		if !errors.As(err, &timeout) || timeout.Attempts != 3 {
			t.Fatalf("%s: expected 3 attempts, got %v", mode, err)
		}

		if err := held.Release(); err != nil {
			t.Fatalf("%s: release: %v", mode, err)
		}
		again, err := m.Acquire(context.Background(), path)
		if err != nil {
			t.Fatalf("%s: acquire after release: %v", mode, err)
		}
		_ = again.Release()
	}
}

func TestSentinelReleaseRemovesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".metadata.lock")
	m := NewManager(fastOptions(ModeSentinel), nil)
	lock, err := m.Acquire(context.Background(), path)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected lock file: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected lock file removed, got %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("second release should be tolerated: %v", err)
	}
}

func TestWithLockReleasesOnErrorAndPanic(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".metadata.lock")
	m := NewManager(fastOptions(ModeSentinel), nil)

	boom := errors.New("boom")
	if err := m.WithLock(context.Background(), path, func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected lock released after error")
	}

	func() {
		defer func() { _ = recover() }()
		_ = m.WithLock(context.Background(), path, func(context.Context) error { panic("boom") })
	}()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected lock released after panic")
	}
}

func TestWithLockSerialisesGoroutines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".metadata.lock")
	m := NewManager(Options{Mode: ModeSentinel, MaxRetries: 2000, RetryDelay: time.Millisecond, StaleAfter: time.Minute}, nil)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.WithLock(context.Background(), path, func(context.Context) error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()
				time.Sleep(2 * time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("with lock: %v", err)
			}
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected exclusive access, saw %d holders", maxSeen)
	}
}

func TestAcquireHonoursContext(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".metadata.lock")
	m := NewManager(Options{Mode: ModeSentinel, MaxRetries: 100, RetryDelay: time.Second}, nil)
	held, err := m.Acquire(context.Background(), path)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer func() { _ = held.Release() }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := m.Acquire(ctx, path); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestCleanupStale(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".metadata.lock")
	m := NewManager(fastOptions(ModeSentinel), nil)

	removed, err := m.CleanupStale(path)
	if err != nil || removed {
		t.Fatalf("missing lock: removed=%v err=%v", removed, err)
	}

	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("seed lock: %v", err)
	}
	removed, err = m.CleanupStale(path)
	if err != nil || removed {
		t.Fatalf("fresh lock must stay: removed=%v err=%v", removed, err)
	}

	old := time.Now().Add(-2 * time.Minute)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("age lock: %v", err)
	}
	removed, err = m.CleanupStale(path)
	if err != nil || !removed {
		t.Fatalf("stale lock: removed=%v err=%v", removed, err)
	}
	lock, err := m.Acquire(context.Background(), path)
	if err != nil {
		t.Fatalf("acquire after cleanup: %v", err)
	}
	_ = lock.Release()
}

func TestAdvisoryCleanupIsNoop(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".metadata.lock")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	old := time.Now().Add(-time.Hour)
	_ = os.Chtimes(path, old, old)

	m := NewManager(fastOptions(ModeAdvisory), nil)
	removed, err := m.CleanupStale(path)
	if err != nil || removed {
		t.Fatalf("advisory cleanup: removed=%v err=%v", removed, err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("advisory lock file must remain: %v", err)
	}
}
