// Package filelock serialises writers of a date folder with a lock file.
//
// The default sentinel mode creates the lock file exclusively and deletes it
// on release; a crashed holder leaves the file behind until CleanupStale
// removes it. Advisory mode takes an OS lock on the same path instead, so
// the file stays on disk and the kernel drops the lock when its holder dies.
package filelock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"

	apperrors "studyvault/internal/platform/errors"
	"studyvault/internal/platform/logging"
	"studyvault/internal/platform/metrics"
)

type Mode string

const (
	ModeSentinel Mode = "sentinel"
	ModeAdvisory Mode = "advisory"
)

const (
	DefaultMaxRetries = 20
	DefaultRetryDelay = 50 * time.Millisecond
	DefaultStaleAfter = 30 * time.Second
)

type Options struct {
	Mode       Mode
	MaxRetries int
	RetryDelay time.Duration
	StaleAfter time.Duration
}

func DefaultOptions() Options {
	return Options{
		Mode:       ModeSentinel,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
		StaleAfter: DefaultStaleAfter,
	}
}

// TimeoutError is returned when every attempt found the lock held.
type TimeoutError struct {
	Path     string
	Attempts int
	Waited   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("lock %s still held after %d attempts (%s)", e.Path, e.Attempts, e.Waited.Round(time.Millisecond))
}

func (e *TimeoutError) Unwrap() error {
	return apperrors.ErrLockTimeout
}

type Manager struct {
	opts Options
	log  *logging.Logger
	now  func() time.Time
}

func NewManager(opts Options, log *logging.Logger) *Manager {
	if opts.Mode == "" {
		opts.Mode = ModeSentinel
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = DefaultStaleAfter
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Manager{opts: opts, log: log.WithComponent("filelock"), now: time.Now}
}

func (m *Manager) Options() Options {
	return m.opts
}

// Lock is a held lock. Release it exactly once.
type Lock struct {
	path  string
	mode  Mode
	flock *flock.Flock
	log   *logging.Logger
}

func (l *Lock) Path() string {
	return l.path
}

// Acquire tries up to MaxRetries times, sleeping RetryDelay between
// attempts. Cancelling ctx abandons the wait.
func (m *Manager) Acquire(ctx context.Context, path string) (*Lock, error) {
	started := time.Now()
	for attempt := 1; ; attempt++ {
		lock, held, err := m.try(path)
		if err != nil {
			return nil, err
		}
		if !held {
			metrics.ObserveLockWait(time.Since(started))
			if attempt > 1 {
				m.log.Debug("lock acquired after contention", "path", path, "attempts", attempt)
			}
			return lock, nil
		}
		if attempt >= m.opts.MaxRetries {
			metrics.IncLockTimeout()
			return nil, &TimeoutError{Path: path, Attempts: attempt, Waited: time.Since(started)}
		}

		timer := time.NewTimer(m.opts.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("wait for lock %s: %w", path, ctx.Err())
		case <-timer.C:
		}
	}
}

// try reports held=true when another holder owns the lock.
func (m *Manager) try(path string) (*Lock, bool, error) {
	if m.opts.Mode == ModeAdvisory {
		fl := flock.New(path)
		ok, err := fl.TryLock()
		if err != nil {
			return nil, false, fmt.Errorf("lock %s: %w", path, err)
		}
		if !ok {
			return nil, true, nil
		}
		return &Lock{path: path, mode: ModeAdvisory, flock: fl, log: m.log}, false, nil
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("create lock %s: %w", path, err)
	}
	owner := map[string]any{"pid": os.Getpid(), "created_at": m.now().UTC().Format(time.RFC3339)}
	if encoded, marshalErr := json.Marshal(owner); marshalErr == nil {
		_, _ = f.Write(append(encoded, '\n'))
	}
	_ = f.Close()
	return &Lock{path: path, mode: ModeSentinel, log: m.log}, false, nil
}

// Release never fails the caller: a lock file that already vanished is
// only logged.
func (l *Lock) Release() error {
	if l.mode == ModeAdvisory {
		if err := l.flock.Unlock(); err != nil {
			l.log.Warn("unlock failed", "path", l.path, "error", err)
			return err
		}
		return nil
	}
	if err := os.Remove(l.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.log.Warn("lock file already removed", "path", l.path)
			return nil
		}
		l.log.Warn("remove lock file failed", "path", l.path, "error", err)
		return err
	}
	return nil
}

// WithLock runs fn while holding the lock at path and releases it on every
// exit, panics included.
func (m *Manager) WithLock(ctx context.Context, path string, fn func(context.Context) error) error {
	lock, err := m.Acquire(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()
	return fn(ctx)
}

// CleanupStale removes a sentinel lock file older than StaleAfter and
// reports whether it did. Advisory locks never go stale.
func (m *Manager) CleanupStale(path string) (bool, error) {
	if m.opts.Mode == ModeAdvisory {
		return false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat lock %s: %w", path, err)
	}
	age := m.now().Sub(info.ModTime())
	if age <= m.opts.StaleAfter {
		return false, nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("remove stale lock %s: %w", path, err)
	}
	metrics.IncStaleLockRemoved()
	m.log.Warn("removed stale lock", "path", path, "age", age.String())
	return true, nil
}
