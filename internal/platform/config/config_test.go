package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"studyvault/internal/platform/filelock"
)

func TestNewDerivesPaths(t *testing.T) {
	t.Parallel()

	cfg, err := New("/vault")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if cfg.Index.DBPath != filepath.Join("/vault", ".studyvault", "index.db") {
		t.Fatalf("unexpected db path %s", cfg.Index.DBPath)
	}
	if cfg.Logging.File != filepath.Join("/vault", ".studyvault", "studyvault.log") {
		t.Fatalf("unexpected log path %s", cfg.Logging.File)
	}
	opts := cfg.LockOptions()
	if opts.Mode != filelock.ModeSentinel || opts.MaxRetries != 20 || opts.RetryDelay != 50*time.Millisecond || opts.StaleAfter != 30*time.Second {
		t.Fatalf("unexpected lock defaults %+v", opts)
	}
}

func TestNewRequiresVault(t *testing.T) {
	t.Parallel()

	if _, err := New(""); err == nil {
		t.Fatalf("expected error for empty vault path")
	}
}

func TestLoadReadsVaultConfigFile(t *testing.T) {
	t.Parallel()

	vault := t.TempDir()
	path := FilePath(vault)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	body := "lock:\n  mode: advisory\n  max_retries: 5\nreview:\n  exclude_weekends: false\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(vault, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Lock.Mode != "advisory" || cfg.Lock.MaxRetries != 5 {
		t.Fatalf("file values not applied: %+v", cfg.Lock)
	}
	if cfg.Lock.RetryDelayMs != 50 {
		t.Fatalf("default retry delay lost: %d", cfg.Lock.RetryDelayMs)
	}
	if cfg.Review.ExcludeWeekends {
		t.Fatalf("expected weekend exclusion disabled")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	vault := t.TempDir()
	path := filepath.Join(vault, "custom.yaml")
	if err := os.WriteFile(path, []byte("lock:\n  mode: spin\n  max_retries: 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := Load(vault, path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "lock.mode") || !strings.Contains(err.Error(), "lock.max_retries") {
		t.Fatalf("expected both problems reported, got %v", err)
	}
}

func TestWriteDefault(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".studyvault", "config.yaml")
	if err := WriteDefault(path, false); err != nil {
		t.Fatalf("write default: %v", err)
	}
	if err := WriteDefault(path, false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var decoded Config
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if decoded.Lock.MaxRetries != 20 || decoded.Server.Addr == "" {
		t.Fatalf("unexpected rendered config %+v", decoded)
	}
}
