package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSessionSaveAndListJSON(t *testing.T) {
	vault := t.TempDir()
	record := `{"id":"20240105-101500-0042","date":"2024-01-05","status":"pending","title":"Vectors","hashtags":"#math"}`

	out, err := run(t, record, "--vault", vault, "--json", "session", "save", "-")
	if err != nil {
		t.Fatalf("save: %v (%s)", err, out)
	}
	if !strings.Contains(out, `"success": true`) {
		t.Fatalf("expected success result, got %s", out)
	}

	out, err = run(t, "", "--vault", vault, "--json", "session", "list", "--date", "2024-01-05")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var records []map[string]any
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("decode list output: %v (%s)", err, out)
	}
	if len(records) != 1 || records[0]["title"] != "Vectors" {
		t.Fatalf("unexpected records %v", records)
	}
}

func TestSessionSaveFailureExitsWithError(t *testing.T) {
	vault := t.TempDir()
	out, err := run(t, `{"date":"2024-01-05"}`, "--vault", vault, "--json", "session", "save")
	if err == nil {
		t.Fatal("expected error for record without id")
	}
	if !strings.Contains(out, `"success": false`) {
		t.Fatalf("expected failure result, got %s", out)
	}
}

func TestRequiredFlags(t *testing.T) {
	_, err := run(t, "", "--vault", t.TempDir(), "review", "show", "--date", "2024-01-05")
	if err == nil || !strings.Contains(err.Error(), "--id") {
		t.Fatalf("expected missing --id error, got %v", err)
	}
}

func TestReviewPreview(t *testing.T) {
	out, err := run(t, "", "--vault", t.TempDir(), "--json", "review", "preview", "--date", "2024-01-04")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !strings.Contains(out, `"2024-01-08"`) {
		t.Fatalf("expected weekend-shifted date in %s", out)
	}
}

func TestConfigInitWritesFile(t *testing.T) {
	vault := t.TempDir()
	if _, err := run(t, "", "--vault", vault, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(vault, ".studyvault", "config.yaml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(raw), "max_retries: 20") {
		t.Fatalf("unexpected config content:\n%s", raw)
	}
	if _, err := run(t, "", "--vault", vault, "config", "init"); err == nil {
		t.Fatal("expected second init without --force to fail")
	}
}
