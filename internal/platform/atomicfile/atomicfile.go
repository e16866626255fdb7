// Package atomicfile replaces files so readers observe either the old or
// the new content, never a partial write.
package atomicfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

const TempSuffix = ".tmp"

// rename is swapped in tests to simulate a crash before the final step.
var rename = os.Rename

// WriteFile writes data to path+".tmp", syncs it and renames it over path.
// The temp file is removed when any step fails. Callers must serialise
// writers of the same path.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	_, err := WriteFrom(path, bytes.NewReader(data), perm)
	return err
}

// WriteFrom is WriteFile for a stream. It returns the number of bytes written.
func WriteFrom(path string, r io.Reader, perm os.FileMode) (int64, error) {
	tmpPath := path + TempSuffix

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return 0, fmt.Errorf("set permissions: %w", err)
	}
	if err := rename(tmpPath, path); err != nil {
		return 0, fmt.Errorf("rename temp file: %w", err)
	}

	success = true
	return n, nil
}

// WriteJSON writes v as two-space indented JSON.
func WriteJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	return WriteFile(path, raw, 0o644)
}
