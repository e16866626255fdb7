package out

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"studyvault/internal/modules/attachment/domain"
	attachmentout "studyvault/internal/modules/attachment/port/out"
	"studyvault/internal/platform/atomicfile"
)

type LocalFileStore struct{}

func NewLocalFileStore() attachmentout.FileStore {
	return LocalFileStore{}
}

func (LocalFileStore) Copy(ctx context.Context, src, dst string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open attachment source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat attachment source: %w", err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("attachment source %s is a directory", src)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, fmt.Errorf("create attachment folder: %w", err)
	}
	n, err := atomicfile.WriteFrom(dst, in, 0o644)
	if err != nil {
		return 0, fmt.Errorf("copy attachment: %w", err)
	}
	return n, nil
}

func (LocalFileStore) Remove(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove attachment: %w", err)
	}
	return nil
}

func (LocalFileStore) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (LocalFileStore) TempFolders(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read attachments folder: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), domain.TempPrefix) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (LocalFileStore) RemoveIfEmpty(dir string) (bool, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, nil, fmt.Errorf("read temp folder: %w", err)
	}
	if len(entries) > 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		return false, names, nil
	}
	if err := os.Remove(dir); err != nil {
		return false, nil, fmt.Errorf("remove temp folder: %w", err)
	}
	return true, nil, nil
}
