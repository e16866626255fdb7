package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// TempPrefix marks attachment folders created before a session had an id.
const TempPrefix = "temp-"

// Descriptor describes one file stored under a session's attachment folder.
type Descriptor struct {
	ID           string
	OriginalName string
	FileName     string
	Size         int64
	Type         string
	AttachedAt   string
	Path         string
	RelativePath string
	PageCount    int
}

// StoredName is the on-disk name of a copied attachment:
// <base>_<epochMillis><ext>.
func StoredName(originalName string, at time.Time) string {
	name := filepath.Base(originalName)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if base == "" || base == "." {
		base = "file"
	}
	return fmt.Sprintf("%s_%d%s", base, at.UnixMilli(), ext)
}

// TypeOf is the lower-case extension without the dot.
func TypeOf(fileName string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
}

func IsPDF(fileName string) bool {
	return TypeOf(fileName) == "pdf"
}

// InTempFolder reports whether a directory of path is a temp-* folder.
func InTempFolder(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(filepath.Dir(path)), "/") {
		if strings.HasPrefix(part, TempPrefix) {
			return true
		}
	}
	return false
}

func Find(descs []Descriptor, fileName string) (Descriptor, bool) {
	for _, d := range descs {
		if d.FileName == fileName {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Without drops every descriptor stored under fileName.
func Without(descs []Descriptor, fileName string) ([]Descriptor, bool) {
	out := make([]Descriptor, 0, len(descs))
	removed := false
	for _, d := range descs {
		if d.FileName == fileName {
			removed = true
			continue
		}
		out = append(out, d)
	}
	return out, removed
}

// TempRepair summarises a pass over attachments left in temp folders.
type TempRepair struct {
	SessionsUpdated []string
	FilesCopied     int
	Missing         []string
	Failed          []string
	FoldersRemoved  []string
	FoldersKept     map[string][]string
}
