package out

import (
	"context"

	"studyvault/internal/modules/attachment/domain"
	sessiondomain "studyvault/internal/modules/session/domain"
)

type FileStore interface {
	// Copy writes src to dst atomically and returns the size written.
	Copy(ctx context.Context, src, dst string) (int64, error)
	// Remove deletes path. A missing file is not an error.
	Remove(ctx context.Context, path string) error
	Exists(path string) bool
	// TempFolders lists temp-* directories directly under dir.
	TempFolders(dir string) ([]string, error)
	// RemoveIfEmpty deletes dir when it holds no entries and otherwise
	// returns the names it still holds.
	RemoveIfEmpty(dir string) (bool, []string, error)
}

// Launcher opens a file with the desktop's default application.
type Launcher interface {
	Open(ctx context.Context, path string) error
}

type PageCounter interface {
	Pages(ctx context.Context, path string) (int, error)
}

// SessionAttachments is the attachment list of one stored session.
type SessionAttachments struct {
	Date        string
	SessionID   string
	Attachments []domain.Descriptor
}

type SessionGateway interface {
	Load(ctx context.Context, date, sessionID string) (SessionAttachments, error)
	LoadDate(ctx context.Context, date string) ([]SessionAttachments, error)
	ListDates(ctx context.Context) ([]string, error)
	// Update applies edit to the stored attachment list while the session's
	// date stays locked. An edit returning ErrUnchanged saves nothing.
	Update(ctx context.Context, date, sessionID string, edit func(*SessionAttachments) error) error
}

// ErrUnchanged tells Update that an edit left the attachment list as it was.
var ErrUnchanged = sessiondomain.ErrUnchanged
