package out

import (
	"context"

	"studyvault/internal/modules/session/domain"
)

// SessionStore owns the per-date session files and their metadata index.
type SessionStore interface {
	Save(ctx context.Context, session domain.Session) (string, error)
	Load(ctx context.Context, date, sessionID string) (domain.Session, error)
	// Update runs edit on the stored session under the date lock.
	Update(ctx context.Context, date, sessionID string, edit func(*domain.Session) error) (domain.Session, error)
	LoadDate(ctx context.Context, date string) ([]domain.Session, error)
	Delete(ctx context.Context, date, sessionID string) error
	Move(ctx context.Context, sessionID, fromDate, toDate string) (domain.Session, error)
	LoadMetadata(ctx context.Context, date string) (domain.Metadata, bool, error)
	LoadMultipleMetadata(ctx context.Context, dates []string) (map[string]domain.Metadata, error)
	ListDates(ctx context.Context) ([]string, error)
	Repair(ctx context.Context, date string) (domain.RepairReport, error)
}

// CalendarProjector maintains a derived, rebuildable index of day summaries.
type CalendarProjector interface {
	Reset(ctx context.Context) error
	UpsertDay(ctx context.Context, meta domain.Metadata) error
	DeleteDay(ctx context.Context, date string) error
	Range(ctx context.Context, from, to string) ([]domain.Metadata, error)
	TopTags(ctx context.Context, from, to string, limit int) ([]domain.TagCount, error)
}
