package in

import (
	"context"

	"studyvault/internal/modules/session/domain"
	"studyvault/internal/modules/session/dto"
)

type Usecase interface {
	NewID() string
	Save(ctx context.Context, input dto.SaveInput) (dto.SaveOutput, error)
	Get(ctx context.Context, date, sessionID string) (dto.SessionOutput, error)
	// Update edits a stored session in place under its date lock. An edit
	// returning domain.ErrUnchanged saves nothing.
	Update(ctx context.Context, date, sessionID string, edit func(*domain.Session) error) (dto.SaveOutput, error)
	LoadDate(ctx context.Context, date string) ([]dto.SessionOutput, error)
	Delete(ctx context.Context, input dto.DeleteInput) error
	Move(ctx context.Context, input dto.MoveInput) (dto.MoveOutput, error)
	CycleStatus(ctx context.Context, date, sessionID string) (dto.StatusOutput, error)
	LoadMetadata(ctx context.Context, date string) (dto.MetadataOutput, error)
	LoadMultipleMetadata(ctx context.Context, dates []string) (map[string]dto.MetadataOutput, error)
	ListDates(ctx context.Context) ([]string, error)
	Calendar(ctx context.Context, input dto.CalendarInput) (dto.CalendarOutput, error)
	Reindex(ctx context.Context) (dto.ReindexOutput, error)
	Repair(ctx context.Context, date string) (dto.RepairOutput, error)
}
