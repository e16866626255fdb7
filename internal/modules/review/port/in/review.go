package in

import (
	"context"

	"studyvault/internal/modules/review/dto"
)

type Usecase interface {
	Preview(ctx context.Context, input dto.PreviewInput) (dto.PreviewOutput, error)
	Show(ctx context.Context, ref dto.SessionRef) (dto.ScheduleOutput, error)
	Complete(ctx context.Context, input dto.MarkInput) (dto.ScheduleOutput, error)
	Incomplete(ctx context.Context, input dto.MarkInput) (dto.ScheduleOutput, error)
}
