package in

import (
	"context"

	"studyvault/internal/modules/attachment/dto"
)

type Usecase interface {
	Attach(ctx context.Context, input dto.AttachInput) ([]dto.AttachmentOutput, error)
	Detach(ctx context.Context, ref dto.FileRef) error
	Locate(ctx context.Context, ref dto.FileRef) (string, error)
	Open(ctx context.Context, ref dto.FileRef) (string, error)
	RepairTemp(ctx context.Context) (dto.RepairOutput, error)
}
