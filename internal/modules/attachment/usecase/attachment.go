package usecase

import (
	"context"

	"studyvault/internal/modules/attachment/domain"
	attachmentdto "studyvault/internal/modules/attachment/dto"
	attachmentin "studyvault/internal/modules/attachment/port/in"
	"studyvault/internal/modules/attachment/service"
)

type Interactor struct {
	svc *service.AttachmentService
}

func NewInteractor(svc *service.AttachmentService) attachmentin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Attach(ctx context.Context, input attachmentdto.AttachInput) ([]attachmentdto.AttachmentOutput, error) {
	descs, err := i.svc.Attach(ctx, input.Date, input.SessionID, input.Sources)
	if err != nil {
		return nil, err
	}
	out := make([]attachmentdto.AttachmentOutput, 0, len(descs))
	for _, d := range descs {
		out = append(out, toOutput(d))
	}
	return out, nil
}

func (i *Interactor) Detach(ctx context.Context, ref attachmentdto.FileRef) error {
	return i.svc.Detach(ctx, ref.Date, ref.SessionID, ref.FileName)
}

func (i *Interactor) Locate(ctx context.Context, ref attachmentdto.FileRef) (string, error) {
	return i.svc.Locate(ctx, ref.Date, ref.SessionID, ref.FileName)
}

func (i *Interactor) Open(ctx context.Context, ref attachmentdto.FileRef) (string, error) {
	return i.svc.Open(ctx, ref.Date, ref.SessionID, ref.FileName)
}

func (i *Interactor) RepairTemp(ctx context.Context) (attachmentdto.RepairOutput, error) {
	report, err := i.svc.RepairTemp(ctx)
	if err != nil {
		return attachmentdto.RepairOutput{}, err
	}
	return attachmentdto.RepairOutput{
		SessionsUpdated: report.SessionsUpdated,
		FilesCopied:     report.FilesCopied,
		Missing:         report.Missing,
		Failed:          report.Failed,
		FoldersRemoved:  report.FoldersRemoved,
		FoldersKept:     report.FoldersKept,
	}, nil
}

func toOutput(d domain.Descriptor) attachmentdto.AttachmentOutput {
	return attachmentdto.AttachmentOutput{
		ID:           d.ID,
		OriginalName: d.OriginalName,
		FileName:     d.FileName,
		Size:         d.Size,
		Type:         d.Type,
		AttachedAt:   d.AttachedAt,
		Path:         d.Path,
		RelativePath: d.RelativePath,
		PageCount:    d.PageCount,
	}
}
