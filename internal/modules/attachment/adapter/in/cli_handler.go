package in

import (
	"context"

	attachmentdto "studyvault/internal/modules/attachment/dto"
	attachmentin "studyvault/internal/modules/attachment/port/in"
)

type CLIHandler struct {
	usecase attachmentin.Usecase
}

func NewCLIHandler(usecase attachmentin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Add(ctx context.Context, date, sessionID string, sources []string) ([]attachmentdto.AttachmentOutput, error) {
	return h.usecase.Attach(ctx, attachmentdto.AttachInput{Date: date, SessionID: sessionID, Sources: sources})
}

func (h CLIHandler) Remove(ctx context.Context, date, sessionID, fileName string) error {
	return h.usecase.Detach(ctx, attachmentdto.FileRef{Date: date, SessionID: sessionID, FileName: fileName})
}

func (h CLIHandler) Locate(ctx context.Context, date, sessionID, fileName string) (string, error) {
	return h.usecase.Locate(ctx, attachmentdto.FileRef{Date: date, SessionID: sessionID, FileName: fileName})
}

func (h CLIHandler) Open(ctx context.Context, date, sessionID, fileName string) (string, error) {
	return h.usecase.Open(ctx, attachmentdto.FileRef{Date: date, SessionID: sessionID, FileName: fileName})
}

func (h CLIHandler) Repair(ctx context.Context) (attachmentdto.RepairOutput, error) {
	return h.usecase.RepairTemp(ctx)
}
