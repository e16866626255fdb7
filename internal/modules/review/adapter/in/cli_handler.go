package in

import (
	"context"

	reviewdto "studyvault/internal/modules/review/dto"
	reviewin "studyvault/internal/modules/review/port/in"
)

type CLIHandler struct {
	usecase reviewin.Usecase
}

func NewCLIHandler(usecase reviewin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Preview(ctx context.Context, date string, excludeWeekends *bool) (reviewdto.PreviewOutput, error) {
	return h.usecase.Preview(ctx, reviewdto.PreviewInput{Date: date, ExcludeWeekends: excludeWeekends})
}

func (h CLIHandler) Show(ctx context.Context, date, sessionID string) (reviewdto.ScheduleOutput, error) {
	return h.usecase.Show(ctx, reviewdto.SessionRef{Date: date, SessionID: sessionID})
}

func (h CLIHandler) Complete(ctx context.Context, date, sessionID, reviewID string) (reviewdto.ScheduleOutput, error) {
	return h.usecase.Complete(ctx, reviewdto.MarkInput{Date: date, SessionID: sessionID, ReviewID: reviewID})
}

func (h CLIHandler) Incomplete(ctx context.Context, date, sessionID, reviewID string) (reviewdto.ScheduleOutput, error) {
	return h.usecase.Incomplete(ctx, reviewdto.MarkInput{Date: date, SessionID: sessionID, ReviewID: reviewID})
}
