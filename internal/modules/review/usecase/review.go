package usecase

import (
	"context"

	"studyvault/internal/modules/review/domain"
	reviewdto "studyvault/internal/modules/review/dto"
	reviewin "studyvault/internal/modules/review/port/in"
	reviewout "studyvault/internal/modules/review/port/out"
	"studyvault/internal/modules/review/service"
)

type Interactor struct {
	svc *service.ReviewService
}

func NewInteractor(svc *service.ReviewService) reviewin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Preview(_ context.Context, input reviewdto.PreviewInput) (reviewdto.PreviewOutput, error) {
	sched, err := i.svc.Preview(input.Date, input.ExcludeWeekends)
	if err != nil {
		return reviewdto.PreviewOutput{}, err
	}
	return reviewdto.PreviewOutput{
		Date:        input.Date,
		Items:       toItems(sched),
		Description: domain.Description(sched),
	}, nil
}

func (i *Interactor) Show(ctx context.Context, ref reviewdto.SessionRef) (reviewdto.ScheduleOutput, error) {
	record, err := i.svc.Load(ctx, ref.Date, ref.SessionID)
	if err != nil {
		return reviewdto.ScheduleOutput{}, err
	}
	return i.toOutput(record), nil
}

func (i *Interactor) Complete(ctx context.Context, input reviewdto.MarkInput) (reviewdto.ScheduleOutput, error) {
	record, err := i.svc.Complete(ctx, input.Date, input.SessionID, input.ReviewID)
	if err != nil {
		return reviewdto.ScheduleOutput{}, err
	}
	return i.toOutput(record), nil
}

func (i *Interactor) Incomplete(ctx context.Context, input reviewdto.MarkInput) (reviewdto.ScheduleOutput, error) {
	record, err := i.svc.Incomplete(ctx, input.Date, input.SessionID, input.ReviewID)
	if err != nil {
		return reviewdto.ScheduleOutput{}, err
	}
	return i.toOutput(record), nil
}

func (i *Interactor) toOutput(record reviewout.ScheduleRecord) reviewdto.ScheduleOutput {
	return reviewdto.ScheduleOutput{
		SessionID:    record.SessionID,
		Date:         record.Date,
		Items:        toItems(record.Schedule),
		Description:  domain.Description(record.Schedule),
		NextDate:     domain.NextDate(record.Schedule, i.svc.Today()),
		ReviewDue:    record.ReviewDue,
		Completed:    domain.CompletedCount(record.Schedule),
		Total:        len(record.Schedule),
		AllCompleted: domain.AllCompleted(record.Schedule),
	}
}

func toItems(sched domain.Schedule) []reviewdto.ItemOutput {
	items := make([]reviewdto.ItemOutput, 0, len(sched))
	for _, it := range sched {
		items = append(items, reviewdto.ItemOutput{
			ID:          it.ID,
			Date:        it.Date,
			Interval:    it.Interval,
			Label:       domain.Label(it.Interval),
			Completed:   it.Completed,
			CompletedAt: it.CompletedAt,
		})
	}
	return items
}
