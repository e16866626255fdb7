package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	review "studyvault/internal/modules/review/domain"
	"studyvault/internal/modules/session/domain"
	sessiondto "studyvault/internal/modules/session/dto"
	sessionin "studyvault/internal/modules/session/port/in"
	"studyvault/internal/modules/session/service"
	apperrors "studyvault/internal/platform/errors"
)

type Interactor struct {
	svc *service.SessionService
}

func NewInteractor(svc *service.SessionService) sessionin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) NewID() string {
	return i.svc.NewID()
}

func (i *Interactor) Save(ctx context.Context, input sessiondto.SaveInput) (sessiondto.SaveOutput, error) {
	if len(input.Record) == 0 {
		return sessiondto.SaveOutput{}, fmt.Errorf("%w: session record is required", apperrors.ErrInvalidInput)
	}
	session, err := domain.Decode(input.Record)
	if err != nil {
		return sessiondto.SaveOutput{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	saved, path, err := i.svc.Save(ctx, session)
	if err != nil {
		return sessiondto.SaveOutput{}, err
	}
	return sessiondto.SaveOutput{
		SessionID: saved.ID,
		Date:      saved.Date,
		Status:    string(saved.Status),
		ReviewDue: saved.ReviewDue,
		Path:      path,
	}, nil
}

func (i *Interactor) Update(ctx context.Context, date, sessionID string, edit func(*domain.Session) error) (sessiondto.SaveOutput, error) {
	saved, err := i.svc.Update(ctx, date, sessionID, edit)
	if err != nil {
		return sessiondto.SaveOutput{}, err
	}
	return sessiondto.SaveOutput{
		SessionID: saved.ID,
		Date:      saved.Date,
		Status:    string(saved.Status),
		ReviewDue: saved.ReviewDue,
	}, nil
}

func (i *Interactor) Get(ctx context.Context, date, sessionID string) (sessiondto.SessionOutput, error) {
	session, err := i.svc.Load(ctx, date, sessionID)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	return toOutput(session)
}

func (i *Interactor) LoadDate(ctx context.Context, date string) ([]sessiondto.SessionOutput, error) {
	sessions, err := i.svc.LoadDate(ctx, date)
	if err != nil {
		return nil, err
	}
	out := make([]sessiondto.SessionOutput, 0, len(sessions))
	for _, s := range sessions {
		view, err := toOutput(s)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

func (i *Interactor) Delete(ctx context.Context, input sessiondto.DeleteInput) error {
	return i.svc.Delete(ctx, input.Date, input.SessionID)
}

func (i *Interactor) Move(ctx context.Context, input sessiondto.MoveInput) (sessiondto.MoveOutput, error) {
	moved, err := i.svc.Move(ctx, input.SessionID, input.FromDate, input.ToDate)
	if err != nil {
		return sessiondto.MoveOutput{}, err
	}
	return sessiondto.MoveOutput{SessionID: moved.ID, FromDate: input.FromDate, ToDate: moved.Date}, nil
}

func (i *Interactor) CycleStatus(ctx context.Context, date, sessionID string) (sessiondto.StatusOutput, error) {
	saved, err := i.svc.CycleStatus(ctx, date, sessionID)
	if err != nil {
		return sessiondto.StatusOutput{}, err
	}
	return sessiondto.StatusOutput{SessionID: saved.ID, Status: string(saved.Status), ReviewDue: saved.ReviewDue}, nil
}

func (i *Interactor) LoadMetadata(ctx context.Context, date string) (sessiondto.MetadataOutput, error) {
	meta, ok, err := i.svc.LoadMetadata(ctx, date)
	if err != nil {
		return sessiondto.MetadataOutput{}, err
	}
	if !ok {
		return sessiondto.MetadataOutput{}, fmt.Errorf("%w: no metadata for %s", apperrors.ErrNotFound, date)
	}
	return toMetadataOutput(meta), nil
}

func (i *Interactor) LoadMultipleMetadata(ctx context.Context, dates []string) (map[string]sessiondto.MetadataOutput, error) {
	metas, err := i.svc.LoadMultipleMetadata(ctx, dates)
	if err != nil {
		return nil, err
	}
	out := make(map[string]sessiondto.MetadataOutput, len(metas))
	for date, meta := range metas {
		out[date] = toMetadataOutput(meta)
	}
	return out, nil
}

func (i *Interactor) ListDates(ctx context.Context) ([]string, error) {
	return i.svc.ListDates(ctx)
}

func (i *Interactor) Calendar(ctx context.Context, input sessiondto.CalendarInput) (sessiondto.CalendarOutput, error) {
	days, tags, err := i.svc.Calendar(ctx, input.From, input.To, input.TagLimit)
	if err != nil {
		return sessiondto.CalendarOutput{}, err
	}
	out := sessiondto.CalendarOutput{
		Days:    make([]sessiondto.DaySummary, 0, len(days)),
		TopTags: make([]sessiondto.TagCount, 0, len(tags)),
	}
	for _, d := range days {
		out.Days = append(out.Days, sessiondto.DaySummary{Date: d.Date, WeekID: d.WeekID, Total: d.Total, Completed: d.Completed})
	}
	for _, t := range tags {
		out.TopTags = append(out.TopTags, sessiondto.TagCount{Tag: t.Tag, Count: t.Count})
	}
	return out, nil
}

func (i *Interactor) Reindex(ctx context.Context) (sessiondto.ReindexOutput, error) {
	started := time.Now()
	dates, sessions, err := i.svc.Reindex(ctx)
	if err != nil {
		return sessiondto.ReindexOutput{}, err
	}
	return sessiondto.ReindexOutput{Dates: dates, Sessions: sessions, Took: time.Since(started)}, nil
}

func (i *Interactor) Repair(ctx context.Context, date string) (sessiondto.RepairOutput, error) {
	report, err := i.svc.Repair(ctx, date)
	if err != nil {
		return sessiondto.RepairOutput{}, err
	}
	return sessiondto.RepairOutput{
		Date:        report.Date,
		Indexed:     report.Indexed,
		Recovered:   report.Recovered,
		Dropped:     report.Dropped,
		Corrupt:     report.Corrupt,
		TempRemoved: report.TempRemoved,
	}, nil
}

func toOutput(s domain.Session) (sessiondto.SessionOutput, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return sessiondto.SessionOutput{}, fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	return sessiondto.SessionOutput{
		ID:               s.ID,
		Date:             s.Date,
		Status:           string(s.Status),
		Title:            s.Title,
		Hashtags:         s.Hashtags,
		ReviewDue:        s.ReviewDue,
		AttachmentCount:  len(s.Attachments),
		ReviewCount:      len(s.ReviewSchedule),
		ReviewsCompleted: review.CompletedCount(s.ReviewSchedule),
		Record:           raw,
	}, nil
}

func toMetadataOutput(meta domain.Metadata) sessiondto.MetadataOutput {
	ids := meta.SessionIDs
	if ids == nil {
		ids = []string{}
	}
	tags := meta.TagFreq
	if tags == nil {
		tags = map[string]int{}
	}
	return sessiondto.MetadataOutput{
		Date:       meta.Date,
		WeekID:     meta.WeekID,
		Total:      meta.Total,
		Completed:  meta.Completed,
		SessionIDs: ids,
		TagFreq:    tags,
	}
}
