package service

import (
	"context"
	"fmt"

	"studyvault/internal/modules/review/domain"
	reviewout "studyvault/internal/modules/review/port/out"
	"studyvault/internal/platform/calendar"
	"studyvault/internal/platform/clock"
	apperrors "studyvault/internal/platform/errors"
)

type ReviewService struct {
	clock           clock.Clock
	sessions        reviewout.SessionGateway
	excludeWeekends bool
}

func NewReviewService(clock clock.Clock, sessions reviewout.SessionGateway, excludeWeekends bool) *ReviewService {
	return &ReviewService{clock: clock, sessions: sessions, excludeWeekends: excludeWeekends}
}

func (s *ReviewService) Today() string {
	return calendar.Day(s.clock.Now())
}

func (s *ReviewService) Preview(date string, excludeWeekends *bool) (domain.Schedule, error) {
	exclude := s.excludeWeekends
	if excludeWeekends != nil {
		exclude = *excludeWeekends
	}
	return domain.GenerateWith(date, exclude)
}

func (s *ReviewService) Load(ctx context.Context, date, sessionID string) (reviewout.ScheduleRecord, error) {
	return s.sessions.LoadSchedule(ctx, date, sessionID)
}

func (s *ReviewService) Complete(ctx context.Context, date, sessionID, reviewID string) (reviewout.ScheduleRecord, error) {
	return s.mark(ctx, date, sessionID, reviewID, func(sched domain.Schedule) domain.Schedule {
		return domain.MarkCompleted(sched, reviewID, s.clock.Now())
	})
}

func (s *ReviewService) Incomplete(ctx context.Context, date, sessionID, reviewID string) (reviewout.ScheduleRecord, error) {
	return s.mark(ctx, date, sessionID, reviewID, func(sched domain.Schedule) domain.Schedule {
		return domain.MarkIncomplete(sched, reviewID)
	})
}

func (s *ReviewService) mark(ctx context.Context, date, sessionID, reviewID string, apply func(domain.Schedule) domain.Schedule) (reviewout.ScheduleRecord, error) {
	return s.sessions.UpdateSchedule(ctx, date, sessionID, func(record *reviewout.ScheduleRecord) error {
		if !domain.Has(record.Schedule, reviewID) {
			return fmt.Errorf("%w: review %s on session %s", apperrors.ErrNotFound, reviewID, sessionID)
		}
		record.Schedule = apply(record.Schedule)
		record.ReviewDue = domain.NextDate(record.Schedule, s.Today())
		return nil
	})
}
