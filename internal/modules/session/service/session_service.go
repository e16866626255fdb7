package service

import (
	"context"
	"fmt"

	review "studyvault/internal/modules/review/domain"
	"studyvault/internal/modules/session/domain"
	sessionout "studyvault/internal/modules/session/port/out"
	"studyvault/internal/platform/calendar"
	"studyvault/internal/platform/clock"
	"studyvault/internal/platform/id"
	"studyvault/internal/platform/logging"
)

type Options struct {
	// Projector is optional; without it calendar queries are unavailable.
	Projector       sessionout.CalendarProjector
	Logger          *logging.Logger
	ExcludeWeekends bool
}

type SessionService struct {
	clock           clock.Clock
	idGen           id.Generator
	store           sessionout.SessionStore
	projector       sessionout.CalendarProjector
	log             *logging.Logger
	excludeWeekends bool
}

func NewSessionService(clock clock.Clock, idGen id.Generator, store sessionout.SessionStore, opts Options) *SessionService {
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	return &SessionService{
		clock:           clock,
		idGen:           idGen,
		store:           store,
		projector:       opts.Projector,
		log:             log.WithComponent("session_service"),
		excludeWeekends: opts.ExcludeWeekends,
	}
}

func (s *SessionService) NewID() string {
	return s.idGen.New()
}

func (s *SessionService) Today() string {
	return calendar.Day(s.clock.Now())
}

// Prepare fills in the review schedule of a session completed with auto
// review enabled, unless it already has one.
func (s *SessionService) Prepare(session domain.Session) (domain.Session, error) {
	if session.Status != domain.StatusCompleted || !session.AutoReview() || len(session.ReviewSchedule) > 0 {
		return session, nil
	}
	schedule, err := review.GenerateWith(session.Date, s.excludeWeekends)
	if err != nil {
		return domain.Session{}, err
	}
	session.ReviewSchedule = schedule
	session.ReviewDue = review.NextDate(schedule, s.Today())
	return session, nil
}

func (s *SessionService) Save(ctx context.Context, session domain.Session) (domain.Session, string, error) {
	prepared, err := s.Prepare(session)
	if err != nil {
		return domain.Session{}, "", err
	}
	path, err := s.store.Save(ctx, prepared)
	if err != nil {
		return domain.Session{}, "", err
	}
	s.syncDay(ctx, prepared.Date)
	return prepared, path, nil
}

func (s *SessionService) Load(ctx context.Context, date, sessionID string) (domain.Session, error) {
	return s.store.Load(ctx, date, sessionID)
}

func (s *SessionService) LoadDate(ctx context.Context, date string) ([]domain.Session, error) {
	return s.store.LoadDate(ctx, date)
}

func (s *SessionService) Delete(ctx context.Context, date, sessionID string) error {
	if err := s.store.Delete(ctx, date, sessionID); err != nil {
		return err
	}
	s.syncDay(ctx, date)
	return nil
}

func (s *SessionService) Move(ctx context.Context, sessionID, fromDate, toDate string) (domain.Session, error) {
	moved, err := s.store.Move(ctx, sessionID, fromDate, toDate)
	if err != nil {
		return domain.Session{}, err
	}
	s.syncDay(ctx, fromDate)
	s.syncDay(ctx, toDate)
	return moved, nil
}

// Update applies edit to the stored session under its date lock and
// prepares the result the way Save does.
func (s *SessionService) Update(ctx context.Context, date, sessionID string, edit func(*domain.Session) error) (domain.Session, error) {
	changed := false
	updated, err := s.store.Update(ctx, date, sessionID, func(session *domain.Session) error {
		if err := edit(session); err != nil {
			return err
		}
		prepared, err := s.Prepare(*session)
		if err != nil {
			return err
		}
		*session = prepared
		changed = true
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	if changed {
		s.syncDay(ctx, date)
	}
	return updated, nil
}

func (s *SessionService) CycleStatus(ctx context.Context, date, sessionID string) (domain.Session, error) {
	return s.Update(ctx, date, sessionID, func(session *domain.Session) error {
		session.Status = session.Status.Next()
		return nil
	})
}

func (s *SessionService) LoadMetadata(ctx context.Context, date string) (domain.Metadata, bool, error) {
	return s.store.LoadMetadata(ctx, date)
}

func (s *SessionService) LoadMultipleMetadata(ctx context.Context, dates []string) (map[string]domain.Metadata, error) {
	return s.store.LoadMultipleMetadata(ctx, dates)
}

func (s *SessionService) ListDates(ctx context.Context) ([]string, error) {
	return s.store.ListDates(ctx)
}

func (s *SessionService) Repair(ctx context.Context, date string) (domain.RepairReport, error) {
	report, err := s.store.Repair(ctx, date)
	if err != nil {
		return report, err
	}
	s.syncDay(ctx, date)
	return report, nil
}

func (s *SessionService) Calendar(ctx context.Context, from, to string, tagLimit int) ([]domain.Metadata, []domain.TagCount, error) {
	if s.projector == nil {
		return nil, nil, fmt.Errorf("calendar index is not configured")
	}
	days, err := s.projector.Range(ctx, from, to)
	if err != nil {
		return nil, nil, err
	}
	tags, err := s.projector.TopTags(ctx, from, to, tagLimit)
	if err != nil {
		return nil, nil, err
	}
	return days, tags, nil
}

// Reindex rebuilds the calendar projection from every date index on disk.
func (s *SessionService) Reindex(ctx context.Context) (dates int, sessions int, err error) {
	if s.projector == nil {
		return 0, 0, fmt.Errorf("calendar index is not configured")
	}
	if err := s.projector.Reset(ctx); err != nil {
		return 0, 0, err
	}
	all, err := s.store.ListDates(ctx)
	if err != nil {
		return 0, 0, err
	}
	metas, err := s.store.LoadMultipleMetadata(ctx, all)
	if err != nil {
		return 0, 0, err
	}
	for _, date := range all {
		meta, ok := metas[date]
		if !ok || meta.Total == 0 {
			continue
		}
		if err := s.projector.UpsertDay(ctx, meta); err != nil {
			return dates, sessions, err
		}
		dates++
		sessions += meta.Total
	}
	return dates, sessions, nil
}

// syncDay refreshes one day of the projection. Failures only leave the
// projection stale, so they are logged and not returned.
func (s *SessionService) syncDay(ctx context.Context, date string) {
	if s.projector == nil {
		return
	}
	log := s.log.WithDate(date)
	meta, ok, err := s.store.LoadMetadata(ctx, date)
	if err != nil {
		log.Warn("calendar sync skipped", "error", err)
		return
	}
	if !ok || meta.Total == 0 {
		if err := s.projector.DeleteDay(ctx, date); err != nil {
			log.Warn("calendar delete failed", "error", err)
		}
		return
	}
	if err := s.projector.UpsertDay(ctx, meta); err != nil {
		log.Warn("calendar upsert failed", "error", err)
	}
}
