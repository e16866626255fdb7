package out

import (
	"context"

	reviewout "studyvault/internal/modules/review/port/out"
	sessiondomain "studyvault/internal/modules/session/domain"
	sessionin "studyvault/internal/modules/session/port/in"
)

// SessionGateway reaches stored sessions through the session usecase.
// Schedule edits run inside the session's locked update.
type SessionGateway struct {
	sessions sessionin.Usecase
}

func NewSessionGateway(sessions sessionin.Usecase) reviewout.SessionGateway {
	return &SessionGateway{sessions: sessions}
}

func (g *SessionGateway) LoadSchedule(ctx context.Context, date, sessionID string) (reviewout.ScheduleRecord, error) {
	view, err := g.sessions.Get(ctx, date, sessionID)
	if err != nil {
		return reviewout.ScheduleRecord{}, err
	}
	session, err := sessiondomain.Decode(view.Record)
	if err != nil {
		return reviewout.ScheduleRecord{}, err
	}
	return toRecord(session), nil
}

func (g *SessionGateway) UpdateSchedule(ctx context.Context, date, sessionID string, edit func(*reviewout.ScheduleRecord) error) (reviewout.ScheduleRecord, error) {
	var record reviewout.ScheduleRecord
	_, err := g.sessions.Update(ctx, date, sessionID, func(session *sessiondomain.Session) error {
		record = toRecord(*session)
		if err := edit(&record); err != nil {
			return err
		}
		session.ReviewSchedule = record.Schedule
		session.ReviewDue = record.ReviewDue
		return nil
	})
	if err != nil {
		return reviewout.ScheduleRecord{}, err
	}
	return record, nil
}

func toRecord(session sessiondomain.Session) reviewout.ScheduleRecord {
	return reviewout.ScheduleRecord{
		SessionID: session.ID,
		Date:      session.Date,
		Schedule:  session.ReviewSchedule,
		ReviewDue: session.ReviewDue,
	}
}
