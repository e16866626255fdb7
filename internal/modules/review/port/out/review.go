package out

import (
	"context"

	"studyvault/internal/modules/review/domain"
)

// ScheduleRecord is the review-relevant slice of a stored session.
type ScheduleRecord struct {
	SessionID string
	Date      string
	Schedule  domain.Schedule
	ReviewDue string
}

// SessionGateway reads and writes review schedules on stored sessions.
type SessionGateway interface {
	LoadSchedule(ctx context.Context, date, sessionID string) (ScheduleRecord, error)
	// UpdateSchedule applies edit to the stored schedule and saves it while
	// the session's date stays locked.
	UpdateSchedule(ctx context.Context, date, sessionID string, edit func(*ScheduleRecord) error) (ScheduleRecord, error)
}
