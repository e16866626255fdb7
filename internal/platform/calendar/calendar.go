// Package calendar handles the YYYY-MM-DD dates that key the vault.
// Dates are calendar days, so all arithmetic runs in UTC to avoid
// daylight-saving drift.
package calendar

import (
	"fmt"
	"time"

	apperrors "studyvault/internal/platform/errors"
)

const Layout = "2006-01-02"

func Parse(date string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, date, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q: %v", apperrors.ErrInvalidInput, date, err)
	}
	return t, nil
}

func Format(t time.Time) string {
	return t.Format(Layout)
}

// Day returns the calendar date of t in its own location.
func Day(t time.Time) string {
	return t.Format(Layout)
}

func AddDays(date time.Time, days int) time.Time {
	return date.AddDate(0, 0, days)
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// WeekID numbers weeks from the first Monday of the year. Days before
// that Monday belong to the last week of the previous year, and a week
// number past 52 rolls over to the next year's first week.
func WeekID(date string) (string, error) {
	t, err := Parse(date)
	if err != nil {
		return "", err
	}
	return weekID(t), nil
}

func weekID(t time.Time) string {
	year := t.Year()
	first := firstMonday(year)
	if t.Before(first) {
		return weekID(time.Date(year-1, time.December, 31, 0, 0, 0, 0, time.UTC))
	}
	days := int(t.Sub(first).Hours() / 24)
	week := days/7 + 1
	if week > 52 {
		return fmt.Sprintf("%d-W01", year+1)
	}
	return fmt.Sprintf("%d-W%02d", year, week)
}

func firstMonday(year int) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Monday) - int(jan1.Weekday()) + 7) % 7
	return jan1.AddDate(0, 0, offset)
}
