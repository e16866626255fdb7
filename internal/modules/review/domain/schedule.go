package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"studyvault/internal/platform/calendar"
	apperrors "studyvault/internal/platform/errors"
)

// Intervals are the day offsets of the forgetting curve.
var Intervals = []int{1, 3, 7, 20, 45}

// weekdayShiftInterval is the only offset moved off weekends.
const weekdayShiftInterval = 3

type Item struct {
	ID          string     `json:"id"`
	Date        string     `json:"date"`
	Interval    int        `json:"interval"`
	Completed   bool       `json:"completed"`
	CompletedAt *string `json:"completedAt"`
}

// completedAtLayout is the millisecond UTC form stored in completedAt.
// Stored values are kept as written, whatever their layout.
const completedAtLayout = "2006-01-02T15:04:05.000Z"

// Schedule is ordered by position in Intervals, not by date.
type Schedule []Item

// Format names the on-disk shape a schedule was decoded from.
type Format int

const (
	FormatEmpty Format = iota
	FormatLegacy
	FormatCurrent
)

func Generate(date string) (Schedule, error) {
	return GenerateWith(date, true)
}

func GenerateWith(date string, excludeWeekends bool) (Schedule, error) {
	base, err := calendar.Parse(date)
	if err != nil {
		return nil, err
	}
	out := make(Schedule, 0, len(Intervals))
	for i, interval := range Intervals {
		day := calendar.AddDays(base, interval)
		if excludeWeekends && interval == weekdayShiftInterval {
			for calendar.IsWeekend(day) {
				day = calendar.AddDays(day, 1)
			}
		}
		out = append(out, Item{
			ID:       itemID(i),
			Date:     calendar.Format(day),
			Interval: interval,
		})
	}
	return out, nil
}

func itemID(pos int) string {
	return fmt.Sprintf("review-%d", pos+1)
}

// Migrate converts a list of bare dates into review items. Positions past
// the interval table get interval 0.
func Migrate(dates []string) Schedule {
	if len(dates) == 0 {
		return nil
	}
	out := make(Schedule, len(dates))
	for i, d := range dates {
		interval := 0
		if i < len(Intervals) {
			interval = Intervals[i]
		}
		out[i] = Item{ID: itemID(i), Date: d, Interval: interval}
	}
	return out
}

// Decode resolves the stored schedule shape once. A list of strings is the
// legacy format and is migrated; a list of objects carrying an id is the
// current format. Anything else is corrupt.
func Decode(raw []byte) (Schedule, Format, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, FormatEmpty, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, FormatEmpty, fmt.Errorf("%w: review schedule is not a list: %v", apperrors.ErrCorrupted, err)
	}
	if len(elems) == 0 {
		return nil, FormatEmpty, nil
	}

	var strs, objs int
	for _, e := range elems {
		switch firstByte(e) {
		case '"':
			strs++
		case '{':
			objs++
		default:
			return nil, FormatEmpty, fmt.Errorf("%w: review schedule entry %s", apperrors.ErrCorrupted, string(e))
		}
	}

	switch {
	case strs == len(elems):
		dates := make([]string, len(elems))
		for i, e := range elems {
			if err := json.Unmarshal(e, &dates[i]); err != nil {
				return nil, FormatEmpty, fmt.Errorf("%w: %v", apperrors.ErrCorrupted, err)
			}
		}
		return Migrate(dates), FormatLegacy, nil
	case objs == len(elems):
		items := make(Schedule, len(elems))
		for i, e := range elems {
			if err := json.Unmarshal(e, &items[i]); err != nil {
				return nil, FormatEmpty, fmt.Errorf("%w: review item: %v", apperrors.ErrCorrupted, err)
			}
			if items[i].ID == "" {
				return nil, FormatEmpty, fmt.Errorf("%w: review item without id", apperrors.ErrCorrupted)
			}
		}
		return items, FormatCurrent, nil
	default:
		return nil, FormatEmpty, fmt.Errorf("%w: review schedule mixes dates and items", apperrors.ErrCorrupted)
	}
}

func firstByte(raw json.RawMessage) byte {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 {
		return 0
	}
	return t[0]
}

func (s *Schedule) UnmarshalJSON(raw []byte) error {
	decoded, _, err := Decode(raw)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}

func (s Schedule) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Item(s))
}

func MarkCompleted(s Schedule, id string, at time.Time) Schedule {
	return update(s, id, func(it *Item) {
		stamp := at.UTC().Format(completedAtLayout)
		it.Completed = true
		it.CompletedAt = &stamp
	})
}

func MarkIncomplete(s Schedule, id string) Schedule {
	return update(s, id, func(it *Item) {
		it.Completed = false
		it.CompletedAt = nil
	})
}

func update(s Schedule, id string, fn func(*Item)) Schedule {
	if len(s) == 0 {
		return s
	}
	out := make(Schedule, len(s))
	copy(out, s)
	for i := range out {
		if out[i].ID == id {
			fn(&out[i])
		}
	}
	return out
}

func Has(s Schedule, id string) bool {
	for _, it := range s {
		if it.ID == id {
			return true
		}
	}
	return false
}

func AllCompleted(s Schedule) bool {
	if len(s) == 0 {
		return false
	}
	for _, it := range s {
		if !it.Completed {
			return false
		}
	}
	return true
}

func CompletedCount(s Schedule) int {
	n := 0
	for _, it := range s {
		if it.Completed {
			n++
		}
	}
	return n
}

// NextDate is the earliest open review strictly after today, or "".
func NextDate(s Schedule, today string) string {
	var dates []string
	for _, it := range s {
		if !it.Completed && it.Date > today {
			dates = append(dates, it.Date)
		}
	}
	if len(dates) == 0 {
		return ""
	}
	sort.Strings(dates)
	return dates[0]
}

// PruneThrough keeps the items dated after date.
func PruneThrough(s Schedule, date string) Schedule {
	var out Schedule
	for _, it := range s {
		if it.Date > date {
			out = append(out, it)
		}
	}
	return out
}

func Label(interval int) string {
	switch interval {
	case 1:
		return "1 day later"
	case 3:
		return "3 days later"
	case 7:
		return "1 week later"
	case 20:
		return "3 weeks later"
	case 45:
		return "7 weeks later"
	case 0:
		return "extra review"
	default:
		return fmt.Sprintf("%d days later", interval)
	}
}

func Description(s Schedule) string {
	if len(s) == 0 {
		return "no review schedule"
	}
	parts := make([]string, 0, len(s))
	for _, it := range s {
		weekday := "?"
		if d, err := calendar.Parse(it.Date); err == nil {
			weekday = d.Weekday().String()[:3]
		}
		entry := fmt.Sprintf("%s (%s %s)", Label(it.Interval), it.Date, weekday)
		if it.Completed {
			entry += " ✅"
		}
		parts = append(parts, entry)
	}
	return strings.Join(parts, ", ")
}
