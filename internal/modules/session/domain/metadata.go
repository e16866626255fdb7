package domain

import "studyvault/internal/platform/calendar"

// Metadata is the per-date index. It is always rebuilt from the full
// session list, never patched.
type Metadata struct {
	Date       string         `json:"date"`
	WeekID     string         `json:"weekId"`
	Total      int            `json:"total"`
	Completed  int            `json:"completed"`
	SessionIDs []string       `json:"sessionIds"`
	TagFreq    map[string]int `json:"tagFreq"`
}

func BuildMetadata(date string, sessions []Session) (Metadata, error) {
	weekID, err := calendar.WeekID(date)
	if err != nil {
		return Metadata{}, err
	}
	ids := make([]string, 0, len(sessions))
	completed := 0
	for _, s := range sessions {
		ids = append(ids, s.ID)
		if s.Status == StatusCompleted {
			completed++
		}
	}
	return Metadata{
		Date:       date,
		WeekID:     weekID,
		Total:      len(sessions),
		Completed:  completed,
		SessionIDs: ids,
		TagFreq:    TagFrequency(sessions),
	}, nil
}

type TagCount struct {
	Tag   string
	Count int
}

// RepairReport describes what rebuilding a date index changed.
type RepairReport struct {
	Date        string
	Indexed     []string
	Recovered   []string
	Dropped     []string
	Corrupt     []string
	TempRemoved int
}
