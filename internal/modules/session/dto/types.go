package dto

import (
	"encoding/json"
	"time"
)

// SaveInput carries a full session record as JSON. Unknown fields are
// stored verbatim.
type SaveInput struct {
	Record json.RawMessage
}

type SaveOutput struct {
	SessionID string
	Date      string
	Status    string
	ReviewDue string
	Path      string
}

type SessionOutput struct {
	ID               string
	Date             string
	Status           string
	Title            string
	Hashtags         string
	ReviewDue        string
	AttachmentCount  int
	ReviewCount      int
	ReviewsCompleted int
	Record           json.RawMessage
}

type DeleteInput struct {
	Date      string
	SessionID string
}

type MoveInput struct {
	SessionID string
	FromDate  string
	ToDate    string
}

type MoveOutput struct {
	SessionID string
	FromDate  string
	ToDate    string
}

type StatusOutput struct {
	SessionID string
	Status    string
	ReviewDue string
}

type MetadataOutput struct {
	Date       string         `json:"date"`
	WeekID     string         `json:"weekId"`
	Total      int            `json:"total"`
	Completed  int            `json:"completed"`
	SessionIDs []string       `json:"sessionIds"`
	TagFreq    map[string]int `json:"tagFreq"`
}

type CalendarInput struct {
	From     string
	To       string
	TagLimit int
}

type DaySummary struct {
	Date      string `json:"date"`
	WeekID    string `json:"weekId"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type CalendarOutput struct {
	Days    []DaySummary `json:"days"`
	TopTags []TagCount   `json:"topTags"`
}

type ReindexOutput struct {
	Dates    int
	Sessions int
	Took     time.Duration
}

type RepairOutput struct {
	Date        string   `json:"date"`
	Indexed     []string `json:"indexed"`
	Recovered   []string `json:"recovered"`
	Dropped     []string `json:"dropped"`
	Corrupt     []string `json:"corrupt"`
	TempRemoved int      `json:"tempRemoved"`
}

// Result is the outcome object returned to the UI layer.
type Result struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId,omitempty"`
	Error     string `json:"error,omitempty"`
}

func ResultFrom(sessionID string, err error) Result {
	if err != nil {
		return Result{Success: false, SessionID: sessionID, Error: err.Error()}
	}
	return Result{Success: true, SessionID: sessionID}
}
