package dto

type ItemOutput struct {
	ID          string     `json:"id"`
	Date        string     `json:"date"`
	Interval    int        `json:"interval"`
	Label       string     `json:"label"`
	Completed   bool       `json:"completed"`
	CompletedAt *string    `json:"completedAt"`
}

type PreviewInput struct {
	Date string
	// ExcludeWeekends overrides the configured default when set.
	ExcludeWeekends *bool
}

type PreviewOutput struct {
	Date        string       `json:"date"`
	Items       []ItemOutput `json:"items"`
	Description string       `json:"description"`
}

type SessionRef struct {
	Date      string
	SessionID string
}

type MarkInput struct {
	Date      string
	SessionID string
	ReviewID  string
}

type ScheduleOutput struct {
	SessionID    string       `json:"sessionId"`
	Date         string       `json:"date"`
	Items        []ItemOutput `json:"items"`
	Description  string       `json:"description"`
	NextDate     string       `json:"nextDate,omitempty"`
	ReviewDue    string       `json:"reviewDue,omitempty"`
	Completed    int          `json:"completed"`
	Total        int          `json:"total"`
	AllCompleted bool         `json:"allCompleted"`
}
