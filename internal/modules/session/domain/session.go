package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	review "studyvault/internal/modules/review/domain"
	apperrors "studyvault/internal/platform/errors"
)

// ErrUnchanged is returned by an update edit that leaves the session as it
// was. The store then writes nothing.
var ErrUnchanged = errors.New("session unchanged")

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Next cycles pending, in-progress and completed. Unknown values restart at pending.
func (s Status) Next() Status {
	switch s {
	case StatusPending:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	default:
		return StatusPending
	}
}

type Attachment struct {
	ID           string `json:"id"`
	OriginalName string `json:"originalName"`
	FileName     string `json:"fileName"`
	Size         int64  `json:"size"`
	Type         string `json:"type"`
	AttachedAt   string `json:"attachedAt,omitempty"`
	Path         string `json:"path"`
	RelativePath string `json:"relativePath"`
	PageCount    int    `json:"pageCount,omitempty"`
}

const (
	keyID         = "id"
	keyDate       = "date"
	keyStatus     = "status"
	keyTitle      = "title"
	keyHashtags   = "hashtags"
	keyAutoReview = "auto_review_enabled"
	keyReviewDue  = "review_due"
	keyAttach     = "attachments"
	keySchedule   = "review_schedule"
)

// Session is one study session record. Fields the vault does not interpret
// are kept in Extra and written back unchanged.
type Session struct {
	ID                string
	Date              string
	Status            Status
	Title             string
	Hashtags          string
	AutoReviewEnabled *bool
	ReviewDue         string
	Attachments       []Attachment
	ReviewSchedule    review.Schedule
	Extra             map[string]json.RawMessage

	present map[string]bool
	// tagList is the list form hashtags were stored in, written back while
	// Hashtags still reads the same.
	tagList json.RawMessage
}

func (s Session) AutoReview() bool {
	return s.AutoReviewEnabled != nil && *s.AutoReviewEnabled
}

func (s *Session) UnmarshalJSON(raw []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("%w: session: %v", apperrors.ErrCorrupted, err)
	}

	var out Session
	out.present = map[string]bool{}
	decode := func(key string, dst any) error {
		v, ok := fields[key]
		if !ok {
			return nil
		}
		delete(fields, key)
		out.present[key] = true
		if err := json.Unmarshal(v, dst); err != nil {
			return fmt.Errorf("%w: session field %s: %v", apperrors.ErrCorrupted, key, err)
		}
		return nil
	}

	var status string
	for _, f := range []struct {
		key string
		dst any
	}{
		{keyID, &out.ID},
		{keyDate, &out.Date},
		{keyStatus, &status},
		{keyTitle, &out.Title},
		{keyAutoReview, &out.AutoReviewEnabled},
		{keyReviewDue, &out.ReviewDue},
		{keyAttach, &out.Attachments},
		{keySchedule, &out.ReviewSchedule},
	} {
		if err := decode(f.key, f.dst); err != nil {
			return err
		}
	}
	out.Status = Status(status)

	if v, ok := fields[keyHashtags]; ok {
		delete(fields, keyHashtags)
		out.present[keyHashtags] = true
		tags, isList, err := decodeHashtags(v)
		if err != nil {
			return err
		}
		out.Hashtags = tags
		if isList {
			out.tagList = v
		}
	}

	if len(fields) > 0 {
		out.Extra = fields
	}
	*s = out
	return nil
}

// decodeHashtags accepts the usual "#a #b" string and also a list of tags.
func decodeHashtags(raw json.RawMessage) (string, bool, error) {
	var str *string
	if err := json.Unmarshal(raw, &str); err == nil {
		if str == nil {
			return "", false, nil
		}
		return *str, false, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return "", false, fmt.Errorf("%w: session field hashtags: %v", apperrors.ErrCorrupted, err)
	}
	return strings.Join(list, " "), true, nil
}

func (s Session) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(s.Extra)+9)
	for k, v := range s.Extra {
		fields[k] = v
	}

	fields[keyID] = s.ID
	fields[keyDate] = s.Date
	if s.Status != "" || s.present[keyStatus] {
		fields[keyStatus] = s.Status
	}
	if s.Title != "" || s.present[keyTitle] {
		fields[keyTitle] = s.Title
	}
	switch {
	case s.tagList != nil && s.Hashtags == joinedTags(s.tagList):
		fields[keyHashtags] = s.tagList
	case s.Hashtags != "" || s.present[keyHashtags]:
		fields[keyHashtags] = s.Hashtags
	}
	if s.AutoReviewEnabled != nil || s.present[keyAutoReview] {
		fields[keyAutoReview] = s.AutoReviewEnabled
	}
	if s.ReviewDue != "" || s.present[keyReviewDue] {
		fields[keyReviewDue] = s.ReviewDue
	}
	if len(s.Attachments) > 0 || s.present[keyAttach] {
		attachments := s.Attachments
		if attachments == nil {
			attachments = []Attachment{}
		}
		fields[keyAttach] = attachments
	}
	if len(s.ReviewSchedule) > 0 || s.present[keySchedule] {
		fields[keySchedule] = s.ReviewSchedule
	}
	return json.Marshal(fields)
}

func joinedTags(list json.RawMessage) string {
	tags, _, err := decodeHashtags(list)
	if err != nil {
		return ""
	}
	return tags
}

// Validate checks what the store needs to place the record on disk.
func (s Session) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	if strings.TrimSpace(s.Date) == "" {
		return fmt.Errorf("%w: session date is required", apperrors.ErrInvalidInput)
	}
	if strings.ContainsAny(s.ID, `/\`) || strings.Contains(s.ID, "..") {
		return fmt.Errorf("%w: session id %q", apperrors.ErrInvalidInput, s.ID)
	}
	return nil
}

// Decode parses a stored session file.
func Decode(raw []byte) (Session, error) {
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		if errors.Is(err, apperrors.ErrCorrupted) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("%w: session: %v", apperrors.ErrCorrupted, err)
	}
	return s, nil
}
