package id

import (
	"regexp"
	"testing"
	"time"
)

func TestSessionIDFormat(t *testing.T) {
	t.Parallel()
	gen := SessionID{Now: func() time.Time { return time.Date(2024, 3, 9, 7, 5, 2, 0, time.UTC) }}
	got := gen.New()
	if !regexp.MustCompile(`^20240309-070502-\d{4}$`).MatchString(got) {
		t.Fatalf("unexpected session id %q", got)
	}
}

func TestUUIDIsUnique(t *testing.T) {
	t.Parallel()
	a, b := UUID{}.New(), UUID{}.New()
	if a == b || len(a) != 36 {
		t.Fatalf("expected two distinct uuids, got %q and %q", a, b)
	}
}
