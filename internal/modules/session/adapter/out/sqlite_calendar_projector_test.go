package out_test

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	sessionout "studyvault/internal/modules/session/adapter/out"
	"studyvault/internal/modules/session/domain"
)

func TestCalendarProjectorRangeAndTags(t *testing.T) {
	t.Parallel()
	projector, err := sessionout.NewSQLiteCalendarProjector(filepath.Join(t.TempDir(), ".studyvault", "index.db"))
	if err != nil {
		t.Fatalf("open projector: %v", err)
	}
	t.Cleanup(func() { _ = projector.Close() })
	ctx := context.Background()

	days := []domain.Metadata{
		{Date: "2024-01-01", WeekID: "2024-W01", Total: 2, Completed: 1, SessionIDs: []string{"a", "b"}, TagFreq: map[string]int{"math": 2}},
		{Date: "2024-01-02", WeekID: "2024-W01", Total: 1, Completed: 1, SessionIDs: []string{"c"}, TagFreq: map[string]int{"math": 1, "physics": 1}},
		{Date: "2024-02-01", WeekID: "2024-W05", Total: 1, SessionIDs: []string{"d"}, TagFreq: map[string]int{"art": 4}},
	}
	for _, d := range days {
		if err := projector.UpsertDay(ctx, d); err != nil {
			t.Fatalf("upsert %s: %v", d.Date, err)
		}
	}

	january, err := projector.Range(ctx, "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(january) != 2 || january[0].Date != "2024-01-01" || !reflect.DeepEqual(january[1].TagFreq, map[string]int{"math": 1, "physics": 1}) {
		t.Fatalf("unexpected range %+v", january)
	}

	tags, err := projector.TopTags(ctx, "", "", 2)
	if err != nil {
		t.Fatalf("top tags: %v", err)
	}
	want := []domain.TagCount{{Tag: "art", Count: 4}, {Tag: "math", Count: 3}}
	if !reflect.DeepEqual(tags, want) {
		t.Fatalf("unexpected top tags %+v", tags)
	}

	// Upserting a day replaces its tags.
	if err := projector.UpsertDay(ctx, domain.Metadata{Date: "2024-02-01", WeekID: "2024-W05", SessionIDs: nil}); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	tags, _ = projector.TopTags(ctx, "", "", 10)
	if len(tags) != 2 || tags[0].Tag != "math" {
		t.Fatalf("stale tags remain %+v", tags)
	}

	if err := projector.DeleteDay(ctx, "2024-01-02"); err != nil {
		t.Fatalf("delete day: %v", err)
	}
	if err := projector.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	all, err := projector.Range(ctx, "", "")
	if err != nil || len(all) != 0 {
		t.Fatalf("expected empty projection, got %v %v", all, err)
	}
}
