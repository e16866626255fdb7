package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	attachmentout "studyvault/internal/modules/attachment/adapter/out"
	attachmentdto "studyvault/internal/modules/attachment/dto"
	attachmentin "studyvault/internal/modules/attachment/port/in"
	"studyvault/internal/modules/attachment/service"
	"studyvault/internal/modules/attachment/usecase"
	sessionout "studyvault/internal/modules/session/adapter/out"
	sessiondto "studyvault/internal/modules/session/dto"
	sessionin "studyvault/internal/modules/session/port/in"
	sessionservice "studyvault/internal/modules/session/service"
	sessionusecase "studyvault/internal/modules/session/usecase"
	"studyvault/internal/platform/clock"
	apperrors "studyvault/internal/platform/errors"
	"studyvault/internal/platform/id"
)

var now = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

type recordingLauncher struct {
	opened []string
}

func (l *recordingLauncher) Open(_ context.Context, path string) error {
	l.opened = append(l.opened, path)
	return nil
}

type fixedID struct{}

func (fixedID) New() string { return "desc-1" }

func newStack(t *testing.T) (string, attachmentin.Usecase, sessionin.Usecase) {
	t.Helper()
	vault, uc, sessions, _ := newStackWithLauncher(t)
	return vault, uc, sessions
}

func newStackWithLauncher(t *testing.T) (string, attachmentin.Usecase, sessionin.Usecase, *recordingLauncher) {
	t.Helper()
	launcher := &recordingLauncher{}
	vault := t.TempDir()
	clk := clock.Fixed{At: now}
	store := sessionout.NewVaultSessionStore(vault, sessionout.VaultStoreOptions{})
	sessions := sessionusecase.NewInteractor(sessionservice.NewSessionService(clk, id.RandomHex{}, store, sessionservice.Options{}))
	svc := service.NewAttachmentService(vault, clk, fixedID{}, attachmentout.NewLocalFileStore(), attachmentout.NewSessionGateway(sessions), service.Options{
		Pages:    attachmentout.NewPDFPageCounter(),
		Launcher: launcher,
	})
	return vault, usecase.NewInteractor(svc), sessions, launcher
}

func saveSession(t *testing.T, sessions sessionin.Usecase, fields map[string]any) {
	t.Helper()
	raw, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := sessions.Save(context.Background(), sessiondto.SaveInput{Record: raw}); err != nil {
		t.Fatalf("save session: %v", err)
	}
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestAttachCopiesAndRecords(t *testing.T) {
	t.Parallel()
	vault, uc, sessions := newStack(t)
	ctx := context.Background()
	saveSession(t, sessions, map[string]any{"id": "a", "date": "2024-01-01", "status": "pending"})

	src := writeSource(t, "Notes.TXT", "hello")
	out, err := uc.Attach(ctx, attachmentdto.AttachInput{Date: "2024-01-01", SessionID: "a", Sources: []string{src}})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	wantName := "Notes_1704101400000.TXT"
	if len(out) != 1 || out[0].FileName != wantName || out[0].Type != "txt" || out[0].Size != 5 || out[0].ID != "desc-1" {
		t.Fatalf("unexpected descriptor %+v", out)
	}
	if out[0].RelativePath != "attachments/a/"+wantName {
		t.Fatalf("unexpected relative path %q", out[0].RelativePath)
	}
	stored := filepath.Join(vault, "sessions", "2024-01-01", "attachments", "a", wantName)
	if raw, err := os.ReadFile(stored); err != nil || string(raw) != "hello" {
		t.Fatalf("expected copied file at %s: %v", stored, err)
	}

	view, err := sessions.Get(ctx, "2024-01-01", "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.AttachmentCount != 1 {
		t.Fatalf("expected descriptor to be saved, got %d", view.AttachmentCount)
	}

	located, err := uc.Locate(ctx, attachmentdto.FileRef{Date: "2024-01-01", SessionID: "a", FileName: wantName})
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if located != stored {
		t.Fatalf("expected %s, got %s", stored, located)
	}
}

func TestAttachSameNameTwiceGetsDistinctFiles(t *testing.T) {
	t.Parallel()
	_, uc, sessions := newStack(t)
	ctx := context.Background()
	saveSession(t, sessions, map[string]any{"id": "a", "date": "2024-01-01"})

	first := writeSource(t, "scan.png", "1")
	second := writeSource(t, "scan.png", "2")
	out, err := uc.Attach(ctx, attachmentdto.AttachInput{Date: "2024-01-01", SessionID: "a", Sources: []string{first, second}})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if len(out) != 2 || out[0].FileName == out[1].FileName {
		t.Fatalf("expected two distinct names, got %+v", out)
	}
}

func TestAttachFailsForMissingSessionOrSource(t *testing.T) {
	t.Parallel()
	vault, uc, sessions := newStack(t)
	ctx := context.Background()

	src := writeSource(t, "a.txt", "x")
	_, err := uc.Attach(ctx, attachmentdto.AttachInput{Date: "2024-01-01", SessionID: "nope", Sources: []string{src}})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	saveSession(t, sessions, map[string]any{"id": "a", "date": "2024-01-01"})
	_, err = uc.Attach(ctx, attachmentdto.AttachInput{
		Date: "2024-01-01", SessionID: "a", Sources: []string{src, filepath.Join(vault, "missing.txt")},
	})
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	entries, _ := os.ReadDir(filepath.Join(vault, "sessions", "2024-01-01", "attachments", "a"))
	if len(entries) != 0 {
		t.Fatalf("expected copies to be rolled back, found %d files", len(entries))
	}
}

func TestDetachIsIdempotent(t *testing.T) {
	t.Parallel()
	_, uc, sessions := newStack(t)
	ctx := context.Background()
	saveSession(t, sessions, map[string]any{"id": "a", "date": "2024-01-01"})

	out, err := uc.Attach(ctx, attachmentdto.AttachInput{Date: "2024-01-01", SessionID: "a", Sources: []string{writeSource(t, "a.txt", "x")}})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	ref := attachmentdto.FileRef{Date: "2024-01-01", SessionID: "a", FileName: out[0].FileName}
	for i := 0; i < 2; i++ {
		if err := uc.Detach(ctx, ref); err != nil {
			t.Fatalf("detach %d: %v", i, err)
		}
	}
	if _, err := os.Stat(out[0].Path); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, got %v", err)
	}
	if _, err := uc.Locate(ctx, ref); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found after detach, got %v", err)
	}
	if err := uc.Detach(ctx, attachmentdto.FileRef{Date: "2024-01-01", SessionID: "a", FileName: "../metadata.json"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for traversal, got %v", err)
	}
}

func TestRepairTempMovesFilesIntoSessionFolder(t *testing.T) {
	t.Parallel()
	vault, uc, sessions := newStack(t)
	ctx := context.Background()

	attachments := filepath.Join(vault, "sessions", "2024-01-01", "attachments")
	tempDir := filepath.Join(attachments, "temp-1704100000000")
	emptyTemp := filepath.Join(attachments, "temp-empty")
	for _, dir := range []string{tempDir, emptyTemp} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	tempFile := filepath.Join(tempDir, "diagram_1.png")
	if err := os.WriteFile(tempFile, []byte("img"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	saveSession(t, sessions, map[string]any{
		"id": "a", "date": "2024-01-01",
		"attachments": []map[string]any{
			{"id": "x", "originalName": "diagram.png", "fileName": "diagram_1.png", "size": 3, "type": "png", "path": tempFile, "relativePath": "attachments/temp-1704100000000/diagram_1.png"},
			{"id": "y", "originalName": "gone.png", "fileName": "gone.png", "size": 1, "type": "png", "path": filepath.Join(tempDir, "gone.png"), "relativePath": "attachments/temp-1704100000000/gone.png"},
		},
	})

	report, err := uc.RepairTemp(ctx)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if report.FilesCopied != 1 || len(report.SessionsUpdated) != 1 || len(report.Missing) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	moved := filepath.Join(attachments, "a", "diagram_1.png")
	if raw, err := os.ReadFile(moved); err != nil || string(raw) != "img" {
		t.Fatalf("expected moved file: %v", err)
	}
	if _, err := os.Stat(tempDir); !os.IsNotExist(err) {
		t.Fatalf("expected emptied temp folder to be removed, got %v", err)
	}
	if _, err := os.Stat(emptyTemp); !os.IsNotExist(err) {
		t.Fatalf("expected empty temp folder to be removed, got %v", err)
	}

	view, err := sessions.Get(ctx, "2024-01-01", "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var record struct {
		Attachments []struct {
			Path         string `json:"path"`
			RelativePath string `json:"relativePath"`
		} `json:"attachments"`
	}
	if err := json.Unmarshal(view.Record, &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record.Attachments[0].Path != moved || record.Attachments[0].RelativePath != "attachments/a/diagram_1.png" {
		t.Fatalf("unexpected rewritten descriptor %+v", record.Attachments[0])
	}
}

func TestRepairTempRewritesDescriptorsOfMissingFiles(t *testing.T) {
	t.Parallel()
	vault, uc, sessions := newStack(t)
	ctx := context.Background()

	gone := filepath.Join(vault, "sessions", "2024-01-01", "attachments", "temp-1704100000000", "gone.png")
	saveSession(t, sessions, map[string]any{
		"id": "a", "date": "2024-01-01",
		"attachments": []map[string]any{
			{"id": "y", "originalName": "gone.png", "fileName": "gone.png", "size": 1, "type": "png", "path": gone, "relativePath": "attachments/temp-1704100000000/gone.png"},
		},
	})

	report, err := uc.RepairTemp(ctx)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if report.FilesCopied != 0 || len(report.Missing) != 1 || len(report.SessionsUpdated) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}

	view, err := sessions.Get(ctx, "2024-01-01", "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var record struct {
		Attachments []struct {
			Path         string `json:"path"`
			RelativePath string `json:"relativePath"`
		} `json:"attachments"`
	}
	if err := json.Unmarshal(view.Record, &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := filepath.Join(vault, "sessions", "2024-01-01", "attachments", "a", "gone.png")
	if record.Attachments[0].Path != want || record.Attachments[0].RelativePath != "attachments/a/gone.png" {
		t.Fatalf("descriptor not rewritten %+v", record.Attachments[0])
	}
}

func TestOpenHandsLocatedPathToLauncher(t *testing.T) {
	t.Parallel()
	_, uc, sessions, launcher := newStackWithLauncher(t)
	ctx := context.Background()
	saveSession(t, sessions, map[string]any{"id": "a", "date": "2024-01-01"})

	out, err := uc.Attach(ctx, attachmentdto.AttachInput{Date: "2024-01-01", SessionID: "a", Sources: []string{writeSource(t, "a.txt", "x")}})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	path, err := uc.Open(ctx, attachmentdto.FileRef{Date: "2024-01-01", SessionID: "a", FileName: out[0].FileName})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(launcher.opened) != 1 || launcher.opened[0] != path || path != out[0].Path {
		t.Fatalf("expected launcher to receive %s, got %v", out[0].Path, launcher.opened)
	}

	if _, err := uc.Open(ctx, attachmentdto.FileRef{Date: "2024-01-01", SessionID: "a", FileName: "nope.txt"}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(launcher.opened) != 1 {
		t.Fatalf("launcher must not run for missing files, got %v", launcher.opened)
	}
}
