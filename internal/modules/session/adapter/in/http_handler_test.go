package in

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	sessiondomain "studyvault/internal/modules/session/domain"
	sessiondto "studyvault/internal/modules/session/dto"
	apperrors "studyvault/internal/platform/errors"
)

type fakeUsecase struct {
	saved    []json.RawMessage
	deleted  []sessiondto.DeleteInput
	sessions map[string][]sessiondto.SessionOutput
	saveErr  error
}

func (f *fakeUsecase) NewID() string { return "20240101-090000-abcd" }

func (f *fakeUsecase) Save(_ context.Context, input sessiondto.SaveInput) (sessiondto.SaveOutput, error) {
	if f.saveErr != nil {
		return sessiondto.SaveOutput{}, f.saveErr
	}
	f.saved = append(f.saved, input.Record)
	return sessiondto.SaveOutput{SessionID: recordID(input.Record)}, nil
}

func (f *fakeUsecase) Get(_ context.Context, date, id string) (sessiondto.SessionOutput, error) {
	for _, s := range f.sessions[date] {
		if s.ID == id {
			return s, nil
		}
	}
	return sessiondto.SessionOutput{}, fmt.Errorf("%w: session %s", apperrors.ErrNotFound, id)
}

func (f *fakeUsecase) Update(_ context.Context, _, id string, _ func(*sessiondomain.Session) error) (sessiondto.SaveOutput, error) {
	return sessiondto.SaveOutput{SessionID: id}, nil
}

func (f *fakeUsecase) LoadDate(_ context.Context, date string) ([]sessiondto.SessionOutput, error) {
	return f.sessions[date], nil
}

func (f *fakeUsecase) Delete(_ context.Context, input sessiondto.DeleteInput) error {
	f.deleted = append(f.deleted, input)
	return nil
}

func (f *fakeUsecase) Move(_ context.Context, input sessiondto.MoveInput) (sessiondto.MoveOutput, error) {
	if input.ToDate == "" {
		return sessiondto.MoveOutput{}, fmt.Errorf("%w: target date required", apperrors.ErrInvalidInput)
	}
	return sessiondto.MoveOutput{SessionID: input.SessionID, FromDate: input.FromDate, ToDate: input.ToDate}, nil
}

func (f *fakeUsecase) CycleStatus(_ context.Context, _, id string) (sessiondto.StatusOutput, error) {
	return sessiondto.StatusOutput{SessionID: id, Status: "in-progress"}, nil
}

func (f *fakeUsecase) LoadMetadata(_ context.Context, date string) (sessiondto.MetadataOutput, error) {
	return sessiondto.MetadataOutput{}, fmt.Errorf("%w: no metadata for %s", apperrors.ErrNotFound, date)
}

func (f *fakeUsecase) LoadMultipleMetadata(_ context.Context, dates []string) (map[string]sessiondto.MetadataOutput, error) {
	out := map[string]sessiondto.MetadataOutput{}
	for _, d := range dates {
		out[d] = sessiondto.MetadataOutput{Date: d}
	}
	return out, nil
}

func (f *fakeUsecase) ListDates(context.Context) ([]string, error) { return []string{"2024-01-01"}, nil }

func (f *fakeUsecase) Calendar(context.Context, sessiondto.CalendarInput) (sessiondto.CalendarOutput, error) {
	return sessiondto.CalendarOutput{}, nil
}

func (f *fakeUsecase) Reindex(context.Context) (sessiondto.ReindexOutput, error) {
	return sessiondto.ReindexOutput{}, nil
}

func (f *fakeUsecase) Repair(_ context.Context, date string) (sessiondto.RepairOutput, error) {
	return sessiondto.RepairOutput{Date: date}, nil
}

func newRouter(uc *fakeUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHTTPHandler(uc).Register(router.Group("/api"))
	return router
}

func serve(router *gin.Engine, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) sessiondto.Result {
	t.Helper()
	var res sessiondto.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode result: %v (%s)", err, w.Body.String())
	}
	return res
}

func TestSaveReturnsResult(t *testing.T) {
	uc := &fakeUsecase{}
	w := serve(newRouter(uc), http.MethodPost, "/api/sessions", []byte(`{"id":"a","date":"2024-01-01","mood":"ok"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	res := decodeResult(t, w)
	if !res.Success || res.SessionID != "a" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(uc.saved) != 1 || !bytes.Contains(uc.saved[0], []byte(`"mood"`)) {
		t.Fatalf("expected raw record to reach the usecase, got %s", uc.saved)
	}
}

func TestSaveFailureKeepsSessionID(t *testing.T) {
	uc := &fakeUsecase{saveErr: fmt.Errorf("%w: date folder", apperrors.ErrLockTimeout)}
	w := serve(newRouter(uc), http.MethodPost, "/api/sessions", []byte(`{"id":"a","date":"2024-01-01"}`))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	res := decodeResult(t, w)
	if res.Success || res.SessionID != "a" || res.Error == "" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestLoadDateReturnsRecords(t *testing.T) {
	uc := &fakeUsecase{sessions: map[string][]sessiondto.SessionOutput{
		"2024-01-01": {{ID: "a", Record: json.RawMessage(`{"id":"a","extra":1}`)}},
	}}
	w := serve(newRouter(uc), http.MethodGet, "/api/dates/2024-01-01/sessions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var records []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode records: %v", err)
	}
	if len(records) != 1 || records[0]["extra"] != float64(1) {
		t.Fatalf("unexpected records %v", records)
	}

	empty := serve(newRouter(uc), http.MethodGet, "/api/dates/2024-02-01/sessions", nil)
	if empty.Body.String() != "[]" {
		t.Fatalf("expected empty array, got %s", empty.Body.String())
	}
}

func TestDeleteAndMove(t *testing.T) {
	uc := &fakeUsecase{}
	router := newRouter(uc)

	w := serve(router, http.MethodDelete, "/api/dates/2024-01-01/sessions/a", nil)
	if res := decodeResult(t, w); !res.Success || res.SessionID != "a" {
		t.Fatalf("unexpected delete result %+v", res)
	}
	if len(uc.deleted) != 1 || uc.deleted[0].Date != "2024-01-01" {
		t.Fatalf("unexpected delete input %+v", uc.deleted)
	}

	w = serve(router, http.MethodPost, "/api/dates/2024-01-01/sessions/a/move", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without target date, got %d", w.Code)
	}
	w = serve(router, http.MethodPost, "/api/dates/2024-01-01/sessions/a/move?to=2024-01-02", nil)
	if res := decodeResult(t, w); !res.Success {
		t.Fatalf("unexpected move result %+v", res)
	}
}

func TestMetadataNotFound(t *testing.T) {
	w := serve(newRouter(&fakeUsecase{}), http.MethodGet, "/api/dates/2024-01-01/metadata", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	w = serve(newRouter(&fakeUsecase{}), http.MethodGet, "/api/metadata?date=2024-01-01&date=2024-01-02", nil)
	var metas map[string]sessiondto.MetadataOutput
	if err := json.Unmarshal(w.Body.Bytes(), &metas); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("expected two entries, got %v", metas)
	}
}
