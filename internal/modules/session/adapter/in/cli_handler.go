package in

import (
	"context"
	"encoding/json"

	sessiondto "studyvault/internal/modules/session/dto"
	sessionin "studyvault/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) NewID() string {
	return h.usecase.NewID()
}

func (h CLIHandler) Save(ctx context.Context, record []byte) sessiondto.Result {
	out, err := h.usecase.Save(ctx, sessiondto.SaveInput{Record: json.RawMessage(record)})
	if err != nil {
		return sessiondto.ResultFrom(recordID(record), err)
	}
	return sessiondto.ResultFrom(out.SessionID, nil)
}

func (h CLIHandler) List(ctx context.Context, date string) ([]sessiondto.SessionOutput, error) {
	return h.usecase.LoadDate(ctx, date)
}

func (h CLIHandler) Get(ctx context.Context, date, sessionID string) (sessiondto.SessionOutput, error) {
	return h.usecase.Get(ctx, date, sessionID)
}

func (h CLIHandler) Delete(ctx context.Context, date, sessionID string) sessiondto.Result {
	err := h.usecase.Delete(ctx, sessiondto.DeleteInput{Date: date, SessionID: sessionID})
	return sessiondto.ResultFrom(sessionID, err)
}

func (h CLIHandler) Move(ctx context.Context, sessionID, fromDate, toDate string) sessiondto.Result {
	_, err := h.usecase.Move(ctx, sessiondto.MoveInput{SessionID: sessionID, FromDate: fromDate, ToDate: toDate})
	return sessiondto.ResultFrom(sessionID, err)
}

func (h CLIHandler) CycleStatus(ctx context.Context, date, sessionID string) (sessiondto.StatusOutput, error) {
	return h.usecase.CycleStatus(ctx, date, sessionID)
}

func (h CLIHandler) Repair(ctx context.Context, date string) (sessiondto.RepairOutput, error) {
	return h.usecase.Repair(ctx, date)
}

func (h CLIHandler) Metadata(ctx context.Context, date string) (sessiondto.MetadataOutput, error) {
	return h.usecase.LoadMetadata(ctx, date)
}

func (h CLIHandler) MultipleMetadata(ctx context.Context, dates []string) (map[string]sessiondto.MetadataOutput, error) {
	return h.usecase.LoadMultipleMetadata(ctx, dates)
}

func (h CLIHandler) ListDates(ctx context.Context) ([]string, error) {
	return h.usecase.ListDates(ctx)
}

func (h CLIHandler) Calendar(ctx context.Context, from, to string, tagLimit int) (sessiondto.CalendarOutput, error) {
	return h.usecase.Calendar(ctx, sessiondto.CalendarInput{From: from, To: to, TagLimit: tagLimit})
}

func (h CLIHandler) Reindex(ctx context.Context) (sessiondto.ReindexOutput, error) {
	return h.usecase.Reindex(ctx)
}

// recordID pulls the id out of a record that failed to save so the result
// can still name it.
func recordID(record []byte) string {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(record, &probe); err != nil {
		return ""
	}
	return probe.ID
}
