package in

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	sessiondto "studyvault/internal/modules/session/dto"
	sessionin "studyvault/internal/modules/session/port/in"
	"studyvault/internal/platform/httpx"
)

const maxRecordSize = 4 << 20

type HTTPHandler struct {
	usecase sessionin.Usecase
}

func NewHTTPHandler(usecase sessionin.Usecase) *HTTPHandler {
	return &HTTPHandler{usecase: usecase}
}

func (h *HTTPHandler) Register(api *gin.RouterGroup) {
	api.POST("/sessions", h.save)
	api.GET("/dates", h.listDates)
	api.GET("/dates/:date/sessions", h.loadDate)
	api.GET("/dates/:date/sessions/:id", h.get)
	api.DELETE("/dates/:date/sessions/:id", h.delete)
	api.POST("/dates/:date/sessions/:id/move", h.move)
	api.POST("/dates/:date/sessions/:id/status", h.cycleStatus)
	api.GET("/dates/:date/metadata", h.metadata)
	api.POST("/dates/:date/repair", h.repair)
	api.GET("/metadata", h.multipleMetadata)
	api.GET("/calendar", h.calendar)
	api.POST("/reindex", h.reindex)
}

func (h *HTTPHandler) save(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRecordSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, sessiondto.ResultFrom("", err))
		return
	}
	out, err := h.usecase.Save(c.Request.Context(), sessiondto.SaveInput{Record: body})
	if err != nil {
		httpx.Respond(c, err, sessiondto.ResultFrom(recordID(body), err))
		return
	}
	c.JSON(http.StatusOK, sessiondto.ResultFrom(out.SessionID, nil))
}

func (h *HTTPHandler) listDates(c *gin.Context) {
	dates, err := h.usecase.ListDates(c.Request.Context())
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dates": dates})
}

// loadDate returns the stored records verbatim.
func (h *HTTPHandler) loadDate(c *gin.Context) {
	sessions, err := h.usecase.LoadDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	records := make([]json.RawMessage, 0, len(sessions))
	for _, s := range sessions {
		records = append(records, s.Record)
	}
	c.JSON(http.StatusOK, records)
}

func (h *HTTPHandler) get(c *gin.Context) {
	session, err := h.usecase.Get(c.Request.Context(), c.Param("date"), c.Param("id"))
	if err != nil {
		httpx.Respond(c, err, sessiondto.ResultFrom(c.Param("id"), err))
		return
	}
	c.JSON(http.StatusOK, session.Record)
}

func (h *HTTPHandler) delete(c *gin.Context) {
	id := c.Param("id")
	err := h.usecase.Delete(c.Request.Context(), sessiondto.DeleteInput{Date: c.Param("date"), SessionID: id})
	httpx.Respond(c, err, sessiondto.ResultFrom(id, err))
}

func (h *HTTPHandler) move(c *gin.Context) {
	id := c.Param("id")
	_, err := h.usecase.Move(c.Request.Context(), sessiondto.MoveInput{
		SessionID: id,
		FromDate:  c.Param("date"),
		ToDate:    c.Query("to"),
	})
	httpx.Respond(c, err, sessiondto.ResultFrom(id, err))
}

func (h *HTTPHandler) cycleStatus(c *gin.Context) {
	id := c.Param("id")
	out, err := h.usecase.CycleStatus(c.Request.Context(), c.Param("date"), id)
	if err != nil {
		httpx.Respond(c, err, sessiondto.ResultFrom(id, err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"sessionId": out.SessionID,
		"status":    out.Status,
		"reviewDue": out.ReviewDue,
	})
}

func (h *HTTPHandler) metadata(c *gin.Context) {
	meta, err := h.usecase.LoadMetadata(c.Request.Context(), c.Param("date"))
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

func (h *HTTPHandler) multipleMetadata(c *gin.Context) {
	metas, err := h.usecase.LoadMultipleMetadata(c.Request.Context(), c.QueryArray("date"))
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, metas)
}

func (h *HTTPHandler) repair(c *gin.Context) {
	report, err := h.usecase.Repair(c.Request.Context(), c.Param("date"))
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *HTTPHandler) calendar(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("tags", "0"))
	out, err := h.usecase.Calendar(c.Request.Context(), sessiondto.CalendarInput{
		From:     c.Query("from"),
		To:       c.Query("to"),
		TagLimit: limit,
	})
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *HTTPHandler) reindex(c *gin.Context) {
	out, err := h.usecase.Reindex(c.Request.Context())
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"dates":    out.Dates,
		"sessions": out.Sessions,
		"tookMs":   out.Took.Milliseconds(),
	})
}
