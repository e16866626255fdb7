package in

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	reviewdto "studyvault/internal/modules/review/dto"
	reviewin "studyvault/internal/modules/review/port/in"
	"studyvault/internal/platform/httpx"
)

type HTTPHandler struct {
	usecase reviewin.Usecase
}

func NewHTTPHandler(usecase reviewin.Usecase) *HTTPHandler {
	return &HTTPHandler{usecase: usecase}
}

func (h *HTTPHandler) Register(api *gin.RouterGroup) {
	api.GET("/reviews/preview", h.preview)
	api.GET("/dates/:date/sessions/:id/reviews", h.show)
	api.POST("/dates/:date/sessions/:id/reviews/:reviewId/complete", h.complete)
	api.POST("/dates/:date/sessions/:id/reviews/:reviewId/incomplete", h.incomplete)
}

func (h *HTTPHandler) preview(c *gin.Context) {
	input := reviewdto.PreviewInput{Date: c.Query("date")}
	if raw, ok := c.GetQuery("excludeWeekends"); ok {
		exclude, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "excludeWeekends must be a boolean"})
			return
		}
		input.ExcludeWeekends = &exclude
	}
	out, err := h.usecase.Preview(c.Request.Context(), input)
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *HTTPHandler) show(c *gin.Context) {
	out, err := h.usecase.Show(c.Request.Context(), reviewdto.SessionRef{Date: c.Param("date"), SessionID: c.Param("id")})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *HTTPHandler) complete(c *gin.Context) {
	out, err := h.usecase.Complete(c.Request.Context(), markInput(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *HTTPHandler) incomplete(c *gin.Context) {
	out, err := h.usecase.Incomplete(c.Request.Context(), markInput(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *HTTPHandler) fail(c *gin.Context, err error) {
	c.JSON(httpx.StatusFor(err), gin.H{"success": false, "sessionId": c.Param("id"), "error": err.Error()})
}

func markInput(c *gin.Context) reviewdto.MarkInput {
	return reviewdto.MarkInput{Date: c.Param("date"), SessionID: c.Param("id"), ReviewID: c.Param("reviewId")}
}
