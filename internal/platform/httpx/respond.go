package httpx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "studyvault/internal/platform/errors"
)

// StatusFor maps the application error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrLockTimeout):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func RespondError(c *gin.Context, err error) {
	c.JSON(StatusFor(err), gin.H{"success": false, "error": err.Error()})
}

// Respond writes body with the status derived from err.
func Respond(c *gin.Context, err error, body any) {
	c.JSON(StatusFor(err), body)
}
