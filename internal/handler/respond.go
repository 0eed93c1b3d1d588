package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"checkin-service/internal/apperr"
)

// statusOf maps the service error taxonomy onto HTTP status codes.
func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.InvalidCredentials:
		return http.StatusUnauthorized
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.InvalidArgument:
		return http.StatusBadRequest
	case apperr.NoLocationAssigned:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the taxonomy error as JSON. Internal details never
// reach the caller; the handlers log them before calling this.
func respondError(c echo.Context, err error) error {
	kind := apperr.KindOf(err)
	message := apperr.MessageOf(err)
	if kind == apperr.Internal {
		message = "internal error"
	}
	return c.JSON(statusOf(kind), echo.Map{"error": message})
}
