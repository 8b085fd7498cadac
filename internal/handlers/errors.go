package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"appointment-booking-server/internal/middleware"
	"appointment-booking-server/internal/models"
	"appointment-booking-server/internal/services"
	"appointment-booking-server/internal/utils"
)

// respondError writes the HTTP response for an error returned by a service.
// Unexpected errors are logged and reported without detail.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.BadRequest(c, capitalize(err.Error()))
	case errors.Is(err, services.ErrUnauthenticated):
		utils.Unauthorized(c, "Invalid email or password")
	case errors.Is(err, services.ErrUnauthorized):
		utils.Forbidden(c, "You do not have permission to perform this action")
	case errors.Is(err, services.ErrNotFound):
		utils.NotFound(c, capitalize(err.Error()))
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrConflict):
		utils.Conflict(c, capitalize(err.Error()))
	default:
		_ = c.Error(err)
		middleware.LoggerFrom(c).ErrorContext(c.Request.Context(), "request failed", "error", err)
		utils.InternalServerError(c, "Internal server error")
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// currentPrincipal fetches the authenticated user or replies 401.
func currentPrincipal(c *gin.Context) (models.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "Authentication required")
	}
	return p, ok
}
