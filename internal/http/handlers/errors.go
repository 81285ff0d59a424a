package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aw226929-cmd/iturnin-backend/internal/domain"
)

// RespondDomainError maps domain errors to HTTP responses. Validation and not-found
// messages are safe to show; everything else becomes fallback.
func RespondDomainError(c *gin.Context, err error, fallback string) {
	var verr domain.ValidationError
	switch {
	case errors.As(err, &verr):
		RespondError(c, http.StatusBadRequest, verr.Error(), err)
	case domain.IsNotFound(err):
		RespondError(c, http.StatusNotFound, err.Error(), err)
	case domain.IsSignature(err):
		RespondError(c, http.StatusBadRequest, err.Error(), err)
	default:
		RespondError(c, http.StatusInternalServerError, fallback, err)
	}
}
