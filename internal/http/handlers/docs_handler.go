package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aw226929-cmd/iturnin-backend/internal/services"
)

// DocsHandler serves booking documents.
type DocsHandler struct {
	Docs services.DocsService
}

// GET /api/bookings/:id/receipt returns the PDF receipt inline.
func (h DocsHandler) Receipt(c *gin.Context) {
	pdfBytes, filename, err := h.Docs.Receipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondDomainError(c, err, "failed to render receipt")
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
