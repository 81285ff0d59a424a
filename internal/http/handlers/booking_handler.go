package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aw226929-cmd/iturnin-backend/internal/domain/models"
	"github.com/aw226929-cmd/iturnin-backend/internal/services"
)

// Stringish tolerates string, number and bool JSON values and keeps them as a string.
// Objects and arrays are rejected.
type Stringish string

func (s *Stringish) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case string(b) == "null" || len(b) == 0:
		*s = ""
		return nil
	case b[0] == '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Stringish(str)
		return nil
	case string(b) == "true" || string(b) == "false":
		*s = Stringish(b)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected a string, number or boolean, got %s", b)
		}
		*s = Stringish(n.String())
		return nil
	}
}

func (s Stringish) String() string { return string(s) }

// createBookingRequest lists the recognized fields; anything else in the body is ignored.
type createBookingRequest struct {
	Name       string               `json:"name"`
	Email      string               `json:"email"`
	Phone      Stringish            `json:"phone"`
	Address    string               `json:"address"`
	PickupTime string               `json:"pickupTime"`
	Notes      string               `json:"notes"`
	Supplies   models.Supplies      `json:"supplies"`
	Extra      map[string]Stringish `json:"extra"`
}

func (r createBookingRequest) input() models.CreateBookingInput {
	in := models.CreateBookingInput{
		Name:       r.Name,
		Email:      r.Email,
		Phone:      r.Phone.String(),
		Address:    r.Address,
		PickupTime: r.PickupTime,
		Notes:      r.Notes,
		Supplies:   r.Supplies,
	}
	if len(r.Extra) > 0 {
		in.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			in.Extra[k] = v.String()
		}
	}
	return in
}

type quoteRequest struct {
	Address  string          `json:"address"`
	Supplies models.Supplies `json:"supplies"`
}

// BookingHandler serves the public booking endpoints.
type BookingHandler struct {
	Bookings services.BookingService
}

// GET /api/bookings
func (h BookingHandler) List(c *gin.Context) {
	all, err := h.Bookings.List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err, "failed to list bookings")
		return
	}
	c.JSON(http.StatusOK, all)
}

// GET /api/bookings/:id
func (h BookingHandler) Get(c *gin.Context) {
	b, err := h.Bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondDomainError(c, err, "failed to load booking")
		return
	}
	c.JSON(http.StatusOK, b)
}

// POST /api/bookings
func (h BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	res, err := h.Bookings.Create(c.Request.Context(), req.input())
	if err != nil {
		RespondDomainError(c, err, "failed to create booking")
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/quote
func (h BookingHandler) Quote(c *gin.Context) {
	var req quoteRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	q, err := h.Bookings.Quote(c.Request.Context(), req.Address, req.Supplies)
	if err != nil {
		RespondDomainError(c, err, "failed to compute quote")
		return
	}
	c.JSON(http.StatusOK, q)
}
