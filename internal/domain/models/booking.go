package models

import "time"

type BookingStatus string

const (
	BookingStatusPending BookingStatus = "pending"
	BookingStatusPaid    BookingStatus = "paid"
)

// Supplies are the optional add-on items a customer can order with a pickup.
type Supplies struct {
	Box    bool `json:"box"`
	Mailer bool `json:"mailer"`
	Tape   bool `json:"tape"`
	Label  bool `json:"label"`
}

// Booking is the only persisted entity. ID never changes after creation.
type Booking struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	Phone           string            `json:"phone"`
	Address         string            `json:"address"`
	PickupTime      *string           `json:"pickupTime,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	Supplies        Supplies          `json:"supplies"`
	Extra           map[string]string `json:"extra,omitempty"`
	DistanceMiles   float64           `json:"distanceMiles"`
	SuppliesCents   int64             `json:"suppliesCents"`
	AmountCents     int64             `json:"amountCents"`
	PaymentIntentID string            `json:"paymentIntentId,omitempty"`
	Status          BookingStatus     `json:"status"`
	CreatedAt       time.Time         `json:"createdAt"`
	PaidAt          *time.Time        `json:"paidAt,omitempty"`
}

func (b Booking) IsPaid() bool {
	return b.Status == BookingStatusPaid
}

// CreateBookingInput carries the recognized request fields for a new booking.
type CreateBookingInput struct {
	Name       string
	Email      string
	Phone      string
	Address    string
	PickupTime string
	Notes      string
	Supplies   Supplies
	Extra      map[string]string
}

// CreateBookingResult is what the client needs to finish payment.
type CreateBookingResult struct {
	BookingID    string `json:"bookingId"`
	ClientSecret string `json:"clientSecret"`
	AmountCents  int64  `json:"amountCents"`
}

// Quote is a price preview that creates nothing.
type Quote struct {
	DistanceMiles float64 `json:"distanceMiles"`
	AmountCents   int64   `json:"amountCents"`
}
