package models

import "time"

const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"

	// MetadataBookingID is the payment intent metadata key that links an intent to its booking.
	MetadataBookingID = "bookingId"
)

// PaymentIntent is the processor-side pending charge created for a booking.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	AmountCents  int64
}

// PaymentEvent is a verified webhook event reduced to the fields we act on.
type PaymentEvent struct {
	ID       string
	Type     string
	IntentID string
	Metadata map[string]string
}

func (e PaymentEvent) BookingID() string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[MetadataBookingID]
}

// ProcessedEvent records a webhook event that has already been handled.
type ProcessedEvent struct {
	ID          string    `json:"id" db:"id"`
	Type        string    `json:"type" db:"type"`
	ProcessedAt time.Time `json:"processedAt" db:"processed_at"`
}
