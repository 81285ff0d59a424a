package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/aw226929-cmd/iturnin-backend/internal/domain/models"
	"github.com/aw226929-cmd/iturnin-backend/internal/repositories"
)

type mockDistance struct{ mock.Mock }

func (m *mockDistance) Miles(ctx context.Context, destination string) (float64, error) {
	args := m.Called(ctx, destination)
	return args.Get(0).(float64), args.Error(1)
}

type mockGateway struct{ mock.Mock }

func (m *mockGateway) CreateIntent(ctx context.Context, amountCents int64, bookingID, receiptEmail string) (models.PaymentIntent, error) {
	args := m.Called(ctx, amountCents, bookingID, receiptEmail)
	return args.Get(0).(models.PaymentIntent), args.Error(1)
}

func (m *mockGateway) CancelIntent(ctx context.Context, intentID string) error {
	return m.Called(ctx, intentID).Error(0)
}

func (m *mockGateway) ParseEvent(payload []byte, signature string) (models.PaymentEvent, error) {
	args := m.Called(payload, signature)
	return args.Get(0).(models.PaymentEvent), args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) SendCustomerConfirmation(ctx context.Context, b models.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockNotifier) SendAdminNotification(ctx context.Context, b models.Booking) error {
	return m.Called(ctx, b).Error(0)
}

// failingStore accepts reads but refuses writes.
type failingStore struct {
	repositories.BookingStore
	err error
}

func (f failingStore) Create(context.Context, models.Booking) error { return f.err }

func newFileStore(t *testing.T) *repositories.FileBookingStore {
	t.Helper()
	store, err := repositories.NewFileBookingStore(filepath.Join(t.TempDir(), "bookings.json"))
	require.NoError(t, err)
	return store
}

func newFileLedger(t *testing.T) *repositories.FileEventLedger {
	t.Helper()
	ledger, err := repositories.NewFileEventLedger(filepath.Join(t.TempDir(), "events.json"))
	require.NoError(t, err)
	return ledger
}

// signPayload returns the Stripe-Signature header for payload signed at the given time.
func signPayload(payload []byte, secret string, at time.Time) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
	}).Header
}

func intentEvent(eventID, eventType, intentID, bookingID string) []byte {
	meta := "{}"
	if bookingID != "" {
		meta = fmt.Sprintf(`{"bookingId":%q}`, bookingID)
	}
	return []byte(fmt.Sprintf(`{
  "id": %q,
  "object": "event",
  "api_version": "2020-08-27",
  "type": %q,
  "data": {"object": {"id": %q, "object": "payment_intent", "amount": 1000, "currency": "usd", "metadata": %s}}
}`, eventID, eventType, intentID, meta))
}
