package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aw226929-cmd/iturnin-backend/internal/domain"
	"github.com/aw226929-cmd/iturnin-backend/internal/domain/models"
)

const testWebhookSecret = "whsec_test_secret"

func newWebhookFixture(t *testing.T) (WebhookService, *mockNotifier) {
	t.Helper()
	store := newFileStore(t)
	require.NoError(t, store.Create(context.Background(), models.Booking{
		ID:              "b-1",
		Email:           "ada@example.com",
		Address:         "123 Main St",
		AmountCents:     1000,
		PaymentIntentID: "pi_1",
		Status:          models.BookingStatusPending,
		CreatedAt:       fixedNow.Add(-time.Hour),
	}))

	n := &mockNotifier{}
	svc := WebhookService{
		Store:    store,
		Ledger:   newFileLedger(t),
		Payments: NewStripeGateway("sk_test_123", testWebhookSecret, "usd", nil),
		Notifier: n,
		Now:      func() time.Time { return fixedNow },
	}
	return svc, n
}

func TestWebhookServicePaymentSucceeded(t *testing.T) {
	ctx := context.Background()
	svc, n := newWebhookFixture(t)
	n.On("SendCustomerConfirmation", mock.Anything, mock.MatchedBy(func(b models.Booking) bool { return b.ID == "b-1" && b.IsPaid() })).Return(nil).Once()
	n.On("SendAdminNotification", mock.Anything, mock.Anything).Return(nil).Once()

	payload := intentEvent("evt_1", models.EventPaymentSucceeded, "pi_1", "b-1")
	require.NoError(t, svc.Handle(ctx, payload, signPayload(payload, testWebhookSecret, time.Now())))

	b, err := svc.Store.Get(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPaid, b.Status)
	require.NotNil(t, b.PaidAt)
	assert.True(t, b.PaidAt.Equal(fixedNow))
	n.AssertExpectations(t)

	seen, err := svc.Ledger.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestWebhookServiceReplaySendsMailOnce(t *testing.T) {
	ctx := context.Background()
	svc, n := newWebhookFixture(t)
	n.On("SendCustomerConfirmation", mock.Anything, mock.Anything).Return(nil).Once()
	n.On("SendAdminNotification", mock.Anything, mock.Anything).Return(nil).Once()

	payload := intentEvent("evt_1", models.EventPaymentSucceeded, "pi_1", "b-1")
	sig := signPayload(payload, testWebhookSecret, time.Now())
	require.NoError(t, svc.Handle(ctx, payload, sig))
	require.NoError(t, svc.Handle(ctx, payload, sig))

	// a second event for the same intent is a distinct delivery but must not mail again
	other := intentEvent("evt_2", models.EventPaymentSucceeded, "pi_1", "b-1")
	require.NoError(t, svc.Handle(ctx, other, signPayload(other, testWebhookSecret, time.Now())))

	b, err := svc.Store.Get(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPaid, b.Status)
	n.AssertNumberOfCalls(t, "SendCustomerConfirmation", 1)
	n.AssertNumberOfCalls(t, "SendAdminNotification", 1)
}

func TestWebhookServiceUnknownBookingIsAcknowledged(t *testing.T) {
	ctx := context.Background()
	svc, n := newWebhookFixture(t)

	payload := intentEvent("evt_3", models.EventPaymentSucceeded, "pi_x", "does-not-exist")
	require.NoError(t, svc.Handle(ctx, payload, signPayload(payload, testWebhookSecret, time.Now())))

	all, err := svc.Store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.BookingStatusPending, all[0].Status)
	n.AssertNotCalled(t, "SendCustomerConfirmation", mock.Anything, mock.Anything)
}

func TestWebhookServiceMissingBookingIDIsAcknowledged(t *testing.T) {
	svc, n := newWebhookFixture(t)
	payload := intentEvent("evt_4", models.EventPaymentSucceeded, "pi_x", "")
	require.NoError(t, svc.Handle(context.Background(), payload, signPayload(payload, testWebhookSecret, time.Now())))
	n.AssertNotCalled(t, "SendCustomerConfirmation", mock.Anything, mock.Anything)
}

func TestWebhookServiceBadSignature(t *testing.T) {
	ctx := context.Background()
	svc, n := newWebhookFixture(t)

	payload := intentEvent("evt_5", models.EventPaymentSucceeded, "pi_1", "b-1")
	err := svc.Handle(ctx, payload, signPayload(payload, "whsec_wrong", time.Now()))
	require.Error(t, err)
	assert.True(t, domain.IsSignature(err))

	err = svc.Handle(ctx, payload, "")
	assert.True(t, domain.IsSignature(err))

	b, err := svc.Store.Get(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, b.Status)
	n.AssertNotCalled(t, "SendCustomerConfirmation", mock.Anything, mock.Anything)
}

func TestWebhookServiceMailFailureStillAcknowledges(t *testing.T) {
	svc, n := newWebhookFixture(t)
	n.On("SendCustomerConfirmation", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	n.On("SendAdminNotification", mock.Anything, mock.Anything).Return(nil)

	payload := intentEvent("evt_6", models.EventPaymentSucceeded, "pi_1", "b-1")
	require.NoError(t, svc.Handle(context.Background(), payload, signPayload(payload, testWebhookSecret, time.Now())))
	n.AssertCalled(t, "SendAdminNotification", mock.Anything, mock.Anything)
}

func TestWebhookServiceOtherEventsAreRecorded(t *testing.T) {
	ctx := context.Background()
	svc, n := newWebhookFixture(t)

	for i, typ := range []string{models.EventPaymentFailed, "charge.refunded"} {
		id := []string{"evt_f", "evt_r"}[i]
		payload := intentEvent(id, typ, "pi_1", "b-1")
		require.NoError(t, svc.Handle(ctx, payload, signPayload(payload, testWebhookSecret, time.Now())))
		seen, err := svc.Ledger.Seen(ctx, id)
		require.NoError(t, err)
		assert.True(t, seen)
	}

	b, err := svc.Store.Get(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, b.Status)
	n.AssertNotCalled(t, "SendCustomerConfirmation", mock.Anything, mock.Anything)
}

func TestWebhookServiceStoreFailureIsRetried(t *testing.T) {
	pay := &mockGateway{}
	pay.On("ParseEvent", mock.Anything, "sig").Return(models.PaymentEvent{
		ID:       "evt_7",
		Type:     models.EventPaymentSucceeded,
		Metadata: map[string]string{models.MetadataBookingID: "b-1"},
	}, nil)

	ledger := newFileLedger(t)
	svc := WebhookService{Store: brokenMarkStore{}, Ledger: ledger, Payments: pay}
	err := svc.Handle(context.Background(), []byte("{}"), "sig")
	require.Error(t, err)
	assert.True(t, domain.IsInternal(err))

	seen, err := ledger.Seen(context.Background(), "evt_7")
	require.NoError(t, err)
	assert.False(t, seen, "failed deliveries must stay retryable")
}

type brokenMarkStore struct{ failingStore }

func (brokenMarkStore) MarkPaid(context.Context, string, time.Time) (models.Booking, bool, error) {
	return models.Booking{}, false, errors.New("disk full")
}
