package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aw226929-cmd/iturnin-backend/internal/domain"
	"github.com/aw226929-cmd/iturnin-backend/internal/domain/models"
	"github.com/aw226929-cmd/iturnin-backend/internal/repositories"
	"github.com/aw226929-cmd/iturnin-backend/internal/utils"
)

// WebhookService applies verified payment processor events to bookings.
type WebhookService struct {
	Store    repositories.BookingStore
	Ledger   repositories.EventLedger
	Payments PaymentGateway
	Notifier Notifier
	Now      func() time.Time
}

func (s WebhookService) notifier() Notifier {
	if s.Notifier != nil {
		return s.Notifier
	}
	return NoopNotifier{}
}

func (s WebhookService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return utils.NowUTC()
}

// Handle verifies and applies one delivery. A nil error means the delivery should be acknowledged.
// Signature failures return domain.SignatureError; store and ledger failures are returned so the
// processor retries.
func (s WebhookService) Handle(ctx context.Context, payload []byte, signature string) error {
	reqID := utils.RequestID(ctx)

	ev, err := s.Payments.ParseEvent(payload, signature)
	if err != nil {
		utils.LogError(reqID, "webhook", "verify", "event rejected", err)
		return err
	}
	log := []zap.Field{zap.String("event_id", ev.ID), zap.String("type", ev.Type)}

	if s.Ledger != nil && ev.ID != "" {
		seen, err := s.Ledger.Seen(ctx, ev.ID)
		if err != nil {
			return domain.InternalError{Msg: "lookup processed event", Err: err}
		}
		if seen {
			utils.LogEvent(reqID, "webhook", "handle", "duplicate delivery ignored", log...)
			return nil
		}
	}

	switch ev.Type {
	case models.EventPaymentSucceeded:
		if err := s.confirm(ctx, ev); err != nil {
			return err
		}
	case models.EventPaymentFailed:
		utils.LogEvent(reqID, "webhook", "handle", "payment failed", append(log,
			zap.String("intent_id", ev.IntentID),
			zap.String("booking_id", ev.BookingID()),
		)...)
	default:
		utils.LogEvent(reqID, "webhook", "handle", "event type ignored", log...)
	}

	if s.Ledger != nil && ev.ID != "" {
		if err := s.Ledger.Record(ctx, models.ProcessedEvent{ID: ev.ID, Type: ev.Type, ProcessedAt: s.now()}); err != nil {
			return domain.InternalError{Msg: "record processed event", Err: err}
		}
	}
	return nil
}

func (s WebhookService) confirm(ctx context.Context, ev models.PaymentEvent) error {
	reqID := utils.RequestID(ctx)
	bookingID := ev.BookingID()
	if bookingID == "" {
		utils.LogEvent(reqID, "webhook", "confirm", "intent has no booking id, skipped", zap.String("intent_id", ev.IntentID))
		return nil
	}

	b, changed, err := s.Store.MarkPaid(ctx, bookingID, s.now())
	if err != nil {
		if domain.IsNotFound(err) {
			utils.LogEvent(reqID, "webhook", "confirm", "unknown booking, skipped", zap.String("booking_id", bookingID))
			return nil
		}
		return domain.InternalError{Msg: "mark booking paid", Err: err}
	}
	if !changed {
		utils.LogEvent(reqID, "webhook", "confirm", "booking already paid", zap.String("booking_id", bookingID))
		return nil
	}
	utils.LogEvent(reqID, "webhook", "confirm", "booking paid", zap.String("booking_id", bookingID), zap.String("intent_id", ev.IntentID))

	n := s.notifier()
	if err := n.SendCustomerConfirmation(ctx, b); err != nil {
		utils.LogError(reqID, "webhook", "confirm", "customer mail failed", err, zap.String("booking_id", bookingID))
	}
	if err := n.SendAdminNotification(ctx, b); err != nil {
		utils.LogError(reqID, "webhook", "confirm", "admin mail failed", err, zap.String("booking_id", bookingID))
	}
	return nil
}
