package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aw226929-cmd/iturnin-backend/internal/domain"
	"github.com/aw226929-cmd/iturnin-backend/internal/domain/models"
	"github.com/aw226929-cmd/iturnin-backend/internal/repositories"
	"github.com/aw226929-cmd/iturnin-backend/internal/utils"
)

const (
	maxExtraKeys     = 20
	maxExtraKeyLen   = 64
	maxExtraValueLen = 500
)

var validate = validator.New()

// BookingService prices pickup requests, opens a payment intent and stores the pending booking.
type BookingService struct {
	Store    repositories.BookingStore
	Distance DistanceProvider
	Payments PaymentGateway
	Prices   utils.PriceTable
	NewID    func() string
	Now      func() time.Time
}

func (s BookingService) distance() DistanceProvider {
	if s.Distance != nil {
		return s.Distance
	}
	return ZeroDistance{}
}

func (s BookingService) prices() utils.PriceTable {
	if s.Prices == (utils.PriceTable{}) {
		return utils.DefaultPriceTable()
	}
	return s.Prices
}

func (s BookingService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return utils.NowUTC()
}

// Create runs the whole booking flow. Nothing is persisted unless the payment intent exists.
func (s BookingService) Create(ctx context.Context, in models.CreateBookingInput) (models.CreateBookingResult, error) {
	reqID := utils.RequestID(ctx)

	b, err := s.normalize(in)
	if err != nil {
		return models.CreateBookingResult{}, err
	}
	b.ID = s.newID()

	miles, err := s.distance().Miles(ctx, b.Address)
	if err != nil {
		utils.LogError(reqID, "booking", "create", "distance lookup failed", err, zap.String("booking_id", b.ID))
		return models.CreateBookingResult{}, err
	}
	prices := s.prices()
	b.DistanceMiles = miles
	b.SuppliesCents = prices.SuppliesCents(b.Supplies)
	b.AmountCents = prices.Compute(miles, b.Supplies)

	intent, err := s.Payments.CreateIntent(ctx, b.AmountCents, b.ID, b.Email)
	if err != nil {
		utils.LogError(reqID, "booking", "create", "payment intent failed", err, zap.String("booking_id", b.ID))
		return models.CreateBookingResult{}, err
	}
	b.PaymentIntentID = intent.ID
	b.Status = models.BookingStatusPending
	b.CreatedAt = s.now()

	if err := s.Store.Create(ctx, b); err != nil {
		utils.LogError(reqID, "booking", "create", "persist booking failed", err, zap.String("booking_id", b.ID))
		if cerr := s.Payments.CancelIntent(ctx, intent.ID); cerr != nil {
			utils.LogError(reqID, "booking", "create", "cancel orphan intent failed", cerr, zap.String("intent_id", intent.ID))
		}
		return models.CreateBookingResult{}, domain.InternalError{Msg: "persist booking", Err: err}
	}

	utils.LogEvent(reqID, "booking", "create", "booking created",
		zap.String("booking_id", b.ID),
		zap.Float64("distance_miles", b.DistanceMiles),
		zap.Int64("amount_cents", b.AmountCents),
	)
	return models.CreateBookingResult{
		BookingID:    b.ID,
		ClientSecret: intent.ClientSecret,
		AmountCents:  b.AmountCents,
	}, nil
}

// Quote prices an address without creating an intent or a booking.
func (s BookingService) Quote(ctx context.Context, address string, supplies models.Supplies) (models.Quote, error) {
	address = utils.NormalizeSpace(address)
	if address == "" {
		return models.Quote{}, domain.ValidationError{Field: "address", Msg: "address is required"}
	}
	miles, err := s.distance().Miles(ctx, address)
	if err != nil {
		utils.LogError(utils.RequestID(ctx), "booking", "quote", "distance lookup failed", err)
		return models.Quote{}, err
	}
	return models.Quote{DistanceMiles: miles, AmountCents: s.prices().Compute(miles, supplies)}, nil
}

func (s BookingService) List(ctx context.Context) ([]models.Booking, error) {
	return s.Store.List(ctx)
}

func (s BookingService) Get(ctx context.Context, id string) (models.Booking, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Booking{}, domain.ValidationError{Field: "id", Msg: "id is required"}
	}
	return s.Store.Get(ctx, id)
}

// normalize validates the request and returns a booking without id, price or status.
func (s BookingService) normalize(in models.CreateBookingInput) (models.Booking, error) {
	b := models.Booking{
		Name:     utils.NormalizeSpace(in.Name),
		Email:    utils.TrimOrEmpty(in.Email),
		Phone:    utils.TrimOrEmpty(in.Phone),
		Address:  utils.NormalizeSpace(in.Address),
		Notes:    utils.TrimOrEmpty(in.Notes),
		Supplies: in.Supplies,
	}
	if b.Address == "" {
		return b, domain.ValidationError{Field: "address", Msg: "address is required"}
	}
	if b.Email == "" {
		return b, domain.ValidationError{Field: "email", Msg: "email is required"}
	}
	if err := validate.Var(b.Email, "email"); err != nil {
		return b, domain.ValidationError{Field: "email", Msg: "email is not valid", Err: err}
	}

	if pt := utils.TrimOrEmpty(in.PickupTime); pt != "" {
		t, err := utils.ParsePickupTime(pt)
		if err != nil {
			return b, domain.ValidationError{Field: "pickupTime", Msg: "must be an ISO-8601 date or date-time", Err: err}
		}
		v := t.Format(time.RFC3339)
		b.PickupTime = &v
	}

	if len(in.Extra) > maxExtraKeys {
		return b, domain.ValidationError{Field: "extra", Msg: "too many keys"}
	}
	if len(in.Extra) > 0 {
		b.Extra = make(map[string]string, len(in.Extra))
		for k, v := range in.Extra {
			k = strings.TrimSpace(k)
			if k == "" || len(k) > maxExtraKeyLen {
				return b, domain.ValidationError{Field: "extra", Msg: "invalid key"}
			}
			if len(v) > maxExtraValueLen {
				return b, domain.ValidationError{Field: "extra." + k, Msg: "value too long"}
			}
			b.Extra[k] = v
		}
	}
	return b, nil
}
