package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/aw226929-cmd/iturnin-backend/internal/domain"
	"github.com/aw226929-cmd/iturnin-backend/internal/domain/models"
	"github.com/aw226929-cmd/iturnin-backend/internal/utils"
)

func TestDocsServiceReceipt(t *testing.T) {
	pickup := "2026-10-20T16:30:00Z"
	paid := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	loader := func(_ context.Context, id string) (models.Booking, error) {
		return models.Booking{
			ID:            id,
			Name:          "Tester",
			Email:         "tester@example.com",
			Phone:         "555-0100",
			Address:       "123 Main St, Oakland, CA",
			PickupTime:    &pickup,
			Notes:         "Ring twice",
			Supplies:      models.Supplies{Box: true, Label: true},
			DistanceMiles: 7.3,
			AmountCents:   1700,
			Status:        models.BookingStatusPaid,
			CreatedAt:     paid.Add(-time.Hour),
			PaidAt:        &paid,
		}, nil
	}

	svc := DocsService{Loader: loader}

	pdf, filename, err := svc.Receipt(context.Background(), "b-42")
	if err != nil {
		t.Fatalf("Receipt returned error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("Receipt did not return a PDF")
	}
	if filename != "RECEIPT_b-42.pdf" {
		t.Fatalf("unexpected filename %q", filename)
	}
}

func TestDocsServiceReceiptNotFound(t *testing.T) {
	svc := DocsService{Loader: func(_ context.Context, id string) (models.Booking, error) {
		return models.Booking{}, domain.NotFoundError{Resource: "booking", ID: id}
	}}
	if _, _, err := svc.Receipt(context.Background(), "nope"); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDocsServiceLines(t *testing.T) {
	svc := DocsService{Prices: utils.DefaultPriceTable()}
	lines := svc.lines(models.Booking{
		DistanceMiles: 5.4,
		SuppliesCents: 300,
		AmountCents:   1400,
		Supplies:      models.Supplies{Box: true},
	})
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Cents != 1100 || lines[1].Cents != 300 || lines[1].Label != "Supplies (box)" {
		t.Fatalf("unexpected breakdown %+v", lines)
	}
}

func TestDocsServiceLinesUseChargedSupplies(t *testing.T) {
	// prices raised after the booking was made
	prices := utils.DefaultPriceTable()
	prices.BoxCents = 900
	prices.TapeCents = 900
	svc := DocsService{Prices: prices}

	lines := svc.lines(models.Booking{
		DistanceMiles: 2,
		SuppliesCents: 500,
		AmountCents:   1500,
		Supplies:      models.Supplies{Box: true, Tape: true},
	})
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %+v", lines)
	}
	if lines[0].Cents != 1000 || lines[1].Cents != 500 || lines[1].Label != "Supplies (box, tape)" {
		t.Fatalf("unexpected breakdown %+v", lines)
	}
}

func TestDocsServiceLinesEstimateWithoutSubtotal(t *testing.T) {
	svc := DocsService{Prices: utils.DefaultPriceTable()}
	lines := svc.lines(models.Booking{
		DistanceMiles: 5.4,
		AmountCents:   1400,
		Supplies:      models.Supplies{Box: true},
	})
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Cents != 1100 || lines[1].Cents != 300 || lines[1].Label != "Box (est.)" {
		t.Fatalf("unexpected breakdown %+v", lines)
	}

	lines = svc.lines(models.Booking{DistanceMiles: 1, AmountCents: 1000})
	if len(lines) != 1 || lines[0].Cents != 1000 {
		t.Fatalf("unexpected breakdown %+v", lines)
	}
}
