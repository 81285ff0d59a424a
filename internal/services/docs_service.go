package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"

	"github.com/aw226929-cmd/iturnin-backend/internal/domain/models"
	"github.com/aw226929-cmd/iturnin-backend/internal/repositories"
	"github.com/aw226929-cmd/iturnin-backend/internal/utils"
)

// DocsService renders the PDF receipt for a booking.
type DocsService struct {
	Store  repositories.BookingStore
	Prices utils.PriceTable
	Loader func(ctx context.Context, id string) (models.Booking, error)
}

// Receipt loads the booking and renders its receipt. Returns the PDF and a download filename.
func (s DocsService) Receipt(ctx context.Context, id string) ([]byte, string, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(utils.RequestID(ctx), "docs", "generate_receipt", "booking_id="+id)
	return s.BuildReceipt(b)
}

func (s DocsService) load(ctx context.Context, id string) (models.Booking, error) {
	if s.Loader != nil {
		return s.Loader(ctx, id)
	}
	return s.Store.Get(ctx, id)
}

func (s DocsService) prices() utils.PriceTable {
	if s.Prices == (utils.PriceTable{}) {
		return utils.DefaultPriceTable()
	}
	return s.Prices
}

type receiptLine struct {
	Label string
	Cents int64
}

// lines splits the total into the pickup charge and the supplies charged at booking time.
// Bookings saved before the supplies subtotal was recorded fall back to the current price
// table and are marked as estimates.
func (s DocsService) lines(b models.Booking) []receiptLine {
	var out []receiptLine
	supplies := b.SuppliesCents
	switch names := supplyNames(b.Supplies); {
	case len(names) == 0:
	case supplies > 0:
		out = append(out, receiptLine{Label: "Supplies (" + strings.Join(names, ", ") + ")", Cents: supplies})
	default:
		p := s.prices()
		for _, item := range []struct {
			on    bool
			label string
			cents int64
		}{
			{b.Supplies.Box, "Box", p.BoxCents},
			{b.Supplies.Mailer, "Mailer", p.MailerCents},
			{b.Supplies.Tape, "Tape", p.TapeCents},
			{b.Supplies.Label, "Shipping label", p.LabelCents},
		} {
			if item.on {
				out = append(out, receiptLine{Label: item.label + " (est.)", Cents: item.cents})
				supplies += item.cents
			}
		}
	}
	pickup := b.AmountCents - supplies
	if pickup < 0 {
		pickup = 0
	}
	return append([]receiptLine{{Label: "Pickup (" + utils.FormatMiles(b.DistanceMiles) + ")", Cents: pickup}}, out...)
}

// BuildReceipt renders b without touching the store.
func (s DocsService) BuildReceipt(b models.Booking) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Receipt", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "RECEIPT")
	pdf.Ln(12)

	status := strings.ToUpper(string(b.Status))
	if status == "" {
		status = "PENDING"
	}
	pdf.SetFont("Helvetica", "", 11)
	header := []string{
		"Booking ID   : " + b.ID,
		"Status       : " + status,
		"Created      : " + utils.FormatDisplay(b.CreatedAt),
	}
	if b.PaidAt != nil {
		header = append(header, "Paid         : "+utils.FormatDisplay(*b.PaidAt))
	}
	for _, l := range header {
		pdf.Cell(0, 6, tr(l))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Customer")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 11)
	pickup := "-"
	if b.PickupTime != nil {
		if t, err := utils.ParsePickupTime(*b.PickupTime); err == nil {
			pickup = utils.FormatDisplay(t)
		}
	}
	for _, l := range []string{
		"Name    : " + utils.SafeOr(b.Name, "-"),
		"Email   : " + utils.SafeOr(b.Email, "-"),
		"Phone   : " + utils.SafeOr(b.Phone, "-"),
		"Pickup  : " + pickup,
	} {
		pdf.Cell(0, 6, tr(l))
		pdf.Ln(6)
	}
	pdf.MultiCell(0, 6, tr("Address : "+utils.SafeOr(b.Address, "-")), "", "", false)
	if strings.TrimSpace(b.Notes) != "" {
		pdf.MultiCell(0, 6, tr("Notes   : "+b.Notes), "", "", false)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Charges")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	for _, l := range s.lines(b) {
		pdf.CellFormat(140, 6, tr(l.Label), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, utils.FormatUSD(l.Cents), "", 1, "R", false, 0, "")
	}
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(140, 8, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 8, utils.FormatUSD(b.AmountCents), "T", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("RECEIPT_%s.pdf", utils.SafeFilenamePart(b.ID))
	return buf.Bytes(), filename, nil
}
