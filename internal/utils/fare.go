package utils

import (
	"math"

	"github.com/aw226929-cmd/iturnin-backend/internal/domain/models"
)

// PriceTable holds the pricing policy in cents.
type PriceTable struct {
	BaseCents     int64
	IncludedMiles float64
	PerMileCents  int64
	BoxCents      int64
	MailerCents   int64
	TapeCents     int64
	LabelCents    int64
}

// DefaultPriceTable: $10 covers the first 5 miles, $1 per started mile after that.
func DefaultPriceTable() PriceTable {
	return PriceTable{
		BaseCents:     1000,
		IncludedMiles: 5,
		PerMileCents:  100,
		BoxCents:      300,
		MailerCents:   150,
		TapeCents:     200,
		LabelCents:    100,
	}
}

// Compute returns the price in cents for a pickup at distanceMiles with the given supplies.
// Any fraction of a mile beyond the included distance is charged as a full mile.
func (p PriceTable) Compute(distanceMiles float64, supplies models.Supplies) int64 {
	if distanceMiles < 0 || math.IsNaN(distanceMiles) {
		distanceMiles = 0
	}

	total := p.BaseCents
	if excess := distanceMiles - p.IncludedMiles; excess > 0 {
		total += int64(math.Ceil(excess)) * p.PerMileCents
	}
	return total + p.SuppliesCents(supplies)
}

// SuppliesCents sums the surcharges of the selected supplies.
func (p PriceTable) SuppliesCents(s models.Supplies) int64 {
	var sum int64
	if s.Box {
		sum += p.BoxCents
	}
	if s.Mailer {
		sum += p.MailerCents
	}
	if s.Tape {
		sum += p.TapeCents
	}
	if s.Label {
		sum += p.LabelCents
	}
	return sum
}
