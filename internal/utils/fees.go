package utils

import (
	"fmt"
	"math"
	"time"
)

// Fee percentages in basis points. 1000 bps = 10%.
const (
	DefaultClientFeeBps   = 1000
	DefaultProviderFeeBps = 1000
)

// FeeBreakdown is the four-way split of a gross service amount. All values
// are integer minor units (cents).
type FeeBreakdown struct {
	GrossAmountCents       int64 `json:"gross_amount_cents"`
	ClientFeeCents         int64 `json:"client_fee_cents"`
	ProviderFeeCents       int64 `json:"provider_fee_cents"`
	PlatformFeeTotalCents  int64 `json:"platform_fee_total_cents"`
	NetProviderAmountCents int64 `json:"net_provider_amount_cents"`
	ClientTotalChargeCents int64 `json:"client_total_charge_cents"`
}

// CalculateFees splits a gross amount using the default 10%/10% fee rates.
// Deterministic, no side effects; callers use it both for escrow creation
// and for preview-only fee quotes.
func CalculateFees(grossCents int64) (*FeeBreakdown, error) {
	return CalculateFeesBps(grossCents, DefaultClientFeeBps, DefaultProviderFeeBps)
}

// CalculateFeesBps splits a gross amount with explicit fee rates in basis
// points. Rounding is half-up to whole cents. Gross amounts <= 0 are
// rejected.
func CalculateFeesBps(grossCents, clientFeeBps, providerFeeBps int64) (*FeeBreakdown, error) {
	if grossCents <= 0 {
		return nil, fmt.Errorf("gross amount must be positive, got %d", grossCents)
	}
	if clientFeeBps < 0 || providerFeeBps < 0 {
		return nil, fmt.Errorf("fee rates must not be negative")
	}

	clientFee := roundBps(grossCents, clientFeeBps)
	providerFee := roundBps(grossCents, providerFeeBps)

	return &FeeBreakdown{
		GrossAmountCents:       grossCents,
		ClientFeeCents:         clientFee,
		ProviderFeeCents:       providerFee,
		PlatformFeeTotalCents:  clientFee + providerFee,
		NetProviderAmountCents: grossCents - providerFee,
		ClientTotalChargeCents: grossCents + clientFee,
	}, nil
}

// roundBps applies a basis-point rate with half-up rounding to whole cents.
func roundBps(amountCents, bps int64) int64 {
	return (amountCents*bps + 5000) / 10000
}

// BookingHours returns the decimal hour span of a booking. The end must be
// strictly after the start.
func BookingHours(start, end time.Time) (float64, error) {
	if !end.After(start) {
		return 0, fmt.Errorf("end time must be after start time")
	}
	return end.Sub(start).Hours(), nil
}

// BookingTotalCents computes hours x hourly rate, rounded to whole cents.
func BookingTotalCents(hours float64, hourlyRateCents int64) int64 {
	return int64(math.Round(hours * float64(hourlyRateCents)))
}

// FlatRateCents derives an equivalent hourly rate from a flat total, for
// bookings priced by an accepted bid rather than an hourly listing.
func FlatRateCents(totalCents int64, hours float64) int64 {
	if hours <= 0 {
		return totalCents
	}
	return int64(math.Round(float64(totalCents) / hours))
}
