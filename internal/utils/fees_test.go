package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateFees(t *testing.T) {
	tests := []struct {
		name          string
		gross         int64
		clientFee     int64
		providerFee   int64
		platformTotal int64
		netProvider   int64
		clientCharge  int64
	}{
		{"hundred dollars", 10000, 1000, 1000, 2000, 9000, 11000},
		{"fifty dollars", 5000, 500, 500, 1000, 4500, 5500},
		{"one cent", 1, 0, 0, 0, 1, 1},
		{"rounds half up", 5, 1, 1, 2, 4, 6}, // 0.5 cent fee rounds to 1
		{"odd amount", 9999, 1000, 1000, 2000, 8999, 10999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, err := CalculateFees(tt.gross)
			assert.NoError(t, err)
			assert.Equal(t, tt.clientFee, fb.ClientFeeCents)
			assert.Equal(t, tt.providerFee, fb.ProviderFeeCents)
			assert.Equal(t, tt.platformTotal, fb.PlatformFeeTotalCents)
			assert.Equal(t, tt.netProvider, fb.NetProviderAmountCents)
			assert.Equal(t, tt.clientCharge, fb.ClientTotalChargeCents)
		})
	}
}

func TestCalculateFeesConservation(t *testing.T) {
	// client_fee + provider_fee == platform_fee_total,
	// net == gross - provider_fee and charge == gross + client_fee
	// must hold for arbitrary amounts.
	for _, gross := range []int64{1, 2, 3, 49, 50, 99, 100, 12345, 999999, 1000001} {
		fb, err := CalculateFees(gross)
		assert.NoError(t, err)
		assert.Equal(t, fb.PlatformFeeTotalCents, fb.ClientFeeCents+fb.ProviderFeeCents, "gross %d", gross)
		assert.Equal(t, gross-fb.ProviderFeeCents, fb.NetProviderAmountCents, "gross %d", gross)
		assert.Equal(t, gross+fb.ClientFeeCents, fb.ClientTotalChargeCents, "gross %d", gross)
	}
}

func TestCalculateFeesRejectsNonPositive(t *testing.T) {
	for _, gross := range []int64{0, -1, -10000} {
		_, err := CalculateFees(gross)
		assert.Error(t, err, "gross %d", gross)
	}
}

func TestCalculateFeesBps(t *testing.T) {
	t.Run("Custom rates", func(t *testing.T) {
		fb, err := CalculateFeesBps(10000, 500, 1500) // 5% client, 15% provider
		assert.NoError(t, err)
		assert.Equal(t, int64(500), fb.ClientFeeCents)
		assert.Equal(t, int64(1500), fb.ProviderFeeCents)
		assert.Equal(t, int64(8500), fb.NetProviderAmountCents)
	})

	t.Run("Negative rate rejected", func(t *testing.T) {
		_, err := CalculateFeesBps(10000, -100, 1000)
		assert.Error(t, err)
	})
}

func TestBookingHours(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	t.Run("Whole hours", func(t *testing.T) {
		h, err := BookingHours(start, start.Add(3*time.Hour))
		assert.NoError(t, err)
		assert.Equal(t, 3.0, h)
	})

	t.Run("Fractional hours", func(t *testing.T) {
		h, err := BookingHours(start, start.Add(90*time.Minute))
		assert.NoError(t, err)
		assert.Equal(t, 1.5, h)
	})

	t.Run("End before start", func(t *testing.T) {
		_, err := BookingHours(start, start.Add(-time.Hour))
		assert.Error(t, err)
	})

	t.Run("End equals start", func(t *testing.T) {
		_, err := BookingHours(start, start)
		assert.Error(t, err)
	})
}

func TestBookingTotalCents(t *testing.T) {
	assert.Equal(t, int64(5000), BookingTotalCents(2, 2500))
	assert.Equal(t, int64(4500), BookingTotalCents(1.5, 3000))
	// a third of an hour at $1.00/h rounds to 33 cents
	assert.Equal(t, int64(33), BookingTotalCents(1.0/3.0, 100))
}
