// Package pricing computes the itemized charge for a stay. It is a pure
// function of the site's tariff configuration and the requested stay:
// identical inputs always produce an identical breakdown, which is required
// because the breakdown is frozen on the reservation at booking time and
// must be independently reproducible for dispute resolution.
package pricing

import (
	"fmt"
	"math"
	"time"

	"github.com/owusuansah/campsited/internal/models"
)

// Policy carries the platform-side percentages. They are service
// configuration, not part of any site's tariff.
type Policy struct {
	ServiceFeePercent float64
	TaxPercent        float64
}

// minorUnitDigits lists currencies whose minor unit is not two digits.
var minorUnitDigits = map[string]int{
	"JPY": 0,
	"KRW": 0,
	"BHD": 3,
	"KWD": 3,
}

// Round rounds an amount half-up to the currency's minor-unit precision.
func Round(amount float64, currency string) float64 {
	digits := 2
	if d, ok := minorUnitDigits[currency]; ok {
		digits = d
	}
	scale := math.Pow(10, float64(digits))
	return math.Floor(amount*scale+0.5) / scale
}

// Calculate prices the half-open stay [checkIn, checkOut). Each line item
// is rounded to the currency's minor unit and the total is the exact sum of
// the rounded lines.
func Calculate(tariff models.Tariff, rules models.BookingRules, checkIn, checkOut time.Time, guests, pets, vehicles int, policy Policy) (*models.PriceBreakdown, error) {
	nights := models.NightsBetween(checkIn, checkOut)
	if nights < 1 {
		return nil, fmt.Errorf("%w: check-out must be after check-in", models.ErrInvalidStay)
	}
	if nights < rules.MinNights {
		return nil, fmt.Errorf("%w: minimum stay is %d nights", models.ErrInvalidStay, rules.MinNights)
	}
	if rules.MaxNights > 0 && nights > rules.MaxNights {
		return nil, fmt.Errorf("%w: maximum stay is %d nights", models.ErrInvalidStay, rules.MaxNights)
	}

	cur := tariff.Currency

	var subtotal float64
	for d := models.DateOnly(checkIn); d.Before(models.DateOnly(checkOut)); d = d.AddDate(0, 0, 1) {
		subtotal += nightlyRate(tariff, d)
	}
	subtotal = Round(subtotal, cur)

	discount := Round(subtotal*discountPercent(tariff, nights)/100, cur)

	extraGuestFee := 0.0
	if extra := guests - tariff.IncludedGuests; extra > 0 {
		extraGuestFee = Round(float64(extra)*tariff.ExtraGuestFee, cur)
	}
	petFee := Round(float64(pets)*tariff.PetFee, cur)
	vehicleFee := Round(float64(vehicles)*tariff.VehicleFee, cur)
	cleaningFee := Round(tariff.CleaningFee, cur)

	serviceFee := Round((subtotal+extraGuestFee+petFee+vehicleFee)*policy.ServiceFeePercent/100, cur)
	tax := Round((subtotal-discount+cleaningFee+extraGuestFee+petFee+vehicleFee+serviceFee)*policy.TaxPercent/100, cur)

	total := Round(subtotal-discount+cleaningFee+petFee+extraGuestFee+vehicleFee+serviceFee+tax, cur)

	return &models.PriceBreakdown{
		Currency:      cur,
		Nights:        nights,
		Subtotal:      subtotal,
		Discount:      discount,
		CleaningFee:   cleaningFee,
		ExtraGuestFee: extraGuestFee,
		PetFee:        petFee,
		VehicleFee:    vehicleFee,
		ServiceFee:    serviceFee,
		Tax:           tax,
		Total:         total,
	}, nil
}

// nightlyRate resolves the rate for one night: first matching seasonal
// window wins, then the weekend price, then the base price.
func nightlyRate(tariff models.Tariff, night time.Time) float64 {
	for _, season := range tariff.Seasons {
		if season.Covers(night) {
			return season.Price
		}
	}
	if tariff.WeekendPrice > 0 && isWeekendNight(night) {
		return tariff.WeekendPrice
	}
	return tariff.BasePrice
}

// Weekend nights are Friday and Saturday: the nights guests actually pay a
// premium for, since a Sunday night rolls into a working Monday.
func isWeekendNight(night time.Time) bool {
	wd := night.Weekday()
	return wd == time.Friday || wd == time.Saturday
}

// discountPercent picks the long-stay discount. Weekly and monthly are
// mutually exclusive; the larger eligible threshold wins.
func discountPercent(tariff models.Tariff, nights int) float64 {
	if nights >= 28 && tariff.MonthlyDiscountPercent > 0 {
		return tariff.MonthlyDiscountPercent
	}
	if nights >= 7 && tariff.WeeklyDiscountPercent > 0 {
		return tariff.WeeklyDiscountPercent
	}
	return 0
}
