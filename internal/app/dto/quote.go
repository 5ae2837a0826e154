package dto

import (
	"time"

	domainpricing "villarent/internal/domain/pricing"
	"villarent/internal/domain/shared/daterange"
	domainvillas "villarent/internal/domain/villas"
)

type Quote struct {
	VillaID           string       `json:"villa_id"`
	VillaName         string       `json:"villa_name"`
	CheckIn           string       `json:"check_in"`
	CheckOut          string       `json:"check_out"`
	Nights            int          `json:"nights"`
	Guests            int          `json:"guests"`
	BasePricePerNight MoneyDTO     `json:"base_price_per_night"`
	Subtotal          MoneyDTO     `json:"subtotal"`
	Adjustment        MoneyDTO     `json:"adjustment"`
	Total             MoneyDTO     `json:"total"`
	AppliedRule       *PricingRule `json:"applied_rule,omitempty"`
}

func MapQuote(v *domainvillas.Villa, dr daterange.DateRange, guests int, b domainpricing.Breakdown) Quote {
	q := Quote{
		VillaID:           string(v.ID),
		VillaName:         v.Name,
		CheckIn:           dr.CheckIn.Format(time.DateOnly),
		CheckOut:          dr.CheckOut.Format(time.DateOnly),
		Nights:            b.Nights,
		Guests:            guests,
		BasePricePerNight: MapMoney(b.Nightly),
		Subtotal:          MapMoney(b.Subtotal),
		Adjustment:        MapMoney(b.Adjustment),
		Total:             MapMoney(b.Total),
	}
	if b.AppliedRule != nil {
		rule := MapPricingRule(b.AppliedRule)
		q.AppliedRule = &rule
	}
	return q
}
