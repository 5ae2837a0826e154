package dto

import (
	"time"

	domainpricing "villarent/internal/domain/pricing"
)

type PricingRule struct {
	ID        string    `json:"id"`
	VillaID   string    `json:"villa_id"`
	StartsOn  string    `json:"starts_on"`
	EndsOn    string    `json:"ends_on"`
	Kind      string    `json:"type"`
	Value     float64   `json:"value"`
	MinNights int       `json:"min_nights,omitempty"`
	MaxNights int       `json:"max_nights,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type PricingRuleCollection struct {
	Items []PricingRule `json:"items"`
}

func MapPricingRule(r *domainpricing.Rule) PricingRule {
	return PricingRule{
		ID:        string(r.ID),
		VillaID:   string(r.VillaID),
		StartsOn:  r.StartsOn.Format(time.DateOnly),
		EndsOn:    r.EndsOn.Format(time.DateOnly),
		Kind:      string(r.Kind),
		Value:     r.Value,
		MinNights: r.MinNights,
		MaxNights: r.MaxNights,
		CreatedAt: r.CreatedAt,
	}
}

func MapPricingRules(rules []*domainpricing.Rule) PricingRuleCollection {
	items := make([]PricingRule, 0, len(rules))
	for _, r := range rules {
		items = append(items, MapPricingRule(r))
	}
	return PricingRuleCollection{Items: items}
}
