package pricing

import (
	"context"
	"errors"
	"strings"
	"time"

	"villarent/internal/domain/shared/daterange"
	"villarent/internal/domain/villas"
)

var (
	ErrRuleNotFound   = errors.New("pricing: rule not found")
	ErrRuleWindow     = errors.New("pricing: starts_on must not be after ends_on")
	ErrRuleKind       = errors.New("pricing: rule type must be percentage or flat")
	ErrRuleNights     = errors.New("pricing: min nights must not exceed max nights")
	ErrRulePercentage = errors.New("pricing: percentage below -100 would make the price negative")
)

type RuleID string

type Kind string

const (
	KindPercentage Kind = "percentage"
	KindFlat       Kind = "flat"
)

// Rule adjusts the base nightly price of one villa inside an inclusive date window.
type Rule struct {
	ID        RuleID
	VillaID   villas.VillaID
	StartsOn  time.Time
	EndsOn    time.Time
	Kind      Kind
	Value     float64
	MinNights int
	MaxNights int
	CreatedAt time.Time
}

type RuleRepository interface {
	ByID(ctx context.Context, villaID villas.VillaID, id RuleID) (*Rule, error)
	ListByVilla(ctx context.Context, villaID villas.VillaID) ([]*Rule, error)
	// Intersecting returns rules with starts_on <= to and ends_on >= from.
	Intersecting(ctx context.Context, villaID villas.VillaID, from, to time.Time) ([]*Rule, error)
	Save(ctx context.Context, rule *Rule) error
	Delete(ctx context.Context, villaID villas.VillaID, id RuleID) error
	DeleteByVilla(ctx context.Context, villaID villas.VillaID) error
}

type RuleParams struct {
	ID        RuleID
	VillaID   villas.VillaID
	StartsOn  time.Time
	EndsOn    time.Time
	Kind      string
	Value     float64
	MinNights int
	MaxNights int
	Now       time.Time
}

func NewRule(p RuleParams) (*Rule, error) {
	if strings.TrimSpace(string(p.ID)) == "" || strings.TrimSpace(string(p.VillaID)) == "" {
		return nil, errors.New("pricing: rule and villa ids are required")
	}
	start, end := daterange.Day(p.StartsOn), daterange.Day(p.EndsOn)
	if p.StartsOn.IsZero() || p.EndsOn.IsZero() || start.After(end) {
		return nil, ErrRuleWindow
	}
	kind := Kind(strings.ToLower(strings.TrimSpace(p.Kind)))
	if kind != KindPercentage && kind != KindFlat {
		return nil, ErrRuleKind
	}
	if kind == KindPercentage && p.Value < -100 {
		return nil, ErrRulePercentage
	}
	if p.MinNights < 0 || p.MaxNights < 0 || (p.MaxNights > 0 && p.MinNights > p.MaxNights) {
		return nil, ErrRuleNights
	}
	return &Rule{
		ID:        p.ID,
		VillaID:   p.VillaID,
		StartsOn:  start,
		EndsOn:    end,
		Kind:      kind,
		Value:     p.Value,
		MinNights: p.MinNights,
		MaxNights: p.MaxNights,
		CreatedAt: p.Now.UTC(),
	}, nil
}

// Intersects uses the inclusive window test starts_on <= checkOut and ends_on >= checkIn.
func (r *Rule) Intersects(dr daterange.DateRange) bool {
	return dr.IntersectsWindow(r.StartsOn, r.EndsOn)
}

// AcceptsNights reports whether the stay length satisfies the optional limits.
func (r *Rule) AcceptsNights(nights int) bool {
	if r.MinNights > 0 && nights < r.MinNights {
		return false
	}
	if r.MaxNights > 0 && nights > r.MaxNights {
		return false
	}
	return true
}

// WindowDays is the inclusive length of the validity window.
func (r *Rule) WindowDays() int {
	return int(r.EndsOn.Sub(r.StartsOn).Hours()/24) + 1
}
