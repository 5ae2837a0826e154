package villas

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"villarent/internal/app/commands"
	"villarent/internal/app/dto"
	"villarent/internal/app/handlers/support"
	"villarent/internal/app/queries"
	"villarent/internal/app/uow"
	domainpricing "villarent/internal/domain/pricing"
)

const (
	listPricingRulesKey  = "admin.villas.pricing_rules.list"
	createPricingRuleKey = "admin.villas.pricing_rules.create"
	deletePricingRuleKey = "admin.villas.pricing_rules.delete"
)

type ListPricingRulesQuery struct {
	VillaID string `validate:"required"`
}

func (q ListPricingRulesQuery) Key() string { return listPricingRulesKey }

func (ListPricingRulesQuery) AdminOnly() {}

type ListPricingRulesHandler struct {
	UoWFactory uow.UoWFactory
	Timeout    time.Duration
}

func (h *ListPricingRulesHandler) Handle(ctx context.Context, q ListPricingRulesQuery) (dto.PricingRuleCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PricingRuleCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	villa, err := loadVilla(execCtx, unit, h.Timeout, q.VillaID)
	if err != nil {
		return dto.PricingRuleCollection{}, err
	}
	rules, err := uow.Bounded(execCtx, h.Timeout, func(ctx context.Context) ([]*domainpricing.Rule, error) {
		return unit.PricingRules().ListByVilla(ctx, villa.ID)
	})
	if err != nil {
		return dto.PricingRuleCollection{}, err
	}
	return dto.MapPricingRules(rules), nil
}

type CreatePricingRuleCommand struct {
	VillaID   string    `validate:"required"`
	StartsOn  time.Time `validate:"required"`
	EndsOn    time.Time `validate:"required"`
	Kind      string    `validate:"required,oneof=percentage flat"`
	Value     float64
	MinNights int `validate:"gte=0"`
	MaxNights int `validate:"gte=0"`
}

func (c CreatePricingRuleCommand) Key() string { return createPricingRuleKey }

func (CreatePricingRuleCommand) AdminOnly() {}

type CreatePricingRuleHandler struct {
	Timeout time.Duration
	Logger  *slog.Logger
	Now     func() time.Time
}

func (h *CreatePricingRuleHandler) Handle(ctx context.Context, cmd CreatePricingRuleCommand) (*dto.PricingRule, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	villa, err := loadVilla(ctx, unit, h.Timeout, cmd.VillaID)
	if err != nil {
		return nil, err
	}
	rule, err := domainpricing.NewRule(domainpricing.RuleParams{
		ID:        domainpricing.RuleID(uuid.NewString()),
		VillaID:   villa.ID,
		StartsOn:  cmd.StartsOn,
		EndsOn:    cmd.EndsOn,
		Kind:      cmd.Kind,
		Value:     cmd.Value,
		MinNights: cmd.MinNights,
		MaxNights: cmd.MaxNights,
		Now:       nowFrom(h.Now),
	})
	if err != nil {
		return nil, err
	}
	if _, err := uow.Bounded(ctx, h.Timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, unit.PricingRules().Save(ctx, rule)
	}); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("pricing rule created", "villa_id", villa.ID, "rule_id", rule.ID, "type", rule.Kind)
	}
	out := dto.MapPricingRule(rule)
	return &out, nil
}

type DeletePricingRuleCommand struct {
	VillaID string `validate:"required"`
	RuleID  string `validate:"required"`
}

func (c DeletePricingRuleCommand) Key() string { return deletePricingRuleKey }

func (DeletePricingRuleCommand) AdminOnly() {}

type DeletePricingRuleHandler struct {
	Timeout time.Duration
}

func (h *DeletePricingRuleHandler) Handle(ctx context.Context, cmd DeletePricingRuleCommand) (*struct{}, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	villa, err := loadVilla(ctx, unit, h.Timeout, cmd.VillaID)
	if err != nil {
		return nil, err
	}
	if _, err := uow.Bounded(ctx, h.Timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, unit.PricingRules().Delete(ctx, villa.ID, domainpricing.RuleID(cmd.RuleID))
	}); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

var _ queries.Handler[ListPricingRulesQuery, dto.PricingRuleCollection] = (*ListPricingRulesHandler)(nil)
var _ commands.Handler[CreatePricingRuleCommand, *dto.PricingRule] = (*CreatePricingRuleHandler)(nil)
var _ commands.Handler[DeletePricingRuleCommand, *struct{}] = (*DeletePricingRuleHandler)(nil)
