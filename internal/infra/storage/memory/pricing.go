package memory

import (
	"context"
	"sort"
	"time"

	domainpricing "villarent/internal/domain/pricing"
	domainvillas "villarent/internal/domain/villas"
)

type ruleRepo struct{ u *Unit }

func (r ruleRepo) ByID(ctx context.Context, villaID domainvillas.VillaID, id domainpricing.RuleID) (*domainpricing.Rule, error) {
	var out *domainpricing.Rule
	r.u.store.read(func(s *state) {
		if rule, ok := s.rules[id]; ok && rule.VillaID == villaID {
			out = cloneRule(rule)
		}
	})
	if out == nil {
		return nil, domainpricing.ErrRuleNotFound
	}
	return out, nil
}

func (r ruleRepo) ListByVilla(ctx context.Context, villaID domainvillas.VillaID) ([]*domainpricing.Rule, error) {
	return r.collect(func(rule *domainpricing.Rule) bool { return rule.VillaID == villaID }), nil
}

func (r ruleRepo) Intersecting(ctx context.Context, villaID domainvillas.VillaID, from, to time.Time) ([]*domainpricing.Rule, error) {
	return r.collect(func(rule *domainpricing.Rule) bool {
		return rule.VillaID == villaID && !rule.StartsOn.After(to) && !rule.EndsOn.Before(from)
	}), nil
}

func (r ruleRepo) collect(keep func(*domainpricing.Rule) bool) []*domainpricing.Rule {
	var out []*domainpricing.Rule
	r.u.store.read(func(s *state) {
		for _, rule := range s.rules {
			if keep(rule) {
				out = append(out, cloneRule(rule))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartsOn.Equal(out[j].StartsOn) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartsOn.Before(out[j].StartsOn)
	})
	return out
}

func (r ruleRepo) Save(ctx context.Context, rule *domainpricing.Rule) error {
	stored := cloneRule(rule)
	return r.u.stage(op{apply: func(s *state) { s.rules[stored.ID] = stored }})
}

func (r ruleRepo) Delete(ctx context.Context, villaID domainvillas.VillaID, id domainpricing.RuleID) error {
	return r.u.stage(op{
		check: func(s *state) error {
			if rule, ok := s.rules[id]; !ok || rule.VillaID != villaID {
				return domainpricing.ErrRuleNotFound
			}
			return nil
		},
		apply: func(s *state) { delete(s.rules, id) },
	})
}

func (r ruleRepo) DeleteByVilla(ctx context.Context, villaID domainvillas.VillaID) error {
	return r.u.stage(op{apply: func(s *state) {
		for id, rule := range s.rules {
			if rule.VillaID == villaID {
				delete(s.rules, id)
			}
		}
	}})
}
