package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	domainpricing "villarent/internal/domain/pricing"
	domainvillas "villarent/internal/domain/villas"
)

type RuleRepository struct {
	db *gorm.DB
}

func (r RuleRepository) ByID(ctx context.Context, villaID domainvillas.VillaID, id domainpricing.RuleID) (*domainpricing.Rule, error) {
	var m ruleModel
	err := conn(ctx, r.db).Where("id = ? AND villa_id = ?", string(id), string(villaID)).First(&m).Error
	if err != nil {
		if notFound(err) {
			return nil, domainpricing.ErrRuleNotFound
		}
		return nil, storeErr(err)
	}
	return m.toRule(), nil
}

func (r RuleRepository) ListByVilla(ctx context.Context, villaID domainvillas.VillaID) ([]*domainpricing.Rule, error) {
	return r.find(conn(ctx, r.db).Where("villa_id = ?", string(villaID)))
}

func (r RuleRepository) Intersecting(ctx context.Context, villaID domainvillas.VillaID, from, to time.Time) ([]*domainpricing.Rule, error) {
	return r.find(conn(ctx, r.db).Where("villa_id = ? AND starts_on <= ? AND ends_on >= ?", string(villaID), to, from))
}

func (r RuleRepository) find(q *gorm.DB) ([]*domainpricing.Rule, error) {
	var rows []ruleModel
	if err := q.Order("starts_on, id").Find(&rows).Error; err != nil {
		return nil, storeErr(err)
	}
	out := make([]*domainpricing.Rule, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toRule())
	}
	return out, nil
}

func (r RuleRepository) Save(ctx context.Context, rule *domainpricing.Rule) error {
	m := toRuleModel(rule)
	return storeErr(conn(ctx, r.db).Save(&m).Error)
}

func (r RuleRepository) Delete(ctx context.Context, villaID domainvillas.VillaID, id domainpricing.RuleID) error {
	res := conn(ctx, r.db).Where("id = ? AND villa_id = ?", string(id), string(villaID)).Delete(&ruleModel{})
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return domainpricing.ErrRuleNotFound
	}
	return nil
}

func (r RuleRepository) DeleteByVilla(ctx context.Context, villaID domainvillas.VillaID) error {
	return storeErr(conn(ctx, r.db).Where("villa_id = ?", string(villaID)).Delete(&ruleModel{}).Error)
}
