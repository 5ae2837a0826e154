package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainpricing "villarent/internal/domain/pricing"
	domainvillas "villarent/internal/domain/villas"
)

type RuleRepository struct {
	col *mongo.Collection
}

func NewRuleRepository(db *mongo.Database) *RuleRepository {
	return &RuleRepository{col: db.Collection(rulesCollection)}
}

func (r *RuleRepository) ByID(ctx context.Context, villaID domainvillas.VillaID, id domainpricing.RuleID) (*domainpricing.Rule, error) {
	var doc ruleDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id), "villa_id": string(villaID)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpricing.ErrRuleNotFound
		}
		return nil, storeErr(err)
	}
	return doc.toRule(), nil
}

func (r *RuleRepository) ListByVilla(ctx context.Context, villaID domainvillas.VillaID) ([]*domainpricing.Rule, error) {
	return r.find(ctx, bson.M{"villa_id": string(villaID)})
}

// Intersecting returns rules whose inclusive window touches [from, to].
func (r *RuleRepository) Intersecting(ctx context.Context, villaID domainvillas.VillaID, from, to time.Time) ([]*domainpricing.Rule, error) {
	return r.find(ctx, bson.M{
		"villa_id":  string(villaID),
		"starts_on": bson.M{"$lte": to.UnixMilli()},
		"ends_on":   bson.M{"$gte": from.UnixMilli()},
	})
}

func (r *RuleRepository) find(ctx context.Context, filter bson.M) ([]*domainpricing.Rule, error) {
	opts := options.Find().SetSort(bson.D{{Key: "starts_on", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeErr(err)
	}
	var docs []ruleDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeErr(err)
	}
	out := make([]*domainpricing.Rule, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toRule())
	}
	return out, nil
}

func (r *RuleRepository) Save(ctx context.Context, rule *domainpricing.Rule) error {
	doc := newRuleDocument(rule)
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return storeErr(err)
}

func (r *RuleRepository) Delete(ctx context.Context, villaID domainvillas.VillaID, id domainpricing.RuleID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id), "villa_id": string(villaID)})
	if err != nil {
		return storeErr(err)
	}
	if res.DeletedCount == 0 {
		return domainpricing.ErrRuleNotFound
	}
	return nil
}

func (r *RuleRepository) DeleteByVilla(ctx context.Context, villaID domainvillas.VillaID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"villa_id": string(villaID)})
	return storeErr(err)
}

type ruleDocument struct {
	ID        string  `bson:"_id"`
	VillaID   string  `bson:"villa_id"`
	StartsOn  int64   `bson:"starts_on"`
	EndsOn    int64   `bson:"ends_on"`
	Kind      string  `bson:"kind"`
	Value     float64 `bson:"value"`
	MinNights int     `bson:"min_nights"`
	MaxNights int     `bson:"max_nights"`
	CreatedAt int64   `bson:"created_at"`
}

func newRuleDocument(r *domainpricing.Rule) ruleDocument {
	return ruleDocument{
		ID:        string(r.ID),
		VillaID:   string(r.VillaID),
		StartsOn:  r.StartsOn.UnixMilli(),
		EndsOn:    r.EndsOn.UnixMilli(),
		Kind:      string(r.Kind),
		Value:     r.Value,
		MinNights: r.MinNights,
		MaxNights: r.MaxNights,
		CreatedAt: r.CreatedAt.UnixMilli(),
	}
}

func (d ruleDocument) toRule() *domainpricing.Rule {
	return &domainpricing.Rule{
		ID:        domainpricing.RuleID(d.ID),
		VillaID:   domainvillas.VillaID(d.VillaID),
		StartsOn:  timestampToTime(d.StartsOn),
		EndsOn:    timestampToTime(d.EndsOn),
		Kind:      domainpricing.Kind(d.Kind),
		Value:     d.Value,
		MinNights: d.MinNights,
		MaxNights: d.MaxNights,
		CreatedAt: timestampToTime(d.CreatedAt),
	}
}
