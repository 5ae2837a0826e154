package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "villarent/internal/domain/availability"
	"villarent/internal/domain/shared/daterange"
	domainvillas "villarent/internal/domain/villas"
)

type BlackoutRepository struct {
	col *mongo.Collection
}

func NewBlackoutRepository(db *mongo.Database) *BlackoutRepository {
	return &BlackoutRepository{col: db.Collection(blackoutsCollection)}
}

func (r *BlackoutRepository) ListByVilla(ctx context.Context, villaID domainvillas.VillaID) ([]*domainavailability.Blackout, error) {
	return r.find(ctx, bson.M{"villa_id": string(villaID)})
}

// Between is inclusive on both days.
func (r *BlackoutRepository) Between(ctx context.Context, villaID domainvillas.VillaID, from, to time.Time) ([]*domainavailability.Blackout, error) {
	return r.find(ctx, bson.M{
		"villa_id": string(villaID),
		"date": bson.M{
			"$gte": daterange.Day(from).UnixMilli(),
			"$lte": daterange.Day(to).UnixMilli(),
		},
	})
}

func (r *BlackoutRepository) find(ctx context.Context, filter bson.M) ([]*domainavailability.Blackout, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, storeErr(err)
	}
	var docs []blackoutDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeErr(err)
	}
	out := make([]*domainavailability.Blackout, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toBlackout())
	}
	return out, nil
}

func (r *BlackoutRepository) Save(ctx context.Context, b *domainavailability.Blackout) error {
	doc := blackoutDocument{
		ID:        string(b.ID),
		VillaID:   string(b.VillaID),
		Date:      b.Date.UnixMilli(),
		Note:      b.Note,
		CreatedAt: b.CreatedAt.UnixMilli(),
	}
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return domainavailability.ErrBlackoutDuplicate
	}
	return storeErr(err)
}

func (r *BlackoutRepository) Delete(ctx context.Context, villaID domainvillas.VillaID, id domainavailability.BlackoutID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id), "villa_id": string(villaID)})
	if err != nil {
		return storeErr(err)
	}
	if res.DeletedCount == 0 {
		return domainavailability.ErrBlackoutNotFound
	}
	return nil
}

func (r *BlackoutRepository) DeleteByVilla(ctx context.Context, villaID domainvillas.VillaID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"villa_id": string(villaID)})
	return storeErr(err)
}

type blackoutDocument struct {
	ID        string `bson:"_id"`
	VillaID   string `bson:"villa_id"`
	Date      int64  `bson:"date"`
	Note      string `bson:"note"`
	CreatedAt int64  `bson:"created_at"`
}

func (d blackoutDocument) toBlackout() *domainavailability.Blackout {
	return &domainavailability.Blackout{
		ID:        domainavailability.BlackoutID(d.ID),
		VillaID:   domainvillas.VillaID(d.VillaID),
		Date:      timestampToTime(d.Date),
		Note:      d.Note,
		CreatedAt: timestampToTime(d.CreatedAt),
	}
}

// CalendarRepository stores one document per villa holding its booked
// blocks. The version filter on Save serialises reservations per villa.
type CalendarRepository struct {
	col *mongo.Collection
}

func NewCalendarRepository(db *mongo.Database) *CalendarRepository {
	return &CalendarRepository{col: db.Collection(calendarsCollection)}
}

func (r *CalendarRepository) Calendar(ctx context.Context, id domainvillas.VillaID) (*domainavailability.Calendar, error) {
	var doc calendarDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domainavailability.NewCalendar(id), nil
		}
		return nil, storeErr(err)
	}
	return doc.toCalendar(), nil
}

func (r *CalendarRepository) Save(ctx context.Context, cal *domainavailability.Calendar) error {
	blocks := make([]blockDocument, 0, len(cal.Blocks))
	for _, b := range cal.Blocks {
		blocks = append(blocks, blockDocument{
			Range:     rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
			Reason:    string(b.Reason),
			Reference: b.Reference,
			CreatedAt: b.CreatedAt.UnixMilli(),
		})
	}
	next := cal.Version + 1
	filter := bson.M{"_id": string(cal.VillaID), "version": cal.Version}
	update := bson.M{"$set": bson.M{"blocks": blocks, "version": next}}
	res, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) || isWriteConflict(err) {
			return domainavailability.ErrConcurrentUpdate
		}
		return storeErr(err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainavailability.ErrConcurrentUpdate
	}
	cal.Version = next
	return nil
}

func (r *CalendarRepository) Delete(ctx context.Context, id domainvillas.VillaID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	return storeErr(err)
}

type calendarDocument struct {
	ID      string          `bson:"_id"`
	Blocks  []blockDocument `bson:"blocks"`
	Version int64           `bson:"version"`
}

type blockDocument struct {
	Range     rangeDocument `bson:"range"`
	Reason    string        `bson:"reason"`
	Reference string        `bson:"reference"`
	CreatedAt int64         `bson:"created_at"`
}

func (d calendarDocument) toCalendar() *domainavailability.Calendar {
	cal := domainavailability.NewCalendar(domainvillas.VillaID(d.ID))
	cal.Version = d.Version
	for _, b := range d.Blocks {
		cal.Blocks = append(cal.Blocks, domainavailability.Block{
			Range:     b.Range.toRange(),
			Reason:    domainavailability.BlockReason(b.Reason),
			Reference: b.Reference,
			CreatedAt: timestampToTime(b.CreatedAt),
		})
	}
	return cal
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

func (d rangeDocument) toRange() daterange.DateRange {
	return daterange.DateRange{CheckIn: timestampToTime(d.CheckIn), CheckOut: timestampToTime(d.CheckOut)}
}
