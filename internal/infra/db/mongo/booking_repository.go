package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "villarent/internal/domain/booking"
	"villarent/internal/domain/shared/daterange"
	domainvillas "villarent/internal/domain/villas"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(bookingsCollection)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

func (r *BookingRepository) ByReference(ctx context.Context, reference string) (*domainbooking.Booking, error) {
	return r.findOne(ctx, bson.M{"reference": reference})
}

func (r *BookingRepository) findOne(ctx context.Context, filter bson.M) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, storeErr(err)
	}
	return doc.toAggregate(), nil
}

// Insert relies on the unique reference index.
func (r *BookingRepository) Insert(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	doc.Version = 1
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainbooking.ErrDuplicateReference
		}
		return storeErr(err)
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc})
	if err != nil {
		if isWriteConflict(err) {
			return domainbooking.ErrConcurrentUpdate
		}
		return storeErr(err)
	}
	if res.MatchedCount == 0 {
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByGuestEmail(ctx context.Context, email string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"guest.email": email}, options.Find())
}

func (r *BookingRepository) List(ctx context.Context, filter domainbooking.ListFilter) ([]*domainbooking.Booking, int, error) {
	q := bson.M{}
	if filter.Status != "" {
		q["status"] = string(filter.Status)
	}
	if filter.VillaID != "" {
		q["villa_id"] = string(filter.VillaID)
	}
	total, err := r.col.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	opts := options.Find().SetSkip(int64(max(filter.Offset, 0)))
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	items, err := r.find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	return items, int(total), nil
}

func (r *BookingRepository) ConfirmedOverlapping(ctx context.Context, villaID domainvillas.VillaID, dr daterange.DateRange) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{
		"villa_id":        string(villaID),
		"status":          string(domainbooking.StatusConfirmed),
		"range.check_in":  bson.M{"$lt": dr.CheckOut.UnixMilli()},
		"range.check_out": bson.M{"$gt": dr.CheckIn.UnixMilli()},
	}, options.Find())
}

func (r *BookingRepository) HasActive(ctx context.Context, villaID domainvillas.VillaID) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{
		"villa_id": string(villaID),
		"status": bson.M{"$in": bson.A{
			string(domainbooking.StatusPending), string(domainbooking.StatusConfirmed),
		}},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, storeErr(err)
	}
	return n > 0, nil
}

func (r *BookingRepository) DueForCompletion(ctx context.Context, day time.Time, limit int) ([]*domainbooking.Booking, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, bson.M{
		"status":          string(domainbooking.StatusConfirmed),
		"range.check_out": bson.M{"$lte": daterange.Day(day).UnixMilli()},
	}, opts)
}

// find returns matches newest first.
func (r *BookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainbooking.Booking, error) {
	opts.SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeErr(err)
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeErr(err)
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

type guestDocument struct {
	Name   string `bson:"name"`
	Email  string `bson:"email"`
	Phone  string `bson:"phone"`
	UserID string `bson:"user_id,omitempty"`
}

type bookingDocument struct {
	ID             string        `bson:"_id"`
	Reference      string        `bson:"reference"`
	VillaID        string        `bson:"villa_id"`
	Guest          guestDocument `bson:"guest"`
	Range          rangeDocument `bson:"range"`
	Guests         int           `bson:"guests"`
	Total          moneyDocument `bson:"total"`
	Status         string        `bson:"status"`
	SpecialRequest string        `bson:"special_requests"`
	CreatedAt      int64         `bson:"created_at"`
	UpdatedAt      int64         `bson:"updated_at"`
	Version        int64         `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:        string(b.ID),
		Reference: b.Reference,
		VillaID:   string(b.VillaID),
		Guest: guestDocument{
			Name:   b.Guest.Name,
			Email:  b.Guest.Email,
			Phone:  b.Guest.Phone,
			UserID: b.Guest.UserID,
		},
		Range:          rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Guests:         b.Guests,
		Total:          toMoneyDocument(b.Total),
		Status:         string(b.Status),
		SpecialRequest: b.SpecialRequest,
		CreatedAt:      b.CreatedAt.UnixMilli(),
		UpdatedAt:      b.UpdatedAt.UnixMilli(),
		Version:        b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:        domainbooking.BookingID(d.ID),
		Reference: d.Reference,
		VillaID:   domainvillas.VillaID(d.VillaID),
		Guest: domainbooking.Guest{
			Name:   d.Guest.Name,
			Email:  d.Guest.Email,
			Phone:  d.Guest.Phone,
			UserID: d.Guest.UserID,
		},
		Range:          d.Range.toRange(),
		Guests:         d.Guests,
		Total:          d.Total.toMoney(),
		Status:         domainbooking.Status(d.Status),
		SpecialRequest: d.SpecialRequest,
		CreatedAt:      timestampToTime(d.CreatedAt),
		UpdatedAt:      timestampToTime(d.UpdatedAt),
		Version:        d.Version,
	}
}
