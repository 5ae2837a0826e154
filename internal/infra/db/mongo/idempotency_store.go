package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"villarent/internal/app/middleware"
)

type IdempotencyStore struct {
	col *mongo.Collection
	ttl time.Duration
}

// NewIdempotencyStore keeps command outcomes for ttl; Mongo expires them.
func NewIdempotencyStore(ctx context.Context, db *mongo.Database, ttl time.Duration) (*IdempotencyStore, error) {
	col := db.Collection("app_idempotency")
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())),
	}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, err
	}
	return &IdempotencyStore{col: col, ttl: ttl}, nil
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var doc idempotencyDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, storeErr(err)
	}
	return doc.toRecord(), true, nil
}

// Reserve relies on the unique _id: the first insert wins. A claim left by a
// crashed request, or a record the TTL monitor has not reaped yet, is taken over.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string, lease time.Duration) (bool, error) {
	now := time.Now().UTC()
	doc := idempotencyDocument{ID: key, Pending: true, OccurredAt: now, CreatedAt: now}
	_, err := s.col.InsertOne(ctx, doc)
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, storeErr(err)
	}
	filter := bson.M{"_id": key, "$or": bson.A{
		bson.M{"pending": true, "created_at": bson.M{"$lt": now.Add(-lease)}},
		bson.M{"created_at": bson.M{"$lte": now.Add(-s.ttl)}},
	}}
	res, err := s.col.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return false, storeErr(err)
	}
	return res.ModifiedCount == 1, nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": key, "pending": true})
	return storeErr(err)
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	doc := idempotencyDocument{
		ID:         rec.Key,
		Payload:    rec.Payload,
		Error:      rec.Error,
		ErrorKind:  rec.ErrorKind,
		Pending:    false,
		OccurredAt: rec.OccurredAt,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return storeErr(err)
}

type idempotencyDocument struct {
	ID         string    `bson:"_id"`
	Payload    []byte    `bson:"payload"`
	Error      string    `bson:"error"`
	ErrorKind  string    `bson:"error_kind"`
	Pending    bool      `bson:"pending"`
	OccurredAt time.Time `bson:"occurred_at"`
	CreatedAt  time.Time `bson:"created_at"`
}

func (d idempotencyDocument) toRecord() middleware.IdempotencyRecord {
	return middleware.IdempotencyRecord{
		Key:        d.ID,
		Payload:    d.Payload,
		Error:      d.Error,
		ErrorKind:  d.ErrorKind,
		Pending:    d.Pending,
		OccurredAt: d.OccurredAt,
	}
}
