package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"villarent/internal/app/apperr"
)

const (
	villasCollection    = "villas"
	imagesCollection    = "villa_images"
	rulesCollection     = "pricing_rules"
	blackoutsCollection = "blackout_dates"
	calendarsCollection = "calendars"
	bookingsCollection  = "bookings"
	usersCollection     = "users"
)

const writeConflictCode = 112

// ErrConcurrentUpdate reports a version filter that matched nothing.
var ErrConcurrentUpdate = apperr.Wrap(apperr.KindConflict, errors.New("mongo: concurrent update detected"))

// storeErr marks connectivity failures as retryable and passes the rest on.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) ||
		errors.Is(err, context.DeadlineExceeded) {
		return apperr.Unavailable(err)
	}
	var labeled mongo.LabeledError
	if errors.As(err, &labeled) && labeled.HasErrorLabel(mongo.TransientTransactionError) && !isWriteConflict(err) {
		return apperr.Unavailable(err)
	}
	return err
}

// isWriteConflict reports a transaction that lost a race on the same document.
func isWriteConflict(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(writeConflictCode)
}

func bson1(key string) bson.D {
	return bson.D{{Key: key, Value: 1}}
}

func bson2(a, b string) bson.D {
	return bson.D{{Key: a, Value: 1}, {Key: b, Value: 1}}
}
