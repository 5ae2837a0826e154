// Package apperr classifies application errors into the kinds exposed to
// callers. Domain packages keep their own sentinels; KindOf maps them.
package apperr

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"villarent/internal/domain/auth"
	"villarent/internal/domain/availability"
	"villarent/internal/domain/booking"
	"villarent/internal/domain/pricing"
	"villarent/internal/domain/shared/daterange"
	"villarent/internal/domain/user"
	"villarent/internal/domain/villas"
)

type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindValidation         Kind = "validation_error"
	KindInvalidDateRange   Kind = "invalid_date_range"
	KindCapacityExceeded   Kind = "capacity_exceeded"
	KindBlackedOut         Kind = "blacked_out"
	KindConflict           Kind = "conflict"
	KindAlreadyCancelled   Kind = "already_cancelled"
	KindTooLateToCancel    Kind = "too_late_to_cancel"
	KindPriceMismatch      Kind = "price_mismatch"
	KindInvalidState       Kind = "invalid_state"
	KindServiceUnavailable Kind = "service_unavailable"
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindInternal           Kind = "internal"
)

var (
	ErrUnavailable  = errors.New("apperr: datastore unavailable")
	ErrUnauthorized = errors.New("apperr: authentication required")
	ErrForbidden    = errors.New("apperr: admin role required")
)

// Error attaches an explicit kind to an underlying error.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

func Validation(err error) error {
	return Wrap(KindValidation, err)
}

// Unavailable marks a datastore failure as retryable.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrUnavailable, err)
}

// Retryable reports whether the caller may simply try again.
func Retryable(err error) bool {
	return KindOf(err) == KindServiceUnavailable
}

func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var explicit *Error
	if errors.As(err, &explicit) {
		return explicit.Kind
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return KindValidation
	}
	for _, m := range table {
		for _, target := range m.errs {
			if errors.Is(err, target) {
				return m.kind
			}
		}
	}
	return KindInternal
}

type mapping struct {
	kind Kind
	errs []error
}

// Order matters: the first matching group wins.
var table = []mapping{
	{KindServiceUnavailable, []error{ErrUnavailable, context.DeadlineExceeded}},
	{KindUnauthorized, []error{ErrUnauthorized, auth.ErrSessionNotFound, auth.ErrTokenRequired}},
	{KindForbidden, []error{ErrForbidden}},
	{KindNotFound, []error{
		villas.ErrNotFound, villas.ErrImageNotFound, booking.ErrNotFound, pricing.ErrRuleNotFound,
		availability.ErrBlackoutNotFound, user.ErrNotFound,
	}},
	{KindCapacityExceeded, []error{availability.ErrCapacityExceeded}},
	{KindInvalidDateRange, []error{daterange.ErrInvalidRange, pricing.ErrInvalidNights}},
	{KindBlackedOut, []error{availability.ErrBlackedOut}},
	{KindConflict, []error{
		availability.ErrConflict, availability.ErrOverlappingRange, availability.ErrConcurrentUpdate,
		booking.ErrConcurrentUpdate, villas.ErrSlugTaken, villas.ErrActiveBookings,
		availability.ErrBlackoutDuplicate, user.ErrEmailAlreadyUsed,
	}},
	{KindAlreadyCancelled, []error{booking.ErrAlreadyCancelled}},
	{KindTooLateToCancel, []error{booking.ErrTooLateToCancel}},
	{KindPriceMismatch, []error{booking.ErrPriceMismatch}},
	{KindInvalidState, []error{booking.ErrInvalidState}},
	{KindValidation, []error{
		availability.ErrInvalidGuests, booking.ErrGuestName, booking.ErrGuestEmail, booking.ErrGuestPhone,
		booking.ErrInvalidGuests, booking.ErrNegativeTotal,
		villas.ErrInvalidSlug, villas.ErrNameRequired, villas.ErrLocationMissing, villas.ErrMaxGuests,
		villas.ErrRooms, villas.ErrBasePrice, villas.ErrRating,
		villas.ErrImageTooLarge, villas.ErrImageEmpty, villas.ErrImageType, villas.ErrImageKeyRequired,
		pricing.ErrRuleWindow, pricing.ErrRuleKind, pricing.ErrRuleNights, pricing.ErrRulePercentage,
		user.ErrEmailRequired, user.ErrNameRequired, user.ErrInvalidRole,
	}},
}
