package policies

import (
	"context"
	"time"
)

// BookingSummary is the data a confirmation message needs.
type BookingSummary struct {
	Reference      string
	VillaName      string
	VillaLocation  string
	GuestName      string
	GuestEmail     string
	GuestPhone     string
	CheckIn        time.Time
	CheckOut       time.Time
	Nights         int
	Guests         int
	TotalAmount    int64
	Currency       string
	SpecialRequest string
}

// BookingNotifier delivers booking confirmations. Failures never undo a booking.
type BookingNotifier interface {
	SendGuestConfirmation(ctx context.Context, summary BookingSummary) error
	SendAdminAlert(ctx context.Context, summary BookingSummary) error
}

// ImageStore keeps uploaded villa photos.
type ImageStore interface {
	Upload(ctx context.Context, objectKey string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, objectKey string) error
}
