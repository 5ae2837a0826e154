package availability

import (
	"context"
	"errors"
	"strings"
	"time"

	"villarent/internal/domain/shared/daterange"
	"villarent/internal/domain/villas"
)

var (
	ErrBlackoutNotFound  = errors.New("availability: blackout date not found")
	ErrBlackoutDuplicate = errors.New("availability: blackout date already exists")
)

type BlackoutID string

// Blackout marks one calendar day on which a villa cannot be booked.
type Blackout struct {
	ID        BlackoutID
	VillaID   villas.VillaID
	Date      time.Time
	Note      string
	CreatedAt time.Time
}

type BlackoutRepository interface {
	ListByVilla(ctx context.Context, villaID villas.VillaID) ([]*Blackout, error)
	// Between returns blackouts with from <= date <= to.
	Between(ctx context.Context, villaID villas.VillaID, from, to time.Time) ([]*Blackout, error)
	// Save fails with ErrBlackoutDuplicate when the villa already has that date.
	Save(ctx context.Context, blackout *Blackout) error
	Delete(ctx context.Context, villaID villas.VillaID, id BlackoutID) error
	DeleteByVilla(ctx context.Context, villaID villas.VillaID) error
}

func NewBlackout(id BlackoutID, villaID villas.VillaID, date time.Time, note string, now time.Time) (*Blackout, error) {
	if strings.TrimSpace(string(id)) == "" || strings.TrimSpace(string(villaID)) == "" {
		return nil, errors.New("availability: blackout and villa ids are required")
	}
	if date.IsZero() {
		return nil, errors.New("availability: blackout date is required")
	}
	return &Blackout{
		ID:        id,
		VillaID:   villaID,
		Date:      daterange.Day(date),
		Note:      strings.TrimSpace(note),
		CreatedAt: now.UTC(),
	}, nil
}
