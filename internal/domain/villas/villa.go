package villas

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"villarent/internal/domain/shared/events"
	"villarent/internal/domain/shared/money"
)

var (
	ErrNotFound        = errors.New("villas: not found")
	ErrSlugTaken       = errors.New("villas: slug already used")
	ErrInvalidSlug     = errors.New("villas: slug must be lowercase letters, digits and dashes")
	ErrNameRequired    = errors.New("villas: name is required")
	ErrLocationMissing = errors.New("villas: location is required")
	ErrMaxGuests       = errors.New("villas: max guests must be at least 1")
	ErrRooms           = errors.New("villas: bedrooms and bathrooms must be non-negative")
	ErrBasePrice       = errors.New("villas: base price must be non-negative")
	ErrRating          = errors.New("villas: rating must be between 0 and 5")
	ErrActiveBookings  = errors.New("villas: villa has pending or confirmed bookings")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type VillaID string

type State string

const (
	StateActive   State = "ACTIVE"
	StateInactive State = "INACTIVE"
)

type Villa struct {
	ID          VillaID
	Slug        string
	Name        string
	Description string
	Location    string
	Bedrooms    int
	Bathrooms   int
	MaxGuests   int
	BasePrice   money.Money
	Amenities   []string
	Features    []string
	Rating      float64
	State       State
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id VillaID) (*Villa, error)
	BySlug(ctx context.Context, slug string) (*Villa, error)
	Save(ctx context.Context, villa *Villa) error
	Delete(ctx context.Context, id VillaID) error
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
}

// Details carries the editable attributes shared by create and update.
type Details struct {
	Slug        string
	Name        string
	Description string
	Location    string
	Bedrooms    int
	Bathrooms   int
	MaxGuests   int
	BasePrice   int64
	Amenities   []string
	Features    []string
	Rating      float64
	Active      bool
}

func (d Details) normalized() Details {
	out := d
	out.Slug = strings.ToLower(strings.TrimSpace(d.Slug))
	out.Name = strings.TrimSpace(d.Name)
	out.Description = strings.TrimSpace(d.Description)
	out.Location = strings.TrimSpace(d.Location)
	out.Amenities = cleanList(d.Amenities)
	out.Features = cleanList(d.Features)
	return out
}

func (d Details) validate() error {
	switch {
	case !slugPattern.MatchString(d.Slug):
		return ErrInvalidSlug
	case d.Name == "":
		return ErrNameRequired
	case d.Location == "":
		return ErrLocationMissing
	case d.MaxGuests < 1:
		return ErrMaxGuests
	case d.Bedrooms < 0 || d.Bathrooms < 0:
		return ErrRooms
	case d.BasePrice < 0:
		return ErrBasePrice
	case d.Rating < 0 || d.Rating > 5:
		return ErrRating
	}
	return nil
}

func New(id VillaID, details Details, now time.Time) (*Villa, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, errors.New("villas: id is required")
	}
	details = details.normalized()
	if err := details.validate(); err != nil {
		return nil, err
	}
	now = now.UTC()
	v := &Villa{ID: id, CreatedAt: now}
	v.apply(details, now)
	v.Record(VillaCreated{VillaID: v.ID, Slug: v.Slug, At: now})
	return v, nil
}

// Update replaces the editable attributes after validating them.
func (v *Villa) Update(details Details, now time.Time) error {
	details = details.normalized()
	if err := details.validate(); err != nil {
		return err
	}
	v.apply(details, now.UTC())
	v.Record(VillaUpdated{VillaID: v.ID, At: v.UpdatedAt})
	return nil
}

func (v *Villa) apply(d Details, now time.Time) {
	v.Slug = d.Slug
	v.Name = d.Name
	v.Description = d.Description
	v.Location = d.Location
	v.Bedrooms = d.Bedrooms
	v.Bathrooms = d.Bathrooms
	v.MaxGuests = d.MaxGuests
	v.BasePrice = money.IDR(d.BasePrice)
	v.Amenities = d.Amenities
	v.Features = d.Features
	v.Rating = d.Rating
	v.State = StateInactive
	if d.Active {
		v.State = StateActive
	}
	v.UpdatedAt = now
}

func (v *Villa) IsActive() bool {
	return v.State == StateActive
}

func (v *Villa) Fits(guests int) bool {
	return guests >= 1 && guests <= v.MaxGuests
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		key := strings.ToLower(val)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, val)
	}
	return out
}
