package villas

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"villarent/internal/app/commands"
	"villarent/internal/app/dto"
	"villarent/internal/app/handlers/support"
	"villarent/internal/app/outbox"
	"villarent/internal/app/policies"
	"villarent/internal/app/uow"
	domainvillas "villarent/internal/domain/villas"
)

const (
	createVillaKey = "admin.villas.create"
	updateVillaKey = "admin.villas.update"
	deleteVillaKey = "admin.villas.delete"
)

// VillaPayload is the editable villa data sent by the back office.
type VillaPayload struct {
	Slug        string   `validate:"required,max=120"`
	Name        string   `validate:"required,max=200"`
	Description string   `validate:"max=10000"`
	Location    string   `validate:"required,max=200"`
	Bedrooms    int      `validate:"gte=0"`
	Bathrooms   int      `validate:"gte=0"`
	MaxGuests   int      `validate:"gte=1"`
	BasePrice   int64    `validate:"gte=0"`
	Amenities   []string `validate:"dive,max=80"`
	Features    []string `validate:"dive,max=200"`
	Rating      float64  `validate:"gte=0,lte=5"`
	Active      bool
}

func (p VillaPayload) details() domainvillas.Details {
	return domainvillas.Details{
		Slug:        p.Slug,
		Name:        p.Name,
		Description: p.Description,
		Location:    p.Location,
		Bedrooms:    p.Bedrooms,
		Bathrooms:   p.Bathrooms,
		MaxGuests:   p.MaxGuests,
		BasePrice:   p.BasePrice,
		Amenities:   p.Amenities,
		Features:    p.Features,
		Rating:      p.Rating,
		Active:      p.Active,
	}
}

type CreateVillaCommand struct {
	Payload VillaPayload
}

func (c CreateVillaCommand) Key() string { return createVillaKey }

func (CreateVillaCommand) AdminOnly() {}

type CreateVillaHandler struct {
	Outbox  outbox.Outbox
	Timeout time.Duration
	Logger  *slog.Logger
	Now     func() time.Time
}

func (h *CreateVillaHandler) Handle(ctx context.Context, cmd CreateVillaCommand) (*dto.VillaDetail, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	villa, err := domainvillas.New(domainvillas.VillaID(uuid.NewString()), cmd.Payload.details(), nowFrom(h.Now))
	if err != nil {
		return nil, err
	}
	if err := ensureSlugFree(ctx, unit, h.Timeout, villa); err != nil {
		return nil, err
	}
	if err := saveVilla(ctx, unit, h.Outbox, h.Timeout, villa); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("villa created", "villa_id", villa.ID, "slug", villa.Slug)
	}
	detail := dto.MapVillaDetail(villa, nil)
	return &detail, nil
}

type UpdateVillaCommand struct {
	VillaID string `validate:"required"`
	Payload VillaPayload
}

func (c UpdateVillaCommand) Key() string { return updateVillaKey }

func (UpdateVillaCommand) AdminOnly() {}

type UpdateVillaHandler struct {
	Outbox  outbox.Outbox
	Timeout time.Duration
	Logger  *slog.Logger
	Now     func() time.Time
}

func (h *UpdateVillaHandler) Handle(ctx context.Context, cmd UpdateVillaCommand) (*dto.VillaDetail, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	villa, err := loadVilla(ctx, unit, h.Timeout, cmd.VillaID)
	if err != nil {
		return nil, err
	}
	if err := villa.Update(cmd.Payload.details(), nowFrom(h.Now)); err != nil {
		return nil, err
	}
	if err := ensureSlugFree(ctx, unit, h.Timeout, villa); err != nil {
		return nil, err
	}
	if err := saveVilla(ctx, unit, h.Outbox, h.Timeout, villa); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("villa updated", "villa_id", villa.ID)
	}
	detail, err := villaDetail(ctx, unit, h.Timeout, villa)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

type DeleteVillaCommand struct {
	VillaID string `validate:"required"`
}

func (c DeleteVillaCommand) Key() string { return deleteVillaKey }

func (DeleteVillaCommand) AdminOnly() {}

// DeleteVillaHandler refuses while the villa has pending or confirmed
// bookings. Otherwise it removes the villa with its images, pricing rules,
// blackout dates and calendar. Bookings are kept.
type DeleteVillaHandler struct {
	Images  policies.ImageStore
	Outbox  outbox.Outbox
	Timeout time.Duration
	Logger  *slog.Logger
	Now     func() time.Time
}

func (h *DeleteVillaHandler) Handle(ctx context.Context, cmd DeleteVillaCommand) (*struct{}, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	villa, err := loadVilla(ctx, unit, h.Timeout, cmd.VillaID)
	if err != nil {
		return nil, err
	}
	active, err := uow.Bounded(ctx, h.Timeout, func(ctx context.Context) (bool, error) {
		return unit.Bookings().HasActive(ctx, villa.ID)
	})
	if err != nil {
		return nil, err
	}
	if active {
		return nil, domainvillas.ErrActiveBookings
	}
	images, err := uow.Bounded(ctx, h.Timeout, func(ctx context.Context) ([]*domainvillas.Image, error) {
		return unit.Images().ListByVilla(ctx, villa.ID)
	})
	if err != nil {
		return nil, err
	}

	_, err = uow.Bounded(ctx, h.Timeout, func(ctx context.Context) (struct{}, error) {
		for _, img := range images {
			if err := unit.Images().Delete(ctx, villa.ID, img.ID); err != nil && !errors.Is(err, domainvillas.ErrImageNotFound) {
				return struct{}{}, err
			}
		}
		if err := unit.PricingRules().DeleteByVilla(ctx, villa.ID); err != nil {
			return struct{}{}, err
		}
		if err := unit.Blackouts().DeleteByVilla(ctx, villa.ID); err != nil {
			return struct{}{}, err
		}
		if err := unit.Calendars().Delete(ctx, villa.ID); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, unit.Villas().Delete(ctx, villa.ID)
	})
	if err != nil {
		return nil, err
	}
	villa.Record(domainvillas.VillaDeleted{VillaID: villa.ID, At: nowFrom(h.Now)})
	if err := outbox.Drain(ctx, h.Outbox, villa); err != nil {
		return nil, err
	}

	for _, img := range images {
		removeObject(ctx, h.Images, h.Logger, img)
	}
	if h.Logger != nil {
		h.Logger.Info("villa deleted", "villa_id", villa.ID, "images", len(images))
	}
	return &struct{}{}, nil
}

func ensureSlugFree(ctx context.Context, unit uow.UnitOfWork, timeout time.Duration, villa *domainvillas.Villa) error {
	existing, err := uow.Bounded(ctx, timeout, func(ctx context.Context) (*domainvillas.Villa, error) {
		return unit.Villas().BySlug(ctx, villa.Slug)
	})
	switch {
	case errors.Is(err, domainvillas.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != villa.ID:
		return domainvillas.ErrSlugTaken
	}
	return nil
}

func saveVilla(ctx context.Context, unit uow.UnitOfWork, box outbox.Outbox, timeout time.Duration, villa *domainvillas.Villa) error {
	if _, err := uow.Bounded(ctx, timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, unit.Villas().Save(ctx, villa)
	}); err != nil {
		return err
	}
	return outbox.Drain(ctx, box, villa)
}

// removeObject deletes a stored photo. A failure leaves an orphaned object
// and is only logged.
func removeObject(ctx context.Context, store policies.ImageStore, logger *slog.Logger, img *domainvillas.Image) {
	if store == nil || !img.Hosted() {
		return
	}
	if err := store.Remove(ctx, img.ObjectKey); err != nil && logger != nil {
		logger.Warn("image object removal failed", "object_key", img.ObjectKey, "error", err)
	}
}

func nowFrom(fn func() time.Time) time.Time {
	if fn != nil {
		return fn().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CreateVillaCommand, *dto.VillaDetail] = (*CreateVillaHandler)(nil)
var _ commands.Handler[UpdateVillaCommand, *dto.VillaDetail] = (*UpdateVillaHandler)(nil)
var _ commands.Handler[DeleteVillaCommand, *struct{}] = (*DeleteVillaHandler)(nil)
