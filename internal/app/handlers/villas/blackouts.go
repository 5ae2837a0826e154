package villas

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"villarent/internal/app/commands"
	"villarent/internal/app/dto"
	"villarent/internal/app/handlers/support"
	"villarent/internal/app/queries"
	"villarent/internal/app/uow"
	"villarent/internal/domain/availability"
)

const (
	listBlackoutsKey  = "admin.villas.blackouts.list"
	createBlackoutKey = "admin.villas.blackouts.create"
	deleteBlackoutKey = "admin.villas.blackouts.delete"
)

type ListBlackoutsQuery struct {
	VillaID string `validate:"required"`
}

func (q ListBlackoutsQuery) Key() string { return listBlackoutsKey }

func (ListBlackoutsQuery) AdminOnly() {}

type ListBlackoutsHandler struct {
	UoWFactory uow.UoWFactory
	Timeout    time.Duration
}

func (h *ListBlackoutsHandler) Handle(ctx context.Context, q ListBlackoutsQuery) (dto.BlackoutCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BlackoutCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	villa, err := loadVilla(execCtx, unit, h.Timeout, q.VillaID)
	if err != nil {
		return dto.BlackoutCollection{}, err
	}
	items, err := uow.Bounded(execCtx, h.Timeout, func(ctx context.Context) ([]*availability.Blackout, error) {
		return unit.Blackouts().ListByVilla(ctx, villa.ID)
	})
	if err != nil {
		return dto.BlackoutCollection{}, err
	}
	return dto.MapBlackouts(items), nil
}

type CreateBlackoutCommand struct {
	VillaID string    `validate:"required"`
	Date    time.Time `validate:"required"`
	Note    string    `validate:"max=300"`
}

func (c CreateBlackoutCommand) Key() string { return createBlackoutKey }

func (CreateBlackoutCommand) AdminOnly() {}

// CreateBlackoutHandler blocks one day. Existing bookings on that day are
// left alone; only new stays are rejected.
type CreateBlackoutHandler struct {
	Timeout time.Duration
	Logger  *slog.Logger
	Now     func() time.Time
}

func (h *CreateBlackoutHandler) Handle(ctx context.Context, cmd CreateBlackoutCommand) (*dto.BlackoutDate, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	villa, err := loadVilla(ctx, unit, h.Timeout, cmd.VillaID)
	if err != nil {
		return nil, err
	}
	b, err := availability.NewBlackout(availability.BlackoutID(uuid.NewString()), villa.ID, cmd.Date, cmd.Note, nowFrom(h.Now))
	if err != nil {
		return nil, err
	}
	if _, err := uow.Bounded(ctx, h.Timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, unit.Blackouts().Save(ctx, b)
	}); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("blackout date added", "villa_id", villa.ID, "date", b.Date.Format(time.DateOnly))
	}
	out := dto.MapBlackout(b)
	return &out, nil
}

type DeleteBlackoutCommand struct {
	VillaID    string `validate:"required"`
	BlackoutID string `validate:"required"`
}

func (c DeleteBlackoutCommand) Key() string { return deleteBlackoutKey }

func (DeleteBlackoutCommand) AdminOnly() {}

type DeleteBlackoutHandler struct {
	Timeout time.Duration
}

func (h *DeleteBlackoutHandler) Handle(ctx context.Context, cmd DeleteBlackoutCommand) (*struct{}, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	villa, err := loadVilla(ctx, unit, h.Timeout, cmd.VillaID)
	if err != nil {
		return nil, err
	}
	if _, err := uow.Bounded(ctx, h.Timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, unit.Blackouts().Delete(ctx, villa.ID, availability.BlackoutID(cmd.BlackoutID))
	}); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

var _ queries.Handler[ListBlackoutsQuery, dto.BlackoutCollection] = (*ListBlackoutsHandler)(nil)
var _ commands.Handler[CreateBlackoutCommand, *dto.BlackoutDate] = (*CreateBlackoutHandler)(nil)
var _ commands.Handler[DeleteBlackoutCommand, *struct{}] = (*DeleteBlackoutHandler)(nil)
