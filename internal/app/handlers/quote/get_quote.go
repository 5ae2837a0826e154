package quote

import (
	"context"
	"time"

	"villarent/internal/app/dto"
	"villarent/internal/app/handlers/support"
	"villarent/internal/app/queries"
	quotesvc "villarent/internal/app/services/quote"
	"villarent/internal/app/uow"
	domainvillas "villarent/internal/domain/villas"
)

const getQuoteKey = "quotes.get"

type GetQuoteQuery struct {
	VillaID  string    `validate:"required"`
	CheckIn  time.Time `validate:"required"`
	CheckOut time.Time `validate:"required"`
	Guests   int
}

func (q GetQuoteQuery) Key() string { return getQuoteKey }

// GetQuoteHandler prices a stay without reserving anything. Two identical
// queries against unchanged data return identical quotes.
type GetQuoteHandler struct {
	UoWFactory uow.UoWFactory
	Calculator quotesvc.Calculator
}

func (h *GetQuoteHandler) Handle(ctx context.Context, q GetQuoteQuery) (dto.Quote, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Quote{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	res, err := h.Calculator.Quote(execCtx, unit, quotesvc.Request{
		VillaID:  domainvillas.VillaID(q.VillaID),
		CheckIn:  q.CheckIn,
		CheckOut: q.CheckOut,
		Guests:   q.Guests,
	})
	if err != nil {
		return dto.Quote{}, err
	}
	return dto.MapQuote(res.Villa, res.Range, res.Guests, res.Breakdown), nil
}

var _ queries.Handler[GetQuoteQuery, dto.Quote] = (*GetQuoteHandler)(nil)
