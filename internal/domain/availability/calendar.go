package availability

import (
	"context"
	"errors"
	"time"

	"villarent/internal/domain/shared/daterange"
	"villarent/internal/domain/shared/events"
	"villarent/internal/domain/villas"
)

var (
	ErrOverlappingRange = errors.New("availability: range overlaps with an existing block")
	ErrRangeNotFound    = errors.New("availability: range not found")
	ErrConcurrentUpdate = errors.New("availability: calendar changed concurrently")
)

type BlockReason string

const (
	ReasonBooking BlockReason = "BOOKING"
)

type Block struct {
	Range     daterange.DateRange
	Reason    BlockReason
	Reference string
	CreatedAt time.Time
}

// Calendar is the per-villa reservation ledger. Every booking write for a
// villa goes through it, and stores persist it with an optimistic Version so
// two writers for the same villa cannot both commit.
type Calendar struct {
	VillaID villas.VillaID
	Blocks  []Block
	Version int64
	events.EventRecorder
}

type CalendarRepository interface {
	// Calendar returns the villa's calendar, creating an empty one when absent.
	Calendar(ctx context.Context, id villas.VillaID) (*Calendar, error)
	// Save fails with ErrConcurrentUpdate when the stored version moved.
	Save(ctx context.Context, calendar *Calendar) error
	Delete(ctx context.Context, id villas.VillaID) error
}

func NewCalendar(id villas.VillaID) *Calendar {
	return &Calendar{VillaID: id}
}

func (c *Calendar) CanReserve(r daterange.DateRange) bool {
	for _, block := range c.Blocks {
		if block.Range.Overlaps(r) {
			return false
		}
	}
	return true
}

// Reserve blocks r for the booking reference or fails on overlap.
func (c *Calendar) Reserve(r daterange.DateRange, reference string, now time.Time) error {
	if !c.CanReserve(r) {
		c.Record(OverbookingPrevented{VillaID: c.VillaID, Range: r, At: now.UTC()})
		return ErrOverlappingRange
	}
	c.Blocks = append(c.Blocks, Block{Range: r, Reason: ReasonBooking, Reference: reference, CreatedAt: now.UTC()})
	c.Record(CalendarBlocked{VillaID: c.VillaID, Range: r, Reference: reference, At: now.UTC()})
	return nil
}

func (c *Calendar) Release(reference string, now time.Time) error {
	idx := -1
	for i, block := range c.Blocks {
		if block.Reference == reference {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrRangeNotFound
	}
	removed := c.Blocks[idx]
	c.Blocks = append(c.Blocks[:idx], c.Blocks[idx+1:]...)
	c.Record(CalendarReleased{VillaID: c.VillaID, Range: removed.Range, Reference: reference, At: now.UTC()})
	return nil
}

// Prune drops blocks whose checkout day is on or before today. Those stays can
// no longer collide with a bookable range, and keeping them would grow the
// calendar without bound. It returns the number of blocks removed.
func (c *Calendar) Prune(today time.Time) int {
	today = daterange.Day(today)
	kept := make([]Block, 0, len(c.Blocks))
	for _, b := range c.Blocks {
		if b.Range.CheckOut.After(today) {
			kept = append(kept, b)
		}
	}
	removed := len(c.Blocks) - len(kept)
	c.Blocks = kept
	return removed
}

// Between lists blocks overlapping [from, to). A zero bound is open.
func (c *Calendar) Between(from, to time.Time) []Block {
	out := make([]Block, 0, len(c.Blocks))
	for _, b := range c.Blocks {
		if !to.IsZero() && !b.Range.CheckIn.Before(to) {
			continue
		}
		if !from.IsZero() && !b.Range.CheckOut.After(from) {
			continue
		}
		out = append(out, b)
	}
	return out
}
