package dto

import (
	"time"

	"villarent/internal/domain/availability"
)

type CalendarBlock struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

type BlackoutDate struct {
	ID        string    `json:"id"`
	VillaID   string    `json:"villa_id"`
	Date      string    `json:"date"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type BlackoutCollection struct {
	Items []BlackoutDate `json:"items"`
}

// Calendar lists booked ranges and blackout days; booking references stay private.
type Calendar struct {
	VillaID   string          `json:"villa_id"`
	Blocks    []CalendarBlock `json:"blocks"`
	Blackouts []string        `json:"blackout_dates"`
}

func MapCalendar(villaID string, blocks []availability.Block, blackouts []*availability.Blackout) Calendar {
	out := Calendar{
		VillaID:   villaID,
		Blocks:    make([]CalendarBlock, 0, len(blocks)),
		Blackouts: make([]string, 0, len(blackouts)),
	}
	for _, b := range blocks {
		out.Blocks = append(out.Blocks, CalendarBlock{
			From:   b.Range.CheckIn.Format(time.DateOnly),
			To:     b.Range.CheckOut.Format(time.DateOnly),
			Reason: string(b.Reason),
		})
	}
	for _, b := range blackouts {
		out.Blackouts = append(out.Blackouts, b.Date.Format(time.DateOnly))
	}
	return out
}

func MapBlackout(b *availability.Blackout) BlackoutDate {
	return BlackoutDate{
		ID:        string(b.ID),
		VillaID:   string(b.VillaID),
		Date:      b.Date.Format(time.DateOnly),
		Note:      b.Note,
		CreatedAt: b.CreatedAt,
	}
}

func MapBlackouts(items []*availability.Blackout) BlackoutCollection {
	out := make([]BlackoutDate, 0, len(items))
	for _, b := range items {
		out = append(out, MapBlackout(b))
	}
	return BlackoutCollection{Items: out}
}
