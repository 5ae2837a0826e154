package memory

import (
	"context"
	"sort"
	"time"

	domainavailability "villarent/internal/domain/availability"
	"villarent/internal/domain/shared/daterange"
	domainvillas "villarent/internal/domain/villas"
)

type blackoutRepo struct{ u *Unit }

func (r blackoutRepo) ListByVilla(ctx context.Context, villaID domainvillas.VillaID) ([]*domainavailability.Blackout, error) {
	return r.collect(func(b *domainavailability.Blackout) bool { return b.VillaID == villaID }), nil
}

func (r blackoutRepo) Between(ctx context.Context, villaID domainvillas.VillaID, from, to time.Time) ([]*domainavailability.Blackout, error) {
	from, to = daterange.Day(from), daterange.Day(to)
	return r.collect(func(b *domainavailability.Blackout) bool {
		return b.VillaID == villaID && !b.Date.Before(from) && !b.Date.After(to)
	}), nil
}

func (r blackoutRepo) collect(keep func(*domainavailability.Blackout) bool) []*domainavailability.Blackout {
	var out []*domainavailability.Blackout
	r.u.store.read(func(s *state) {
		for _, b := range s.blackouts {
			if keep(b) {
				out = append(out, cloneBlackout(b))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (r blackoutRepo) Save(ctx context.Context, blackout *domainavailability.Blackout) error {
	stored := cloneBlackout(blackout)
	return r.u.stage(op{
		check: func(s *state) error {
			for id, b := range s.blackouts {
				if id != stored.ID && b.VillaID == stored.VillaID && b.Date.Equal(stored.Date) {
					return domainavailability.ErrBlackoutDuplicate
				}
			}
			return nil
		},
		apply: func(s *state) { s.blackouts[stored.ID] = stored },
	})
}

func (r blackoutRepo) Delete(ctx context.Context, villaID domainvillas.VillaID, id domainavailability.BlackoutID) error {
	return r.u.stage(op{
		check: func(s *state) error {
			if b, ok := s.blackouts[id]; !ok || b.VillaID != villaID {
				return domainavailability.ErrBlackoutNotFound
			}
			return nil
		},
		apply: func(s *state) { delete(s.blackouts, id) },
	})
}

func (r blackoutRepo) DeleteByVilla(ctx context.Context, villaID domainvillas.VillaID) error {
	return r.u.stage(op{apply: func(s *state) {
		for id, b := range s.blackouts {
			if b.VillaID == villaID {
				delete(s.blackouts, id)
			}
		}
	}})
}

type calendarRepo struct{ u *Unit }

func (r calendarRepo) Calendar(ctx context.Context, id domainvillas.VillaID) (*domainavailability.Calendar, error) {
	cal := domainavailability.NewCalendar(id)
	r.u.store.read(func(s *state) {
		if rec, ok := s.calendars[id]; ok {
			cal.Blocks = cloneBlocks(rec.blocks)
			cal.Version = rec.version
		}
	})
	return cal, nil
}

// Save commits only if nobody else saved this calendar since it was read.
func (r calendarRepo) Save(ctx context.Context, calendar *domainavailability.Calendar) error {
	expected := calendar.Version
	next := calendarRecord{blocks: cloneBlocks(calendar.Blocks), version: expected + 1}
	id := calendar.VillaID
	return r.u.stage(op{
		check: func(s *state) error {
			if s.calendars[id].version != expected {
				return domainavailability.ErrConcurrentUpdate
			}
			return nil
		},
		apply: func(s *state) {
			s.calendars[id] = next
			calendar.Version = next.version
		},
	})
}

func (r calendarRepo) Delete(ctx context.Context, id domainvillas.VillaID) error {
	return r.u.stage(op{apply: func(s *state) { delete(s.calendars, id) }})
}
