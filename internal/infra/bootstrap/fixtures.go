package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"villarent/internal/app/uow"
	domainavailability "villarent/internal/domain/availability"
	domainpricing "villarent/internal/domain/pricing"
	"villarent/internal/domain/shared/daterange"
	domainvillas "villarent/internal/domain/villas"
)

type villaFixture struct {
	Slug         string            `json:"slug"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Location     string            `json:"location"`
	Bedrooms     int               `json:"bedrooms"`
	Bathrooms    int               `json:"bathrooms"`
	MaxGuests    int               `json:"max_guests"`
	BasePrice    int64             `json:"base_price"`
	Amenities    []string          `json:"amenities"`
	Features     []string          `json:"features"`
	Rating       float64           `json:"rating"`
	Inactive     bool              `json:"inactive"`
	Images       []imageFixture    `json:"images"`
	PricingRules []ruleFixture     `json:"pricing_rules"`
	Blackouts    []blackoutFixture `json:"blackout_dates"`
}

type imageFixture struct {
	URL     string `json:"url"`
	Alt     string `json:"alt"`
	Primary bool   `json:"is_primary"`
}

type ruleFixture struct {
	StartsOn  string  `json:"starts_on"`
	EndsOn    string  `json:"ends_on"`
	Kind      string  `json:"type"`
	Value     float64 `json:"value"`
	MinNights int     `json:"min_nights"`
	MaxNights int     `json:"max_nights"`
}

type blackoutFixture struct {
	Date string `json:"date"`
	Note string `json:"note"`
}

// LoadFixtures seeds villas from a JSON file. Villas whose slug already
// exists are left alone, so a restart against a persistent backend is safe.
// A missing file is not an error.
func LoadFixtures(ctx context.Context, factory uow.UoWFactory, path string, logger *slog.Logger) (int, error) {
	if path == "" {
		return 0, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("villa fixtures file not found, skipping", "path", path)
			return 0, nil
		}
		return 0, fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures []villaFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return 0, fmt.Errorf("decode fixtures: %w", err)
	}
	imported := 0
	for _, fx := range fixtures {
		ok, err := importVilla(ctx, factory, fx, time.Now())
		if err != nil {
			logger.Error("villa fixture rejected", "slug", fx.Slug, "error", err)
			continue
		}
		if ok {
			imported++
			logger.Info("villa fixture imported", "slug", fx.Slug)
		}
	}
	return imported, nil
}

func importVilla(ctx context.Context, factory uow.UoWFactory, fx villaFixture, now time.Time) (bool, error) {
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()
	ctx = uow.Bind(ctx, unit)

	if _, err := unit.Villas().BySlug(ctx, fx.Slug); err == nil {
		return false, nil
	} else if !errors.Is(err, domainvillas.ErrNotFound) {
		return false, err
	}

	villa, err := domainvillas.New(domainvillas.VillaID(uuid.NewString()), domainvillas.Details{
		Slug:        fx.Slug,
		Name:        fx.Name,
		Description: fx.Description,
		Location:    fx.Location,
		Bedrooms:    fx.Bedrooms,
		Bathrooms:   fx.Bathrooms,
		MaxGuests:   fx.MaxGuests,
		BasePrice:   fx.BasePrice,
		Amenities:   fx.Amenities,
		Features:    fx.Features,
		Rating:      fx.Rating,
		Active:      !fx.Inactive,
	}, now)
	if err != nil {
		return false, err
	}
	villa.ClearEvents()
	if err := unit.Villas().Save(ctx, villa); err != nil {
		return false, err
	}

	for i, img := range fx.Images {
		id := domainvillas.ImageID(uuid.NewString())
		image := &domainvillas.Image{
			ID:        id,
			VillaID:   villa.ID,
			ObjectKey: domainvillas.ExternalKey(id),
			URL:       img.URL,
			Alt:       img.Alt,
			Primary:   img.Primary || (i == 0 && !anyPrimary(fx.Images)),
			CreatedAt: now.UTC().Add(time.Duration(i) * time.Millisecond),
			UpdatedAt: now.UTC(),
		}
		if err := unit.Images().Save(ctx, image); err != nil {
			return false, err
		}
	}
	for _, r := range fx.PricingRules {
		startsOn, err := daterange.ParseDay(r.StartsOn)
		if err != nil {
			return false, fmt.Errorf("rule start: %w", err)
		}
		endsOn, err := daterange.ParseDay(r.EndsOn)
		if err != nil {
			return false, fmt.Errorf("rule end: %w", err)
		}
		rule, err := domainpricing.NewRule(domainpricing.RuleParams{
			ID:        domainpricing.RuleID(uuid.NewString()),
			VillaID:   villa.ID,
			StartsOn:  startsOn,
			EndsOn:    endsOn,
			Kind:      r.Kind,
			Value:     r.Value,
			MinNights: r.MinNights,
			MaxNights: r.MaxNights,
			Now:       now,
		})
		if err != nil {
			return false, err
		}
		if err := unit.PricingRules().Save(ctx, rule); err != nil {
			return false, err
		}
	}
	for _, bo := range fx.Blackouts {
		day, err := daterange.ParseDay(bo.Date)
		if err != nil {
			return false, fmt.Errorf("blackout date: %w", err)
		}
		blackout, err := domainavailability.NewBlackout(domainavailability.BlackoutID(uuid.NewString()), villa.ID, day, bo.Note, now)
		if err != nil {
			return false, err
		}
		if err := unit.Blackouts().Save(ctx, blackout); err != nil {
			return false, err
		}
	}
	if err := unit.Commit(ctx); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}

func anyPrimary(images []imageFixture) bool {
	for _, img := range images {
		if img.Primary {
			return true
		}
	}
	return false
}
