package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"villarent/internal/app/uow"
	"villarent/internal/infra/config"
	infraoutbox "villarent/internal/infra/outbox"
)

const fixtureJSON = `[
  {
    "slug": "villa-sawah",
    "name": "Villa Sawah",
    "location": "Ubud, Bali",
    "bedrooms": 3,
    "bathrooms": 2,
    "max_guests": 6,
    "base_price": 2500000,
    "amenities": ["pool", "wifi"],
    "images": [{"url": "https://cdn.test/sawah-1.jpg"}, {"url": "https://cdn.test/sawah-2.jpg"}],
    "pricing_rules": [{"starts_on": "2025-12-20", "ends_on": "2026-01-05", "type": "percentage", "value": 30}],
    "blackout_dates": [{"date": "2025-09-01", "note": "renovasi"}]
  },
  {
    "slug": "Not A Slug",
    "name": "Broken",
    "location": "Nowhere",
    "max_guests": 2
  }
]`

func TestLoadFixturesIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "villas.json")
	if err := os.WriteFile(path, []byte(fixtureJSON), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := NewMemoryBackend(config.Config{IdempotencyTTL: time.Hour}, infraoutbox.NewSignal())
	ctx := context.Background()

	n, err := LoadFixtures(ctx, b.UoW, path, logger)
	if err != nil || n != 1 {
		t.Fatalf("first load: n=%d err=%v", n, err)
	}
	n, err = LoadFixtures(ctx, b.UoW, path, logger)
	if err != nil || n != 0 {
		t.Fatalf("second load: n=%d err=%v", n, err)
	}

	unit, err := b.UoW.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer unit.Rollback(ctx)
	villa, err := unit.Villas().BySlug(ctx, "villa-sawah")
	if err != nil {
		t.Fatalf("villa: %v", err)
	}
	if !villa.IsActive() || villa.BasePrice.Amount != 2_500_000 {
		t.Fatalf("villa = %+v", villa)
	}
	images, err := unit.Images().ListByVilla(ctx, villa.ID)
	if err != nil || len(images) != 2 {
		t.Fatalf("images = %d, err = %v", len(images), err)
	}
	primaries := 0
	for _, img := range images {
		if img.Primary {
			primaries++
		}
		if img.Hosted() || img.URL == "" {
			t.Fatalf("seeded image should be external: %+v", img)
		}
	}
	if primaries != 1 {
		t.Fatalf("primary images = %d", primaries)
	}
	rules, _ := unit.PricingRules().ListByVilla(ctx, villa.ID)
	blackouts, _ := unit.Blackouts().ListByVilla(ctx, villa.ID)
	if len(rules) != 1 || len(blackouts) != 1 {
		t.Fatalf("rules = %d, blackouts = %d", len(rules), len(blackouts))
	}
}

func TestLoadFixturesMissingFile(t *testing.T) {
	b := NewMemoryBackend(config.Config{}, infraoutbox.NewSignal())
	n, err := LoadFixtures(context.Background(), b.UoW, filepath.Join(t.TempDir(), "absent.json"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil || n != 0 {
		t.Fatalf("n=%d err=%v", n, err)
	}
}
