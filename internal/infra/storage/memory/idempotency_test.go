package memory

import (
	"context"
	"testing"
	"time"

	"villarent/internal/app/middleware"
)

func TestIdempotencyReservation(t *testing.T) {
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	s := NewIdempotencyStore(time.Hour)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if ok, _ := s.Reserve(ctx, "k", time.Minute); !ok {
		t.Fatal("first claim refused")
	}
	if ok, _ := s.Reserve(ctx, "k", time.Minute); ok {
		t.Fatal("live claim taken twice")
	}
	_ = s.Release(ctx, "k")
	if ok, _ := s.Reserve(ctx, "k", time.Minute); !ok {
		t.Fatal("released key not reclaimable")
	}

	now = now.Add(2 * time.Minute)
	if ok, _ := s.Reserve(ctx, "k", time.Minute); !ok {
		t.Fatal("abandoned claim not taken over")
	}
	_ = s.Save(ctx, middleware.IdempotencyRecord{Key: "k", Payload: []byte(`{}`)})
	if ok, _ := s.Reserve(ctx, "k", time.Minute); ok {
		t.Fatal("finished record overwritten")
	}
	_ = s.Release(ctx, "k")
	if rec, found, _ := s.Get(ctx, "k"); !found || rec.Pending {
		t.Fatalf("release dropped a finished record: %+v %v", rec, found)
	}

	now = now.Add(2 * time.Hour)
	if ok, _ := s.Reserve(ctx, "k", time.Minute); !ok {
		t.Fatal("expired record not reclaimable")
	}
}
