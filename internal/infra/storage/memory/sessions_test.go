package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"villarent/internal/domain/auth"
)

func TestSessionStoreUsesInjectedClock(t *testing.T) {
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	store := NewSessionStore(func() time.Time { return now })
	ctx := context.Background()
	session, err := auth.NewSession(auth.CreateSessionParams{Token: "vrs_a", UserID: "u1", Role: "admin", TTL: time.Hour, Now: now})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.Get(ctx, "vrs_a"); err != nil {
		t.Fatalf("session issued at a past instant must be live on that clock: %v", err)
	}
	now = now.Add(time.Hour)
	if _, err := store.Get(ctx, "vrs_a"); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expired session: %v", err)
	}
}
