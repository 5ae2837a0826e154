package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"villarent/internal/app/apperr"
	"villarent/internal/app/commands"
	"villarent/internal/app/identity"
)

type mapStore struct {
	mu      sync.Mutex
	records map[string]IdempotencyRecord
}

func (s *mapStore) Get(_ context.Context, key string) (IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	return rec, ok, nil
}

func (s *mapStore) Reserve(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; ok {
		return false, nil
	}
	if s.records == nil {
		s.records = map[string]IdempotencyRecord{}
	}
	s.records[key] = IdempotencyRecord{Key: key, Pending: true}
	return true, nil
}

func (s *mapStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[key]; ok && rec.Pending {
		delete(s.records, key)
	}
	return nil
}

func (s *mapStore) Save(_ context.Context, rec IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records == nil {
		s.records = map[string]IdempotencyRecord{}
	}
	rec.Pending = false
	s.records[rec.Key] = rec
	return nil
}

type receipt struct {
	Number int `json:"number"`
}

type issueReceipt struct {
	key string
}

func (issueReceipt) Key() string              { return "test.issue_receipt" }
func (c issueReceipt) IdempotencyKey() string { return c.key }
func (issueReceipt) ResultPrototype() any     { return &receipt{} }

type purgeAll struct{}

func (purgeAll) Key() string { return "test.purge_all" }
func (purgeAll) AdminOnly()  {}

func TestIdempotencyReplaysResult(t *testing.T) {
	calls := 0
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, commands.HandlerFunc[issueReceipt, *receipt](func(context.Context, issueReceipt) (*receipt, error) {
		calls++
		return &receipt{Number: calls}, nil
	}))
	chained := ChainCommands(bus, Idempotency(&mapStore{}, nil))
	ctx := context.Background()

	first, err := commands.Dispatch[issueReceipt, *receipt](ctx, chained, issueReceipt{key: "k1"})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	again, err := commands.Dispatch[issueReceipt, *receipt](ctx, chained, issueReceipt{key: "k1"})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if calls != 1 || first.Number != again.Number {
		t.Fatalf("calls = %d, first = %d, replay = %d", calls, first.Number, again.Number)
	}
	if _, err := commands.Dispatch[issueReceipt, *receipt](ctx, chained, issueReceipt{}); err != nil || calls != 2 {
		t.Fatalf("keyless command should run: calls = %d err = %v", calls, err)
	}
}

func TestIdempotencyRemembersOnlyFinalErrors(t *testing.T) {
	var outcome error
	calls := 0
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, commands.HandlerFunc[issueReceipt, *receipt](func(context.Context, issueReceipt) (*receipt, error) {
		calls++
		return nil, outcome
	}))
	chained := ChainCommands(bus, Idempotency(&mapStore{}, nil))
	ctx := context.Background()

	outcome = apperr.Unavailable(errors.New("db down"))
	if _, err := commands.Dispatch[issueReceipt, *receipt](ctx, chained, issueReceipt{key: "k"}); !apperr.Retryable(err) {
		t.Fatalf("err = %v", err)
	}
	outcome = apperr.Wrap(apperr.KindConflict, errors.New("taken"))
	if _, err := commands.Dispatch[issueReceipt, *receipt](ctx, chained, issueReceipt{key: "k"}); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("err = %v", err)
	}
	outcome = nil
	_, err := commands.Dispatch[issueReceipt, *receipt](ctx, chained, issueReceipt{key: "k"})
	if apperr.KindOf(err) != apperr.KindConflict || calls != 2 {
		t.Fatalf("replayed err = %v, calls = %d", err, calls)
	}
}

func TestIdempotencyRunsConcurrentFirstRequestsOnce(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var mu sync.Mutex
	calls := 0
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, commands.HandlerFunc[issueReceipt, *receipt](func(context.Context, issueReceipt) (*receipt, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		started <- struct{}{}
		<-release
		return &receipt{Number: 1}, nil
	}))
	chained := ChainCommands(bus, Idempotency(&mapStore{}, nil))
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := commands.Dispatch[issueReceipt, *receipt](ctx, chained, issueReceipt{key: "same"})
		done <- err
	}()
	<-started
	_, err := commands.Dispatch[issueReceipt, *receipt](ctx, chained, issueReceipt{key: "same"})
	if !errors.Is(err, ErrRequestInFlight) || apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("second request while first runs: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first: %v", err)
	}
	again, err := commands.Dispatch[issueReceipt, *receipt](ctx, chained, issueReceipt{key: "same"})
	if err != nil || again.Number != 1 {
		t.Fatalf("replay after finish: %v %v", again, err)
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times", calls)
	}
}

func TestAuthorizationGuardsAdminCommands(t *testing.T) {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, commands.HandlerFunc[purgeAll, struct{}](func(context.Context, purgeAll) (struct{}, error) {
		return struct{}{}, nil
	}))
	chained := ChainCommands(bus, Authorization(RoleAuthorizer{}))

	if _, err := chained.Dispatch(context.Background(), purgeAll{}); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("anonymous: %v", err)
	}
	guest := identity.WithPrincipal(context.Background(), identity.Principal{UserID: "u1", Role: "guest"})
	if _, err := chained.Dispatch(guest, purgeAll{}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("guest: %v", err)
	}
	admin := identity.WithPrincipal(context.Background(), identity.Principal{UserID: "u2", Role: "admin"})
	if _, err := chained.Dispatch(admin, purgeAll{}); err != nil {
		t.Fatalf("admin: %v", err)
	}
}
