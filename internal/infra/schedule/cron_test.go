package schedule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAddRejectsBadSpec(t *testing.T) {
	s := NewScheduler(quietLogger())
	if err := s.Add(Job{Name: "bad", Spec: "every minute", Run: func(context.Context) error { return nil }}); err == nil {
		t.Fatal("expected parse error")
	}
	if _, ok := s.Next("bad"); ok {
		t.Fatal("rejected job should not be registered")
	}
}

func TestNextReportsRegisteredJob(t *testing.T) {
	s := NewScheduler(quietLogger())
	if err := s.Add(Job{Name: "complete-stays", Spec: "0 5 0 * * *", Run: func(context.Context) error { return nil }}); err != nil {
		t.Fatalf("add: %v", err)
	}
	s.Start()
	defer s.Stop()
	next, ok := s.Next("complete-stays")
	if !ok || next.IsZero() {
		t.Fatalf("next = %v %v", next, ok)
	}
	if next.Hour() != 0 || next.Minute() != 5 || next.Location() != time.UTC {
		t.Fatalf("next run at %v", next)
	}
}

func TestJobsRunAndStopCancelsThem(t *testing.T) {
	s := NewScheduler(quietLogger())
	var runs atomic.Int32
	cancelled := make(chan struct{}, 1)
	err := s.Add(Job{
		Name: "tick",
		Spec: "@every 1s",
		Run: func(ctx context.Context) error {
			runs.Add(1)
			<-ctx.Done()
			cancelled <- struct{}{}
			return ctx.Err()
		},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	s.Start()

	deadline := time.After(3 * time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("job never ran")
		case <-time.After(20 * time.Millisecond):
		}
	}
	s.Stop()
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("running job was not cancelled")
	}
	if runs.Load() != 1 {
		t.Fatalf("a blocked job must not overlap itself, runs = %d", runs.Load())
	}
}

func TestJobTimeout(t *testing.T) {
	s := NewScheduler(quietLogger())
	done := make(chan error, 1)
	s.runOnce(Job{
		Name:    "slow",
		Timeout: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			done <- ctx.Err()
			return ctx.Err()
		},
	})
	if err := <-done; !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}
