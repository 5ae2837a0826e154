package events

import (
	"testing"
	"time"
)

type stub struct{ name string }

func (s stub) EventName() string     { return s.name }
func (s stub) AggregateID() string   { return "villa-1" }
func (s stub) OccurredAt() time.Time { return time.Time{} }

func TestCategory(t *testing.T) {
	cases := map[string]string{
		"booking.confirmed":              "booking",
		"calendar.overbooking_prevented": "calendar",
		"villa":                          "villa",
		".odd":                           ".odd",
	}
	for in, want := range cases {
		if got := Category(in); got != want {
			t.Errorf("Category(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRecorderDrain(t *testing.T) {
	var r EventRecorder
	r.Record(stub{"calendar.blocked"})
	r.Record(nil)
	r.Record(stub{"calendar.released"})

	snapshot := r.PendingEvents()
	snapshot[0] = stub{"tampered"}
	drained := r.DrainEvents()
	if len(drained) != 2 || drained[0].EventName() != "calendar.blocked" {
		t.Fatalf("drained = %v", drained)
	}
	if len(r.PendingEvents()) != 0 || len(r.DrainEvents()) != 0 {
		t.Fatal("recorder not empty after drain")
	}
}
