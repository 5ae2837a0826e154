package villas

import "time"

type VillaCreated struct {
	VillaID VillaID   `json:"villa_id"`
	Slug    string    `json:"slug"`
	At      time.Time `json:"at"`
}

func (e VillaCreated) EventName() string     { return "villa.created" }
func (e VillaCreated) AggregateID() string   { return string(e.VillaID) }
func (e VillaCreated) OccurredAt() time.Time { return e.At }

type VillaUpdated struct {
	VillaID VillaID   `json:"villa_id"`
	At      time.Time `json:"at"`
}

func (e VillaUpdated) EventName() string     { return "villa.updated" }
func (e VillaUpdated) AggregateID() string   { return string(e.VillaID) }
func (e VillaUpdated) OccurredAt() time.Time { return e.At }

type VillaDeleted struct {
	VillaID VillaID   `json:"villa_id"`
	At      time.Time `json:"at"`
}

func (e VillaDeleted) EventName() string     { return "villa.deleted" }
func (e VillaDeleted) AggregateID() string   { return string(e.VillaID) }
func (e VillaDeleted) OccurredAt() time.Time { return e.At }
