package memory

import (
	domainavailability "villarent/internal/domain/availability"
	domainbooking "villarent/internal/domain/booking"
	domainpricing "villarent/internal/domain/pricing"
	"villarent/internal/domain/shared/events"
	domainvillas "villarent/internal/domain/villas"
)

// Stored values never carry pending events and are never handed out by
// pointer, so callers can mutate what they read until they save it.

func cloneVilla(v *domainvillas.Villa) *domainvillas.Villa {
	out := *v
	out.Amenities = append([]string(nil), v.Amenities...)
	out.Features = append([]string(nil), v.Features...)
	out.EventRecorder = events.EventRecorder{}
	return &out
}

func cloneImage(img *domainvillas.Image) *domainvillas.Image {
	out := *img
	return &out
}

func cloneRule(r *domainpricing.Rule) *domainpricing.Rule {
	out := *r
	return &out
}

func cloneBlackout(b *domainavailability.Blackout) *domainavailability.Blackout {
	out := *b
	return &out
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	out := *b
	out.EventRecorder = events.EventRecorder{}
	return &out
}

func cloneBlocks(blocks []domainavailability.Block) []domainavailability.Block {
	return append([]domainavailability.Block(nil), blocks...)
}
