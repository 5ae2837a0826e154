package dto

import (
	"time"

	domainbooking "villarent/internal/domain/booking"
	domainvillas "villarent/internal/domain/villas"
)

type BookingVillaSnapshot struct {
	ID       string `json:"id"`
	Slug     string `json:"slug,omitempty"`
	Name     string `json:"name,omitempty"`
	Location string `json:"location,omitempty"`
}

type Booking struct {
	ID             string               `json:"id"`
	Reference      string               `json:"reference"`
	Villa          BookingVillaSnapshot `json:"villa"`
	GuestName      string               `json:"guest_name"`
	GuestEmail     string               `json:"guest_email"`
	GuestPhone     string               `json:"guest_phone"`
	CheckIn        string               `json:"check_in"`
	CheckOut       string               `json:"check_out"`
	Nights         int                  `json:"nights"`
	Guests         int                  `json:"guests"`
	Total          MoneyDTO             `json:"total_price"`
	Status         string               `json:"status"`
	SpecialRequest string               `json:"special_requests,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

type BookingCollection struct {
	Items []Booking `json:"items"`
	Total int       `json:"total"`
}

// NotificationStatus reports which confirmation messages went out.
type NotificationStatus struct {
	Guest bool `json:"guest_email_sent"`
	Admin bool `json:"admin_email_sent"`
}

type BookingCreated struct {
	BookingID     string             `json:"booking_id"`
	Reference     string             `json:"reference"`
	Status        string             `json:"status"`
	Total         MoneyDTO           `json:"total_price"`
	Notifications NotificationStatus `json:"notifications"`
}

func MapBooking(b *domainbooking.Booking, v *domainvillas.Villa) Booking {
	snapshot := BookingVillaSnapshot{ID: string(b.VillaID)}
	if v != nil {
		snapshot.Slug = v.Slug
		snapshot.Name = v.Name
		snapshot.Location = v.Location
	}
	return Booking{
		ID:             string(b.ID),
		Reference:      b.Reference,
		Villa:          snapshot,
		GuestName:      b.Guest.Name,
		GuestEmail:     b.Guest.Email,
		GuestPhone:     b.Guest.Phone,
		CheckIn:        b.Range.CheckIn.Format(time.DateOnly),
		CheckOut:       b.Range.CheckOut.Format(time.DateOnly),
		Nights:         b.Range.Nights(),
		Guests:         b.Guests,
		Total:          MapMoney(b.Total),
		Status:         string(b.Status),
		SpecialRequest: b.SpecialRequest,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}
