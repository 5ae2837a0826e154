package mysql

import (
	"strings"
	"time"

	"gorm.io/datatypes"

	domainavailability "villarent/internal/domain/availability"
	domainbooking "villarent/internal/domain/booking"
	domainpricing "villarent/internal/domain/pricing"
	"villarent/internal/domain/shared/daterange"
	"villarent/internal/domain/shared/money"
	"villarent/internal/domain/user"
	domainvillas "villarent/internal/domain/villas"
)

type villaModel struct {
	ID          string                      `gorm:"primaryKey;size:64"`
	Slug        string                      `gorm:"uniqueIndex;size:120"`
	Name        string                      `gorm:"size:200"`
	Description string                      `gorm:"type:text"`
	Location    string                      `gorm:"size:200;index"`
	Bedrooms    int
	Bathrooms   int
	MaxGuests   int                         `gorm:"index"`
	BasePrice   int64                       `gorm:"index"`
	Currency    string                      `gorm:"size:3"`
	Amenities   datatypes.JSONSlice[string]
	AmenityKeys datatypes.JSONSlice[string]
	Features    datatypes.JSONSlice[string]
	Rating      float64
	State       string `gorm:"size:16;index"`
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (villaModel) TableName() string { return "villas" }

func toVillaModel(v *domainvillas.Villa) villaModel {
	keys := make([]string, 0, len(v.Amenities))
	for _, a := range v.Amenities {
		keys = append(keys, strings.ToLower(a))
	}
	return villaModel{
		ID:          string(v.ID),
		Slug:        v.Slug,
		Name:        v.Name,
		Description: v.Description,
		Location:    v.Location,
		Bedrooms:    v.Bedrooms,
		Bathrooms:   v.Bathrooms,
		MaxGuests:   v.MaxGuests,
		BasePrice:   v.BasePrice.Amount,
		Currency:    v.BasePrice.Currency,
		Amenities:   v.Amenities,
		AmenityKeys: keys,
		Features:    v.Features,
		Rating:      v.Rating,
		State:       string(v.State),
		Version:     v.Version,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

func (m villaModel) toVilla() *domainvillas.Villa {
	return &domainvillas.Villa{
		ID:          domainvillas.VillaID(m.ID),
		Slug:        m.Slug,
		Name:        m.Name,
		Description: m.Description,
		Location:    m.Location,
		Bedrooms:    m.Bedrooms,
		Bathrooms:   m.Bathrooms,
		MaxGuests:   m.MaxGuests,
		BasePrice:   money.Money{Amount: m.BasePrice, Currency: m.Currency},
		Amenities:   []string(m.Amenities),
		Features:    []string(m.Features),
		Rating:      m.Rating,
		State:       domainvillas.State(m.State),
		Version:     m.Version,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type imageModel struct {
	ID          string `gorm:"primaryKey;size:64"`
	VillaID     string `gorm:"size:64;index"`
	ObjectKey   string `gorm:"size:255"`
	URL         string `gorm:"size:512"`
	Alt         string `gorm:"size:255"`
	Primary     bool
	Size        int64
	ContentType string `gorm:"size:64"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (imageModel) TableName() string { return "villa_images" }

func toImageModel(img *domainvillas.Image) imageModel {
	return imageModel{
		ID:          string(img.ID),
		VillaID:     string(img.VillaID),
		ObjectKey:   img.ObjectKey,
		URL:         img.URL,
		Alt:         img.Alt,
		Primary:     img.Primary,
		Size:        img.Size,
		ContentType: img.ContentType,
		CreatedAt:   img.CreatedAt,
		UpdatedAt:   img.UpdatedAt,
	}
}

func (m imageModel) toImage() *domainvillas.Image {
	return &domainvillas.Image{
		ID:          domainvillas.ImageID(m.ID),
		VillaID:     domainvillas.VillaID(m.VillaID),
		ObjectKey:   m.ObjectKey,
		URL:         m.URL,
		Alt:         m.Alt,
		Primary:     m.Primary,
		Size:        m.Size,
		ContentType: m.ContentType,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type ruleModel struct {
	ID        string    `gorm:"primaryKey;size:64"`
	VillaID   string    `gorm:"size:64;index:idx_rule_window,priority:1"`
	StartsOn  time.Time `gorm:"type:date;index:idx_rule_window,priority:2"`
	EndsOn    time.Time `gorm:"type:date"`
	Kind      string    `gorm:"size:16"`
	Value     float64
	MinNights int
	MaxNights int
	CreatedAt time.Time
}

func (ruleModel) TableName() string { return "pricing_rules" }

func toRuleModel(r *domainpricing.Rule) ruleModel {
	return ruleModel{
		ID:        string(r.ID),
		VillaID:   string(r.VillaID),
		StartsOn:  r.StartsOn,
		EndsOn:    r.EndsOn,
		Kind:      string(r.Kind),
		Value:     r.Value,
		MinNights: r.MinNights,
		MaxNights: r.MaxNights,
		CreatedAt: r.CreatedAt,
	}
}

func (m ruleModel) toRule() *domainpricing.Rule {
	return &domainpricing.Rule{
		ID:        domainpricing.RuleID(m.ID),
		VillaID:   domainvillas.VillaID(m.VillaID),
		StartsOn:  daterange.Day(m.StartsOn),
		EndsOn:    daterange.Day(m.EndsOn),
		Kind:      domainpricing.Kind(m.Kind),
		Value:     m.Value,
		MinNights: m.MinNights,
		MaxNights: m.MaxNights,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

type blackoutModel struct {
	ID        string    `gorm:"primaryKey;size:64"`
	VillaID   string    `gorm:"size:64;uniqueIndex:idx_blackout_day,priority:1"`
	Date      time.Time `gorm:"type:date;uniqueIndex:idx_blackout_day,priority:2"`
	Note      string    `gorm:"size:255"`
	CreatedAt time.Time
}

func (blackoutModel) TableName() string { return "blackout_dates" }

func (m blackoutModel) toBlackout() *domainavailability.Blackout {
	return &domainavailability.Blackout{
		ID:        domainavailability.BlackoutID(m.ID),
		VillaID:   domainvillas.VillaID(m.VillaID),
		Date:      daterange.Day(m.Date),
		Note:      m.Note,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

type blockRow struct {
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Reason    string    `json:"reason"`
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"created_at"`
}

type calendarModel struct {
	VillaID string                        `gorm:"primaryKey;size:64"`
	Blocks  datatypes.JSONSlice[blockRow] `gorm:"type:json"`
	Version int64
}

func (calendarModel) TableName() string { return "calendars" }

func toCalendarModel(c *domainavailability.Calendar) calendarModel {
	rows := make([]blockRow, 0, len(c.Blocks))
	for _, b := range c.Blocks {
		rows = append(rows, blockRow{
			CheckIn:   b.Range.CheckIn,
			CheckOut:  b.Range.CheckOut,
			Reason:    string(b.Reason),
			Reference: b.Reference,
			CreatedAt: b.CreatedAt,
		})
	}
	return calendarModel{VillaID: string(c.VillaID), Blocks: rows, Version: c.Version}
}

func (m calendarModel) toCalendar() *domainavailability.Calendar {
	cal := domainavailability.NewCalendar(domainvillas.VillaID(m.VillaID))
	cal.Version = m.Version
	for _, r := range m.Blocks {
		cal.Blocks = append(cal.Blocks, domainavailability.Block{
			Range:     daterange.DateRange{CheckIn: r.CheckIn.UTC(), CheckOut: r.CheckOut.UTC()},
			Reason:    domainavailability.BlockReason(r.Reason),
			Reference: r.Reference,
			CreatedAt: r.CreatedAt.UTC(),
		})
	}
	return cal
}

type bookingModel struct {
	ID             string    `gorm:"primaryKey;size:64"`
	Reference      string    `gorm:"uniqueIndex;size:32"`
	VillaID        string    `gorm:"size:64;index:idx_booking_villa,priority:1"`
	Status         string    `gorm:"size:16;index:idx_booking_villa,priority:2;index"`
	GuestName      string    `gorm:"size:200"`
	GuestEmail     string    `gorm:"size:200;index"`
	GuestPhone     string    `gorm:"size:50"`
	GuestUserID    string    `gorm:"size:64"`
	CheckIn        time.Time `gorm:"type:date"`
	CheckOut       time.Time `gorm:"type:date;index"`
	Guests         int
	TotalAmount    int64
	Currency       string `gorm:"size:3"`
	SpecialRequest string `gorm:"column:special_requests;type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int64
}

func (bookingModel) TableName() string { return "bookings" }

func toBookingModel(b *domainbooking.Booking) bookingModel {
	return bookingModel{
		ID:             string(b.ID),
		Reference:      b.Reference,
		VillaID:        string(b.VillaID),
		Status:         string(b.Status),
		GuestName:      b.Guest.Name,
		GuestEmail:     b.Guest.Email,
		GuestPhone:     b.Guest.Phone,
		GuestUserID:    b.Guest.UserID,
		CheckIn:        b.Range.CheckIn,
		CheckOut:       b.Range.CheckOut,
		Guests:         b.Guests,
		TotalAmount:    b.Total.Amount,
		Currency:       b.Total.Currency,
		SpecialRequest: b.SpecialRequest,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
		Version:        b.Version,
	}
}

func (m bookingModel) toBooking() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:        domainbooking.BookingID(m.ID),
		Reference: m.Reference,
		VillaID:   domainvillas.VillaID(m.VillaID),
		Guest: domainbooking.Guest{
			Name:   m.GuestName,
			Email:  m.GuestEmail,
			Phone:  m.GuestPhone,
			UserID: m.GuestUserID,
		},
		Range:          daterange.DateRange{CheckIn: daterange.Day(m.CheckIn), CheckOut: daterange.Day(m.CheckOut)},
		Guests:         m.Guests,
		Total:          money.Money{Amount: m.TotalAmount, Currency: m.Currency},
		Status:         domainbooking.Status(m.Status),
		SpecialRequest: m.SpecialRequest,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
		Version:        m.Version,
	}
}

type userModel struct {
	ID           string `gorm:"primaryKey;size:64"`
	Email        string `gorm:"uniqueIndex;size:200"`
	Name         string `gorm:"size:200"`
	Phone        string `gorm:"size:50"`
	PasswordHash string `gorm:"size:255"`
	Role         string `gorm:"size:16"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userModel) TableName() string { return "users" }

func (m userModel) toUser() *user.User {
	return &user.User{
		ID:           user.ID(m.ID),
		Email:        m.Email,
		Name:         m.Name,
		Phone:        m.Phone,
		PasswordHash: m.PasswordHash,
		Role:         user.Role(m.Role),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type outboxModel struct {
	ID          string                       `gorm:"primaryKey;size:64"`
	Name        string                       `gorm:"size:120"`
	Aggregate   string                       `gorm:"size:120"`
	Payload     []byte                       `gorm:"type:blob"`
	Headers     datatypes.JSONMap
	OccurredAt  time.Time
	State       string    `gorm:"size:16;index:idx_outbox_due,priority:1"`
	NextAttempt time.Time `gorm:"index:idx_outbox_due,priority:2"`
	Attempts    int
	ClaimedBy   string `gorm:"size:64"`
	ClaimedAt   *time.Time
	SentAt      *time.Time
	LastError   string `gorm:"type:text"`
	CreatedAt   time.Time
}

func (outboxModel) TableName() string { return "outbox" }

type idempotencyModel struct {
	Key        string `gorm:"primaryKey;size:255"`
	Payload    []byte `gorm:"type:blob"`
	Error      string `gorm:"type:text"`
	ErrorKind  string `gorm:"size:64"`
	Pending    bool   `gorm:"not null"`
	OccurredAt time.Time
	CreatedAt  time.Time `gorm:"index"`
}

func (idempotencyModel) TableName() string { return "idempotency_keys" }
