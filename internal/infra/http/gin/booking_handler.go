package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"villarent/internal/app/commands"
	"villarent/internal/app/dto"
	bookingapp "villarent/internal/app/handlers/booking"
	"villarent/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	VillaID        string `json:"villa_id"`
	GuestName      string `json:"guest_name"`
	GuestEmail     string `json:"guest_email"`
	GuestPhone     string `json:"guest_phone"`
	CheckIn        string `json:"check_in"`
	CheckOut       string `json:"check_out"`
	Guests         int    `json:"guests"`
	TotalPrice     int64  `json:"total_price"`
	SpecialRequest string `json:"special_requests"`
}

func (h BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Format permintaan tidak valid")
		return
	}
	checkIn, okIn := parseDay(req.CheckIn)
	checkOut, okOut := parseDay(req.CheckOut)
	if !okIn || !okOut {
		badRequest(c, "Format tanggal tidak valid")
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		VillaID:         req.VillaID,
		GuestName:       req.GuestName,
		GuestEmail:      req.GuestEmail,
		GuestPhone:      req.GuestPhone,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Guests:          req.Guests,
		TotalPrice:      req.TotalPrice,
		SpecialRequest:  req.SpecialRequest,
		IdempotencyKeyV: strings.TrimSpace(c.GetHeader("Idempotency-Key")),
	}
	if p, ok := currentPrincipal(c); ok {
		cmd.GuestUserID = p.UserID
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.BookingCreated](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Lookup(c *gin.Context) {
	query := bookingapp.LookupBookingsQuery{
		Email:     strings.TrimSpace(c.Query("email")),
		Reference: strings.TrimSpace(c.Query("reference")),
	}
	result, err := queries.Ask[bookingapp.LookupBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	query := bookingapp.GetBookingQuery{BookingID: c.Param("id")}
	result, err := queries.Ask[bookingapp.GetBookingQuery, dto.Booking](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	cmd := bookingapp.CancelBookingCommand{BookingID: c.Param("id")}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AdminBookingHandler serves the back-office booking list.
type AdminBookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type updateBookingRequest struct {
	Status         *string `json:"status"`
	SpecialRequest *string `json:"special_requests"`
}

func (h AdminBookingHandler) List(c *gin.Context) {
	query := bookingapp.ListBookingsQuery{
		Status:  c.Query("status"),
		VillaID: c.Query("villa_id"),
		Page:    parseInt(c.Query("page")),
		Limit:   parseInt(c.Query("limit")),
	}
	result, err := queries.Ask[bookingapp.ListBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminBookingHandler) Update(c *gin.Context) {
	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Format permintaan tidak valid")
		return
	}
	cmd := bookingapp.UpdateBookingCommand{
		BookingID:      c.Param("id"),
		Status:         req.Status,
		SpecialRequest: req.SpecialRequest,
	}
	result, err := commands.Dispatch[bookingapp.UpdateBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var (
	_ BookingHTTP      = BookingHandler{}
	_ AdminBookingHTTP = AdminBookingHandler{}
)
