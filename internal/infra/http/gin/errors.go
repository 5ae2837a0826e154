package ginserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"villarent/internal/app/apperr"
	bookingapp "villarent/internal/app/handlers/booking"
	"villarent/internal/app/middleware"
	"villarent/internal/domain/availability"
	domainbooking "villarent/internal/domain/booking"
	domainuser "villarent/internal/domain/user"
	domainvillas "villarent/internal/domain/villas"
)

const msgInternal = "Terjadi kesalahan server"

var kindStatus = map[apperr.Kind]int{
	apperr.KindNotFound:           http.StatusNotFound,
	apperr.KindValidation:         http.StatusBadRequest,
	apperr.KindInvalidDateRange:   http.StatusBadRequest,
	apperr.KindCapacityExceeded:   http.StatusBadRequest,
	apperr.KindAlreadyCancelled:   http.StatusBadRequest,
	apperr.KindTooLateToCancel:    http.StatusBadRequest,
	apperr.KindInvalidState:       http.StatusBadRequest,
	apperr.KindBlackedOut:         http.StatusConflict,
	apperr.KindConflict:           http.StatusConflict,
	apperr.KindPriceMismatch:      http.StatusConflict,
	apperr.KindServiceUnavailable: http.StatusServiceUnavailable,
	apperr.KindUnauthorized:       http.StatusUnauthorized,
	apperr.KindForbidden:          http.StatusForbidden,
}

var kindMessage = map[apperr.Kind]string{
	apperr.KindNotFound:           "Data tidak ditemukan",
	apperr.KindValidation:         "Data yang dikirim tidak valid",
	apperr.KindInvalidDateRange:   "Tanggal check-out harus setelah tanggal check-in",
	apperr.KindAlreadyCancelled:   "Booking sudah dibatalkan",
	apperr.KindTooLateToCancel:    "Tidak dapat membatalkan booking yang sudah dimulai",
	apperr.KindInvalidState:       "Status booking tidak dapat diubah",
	apperr.KindBlackedOut:         "Villa ditutup pada salah satu tanggal yang dipilih",
	apperr.KindConflict:           "Tanggal yang dipilih sudah dipesan tamu lain",
	apperr.KindPriceMismatch:      "Harga telah berubah, silakan periksa kembali total harga",
	apperr.KindServiceUnavailable: "Layanan sedang sibuk, silakan coba lagi",
	apperr.KindUnauthorized:       "Silakan login terlebih dahulu",
	apperr.KindForbidden:          "Akses khusus admin",
}

// respondError writes the {"code","error"} body for err. Only internal
// failures are logged; the rest are expected outcomes.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		kind = apperr.KindInternal
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError && logger != nil {
		logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"code": string(kind), "error": errorMessage(kind, err)})
}

func errorMessage(kind apperr.Kind, err error) string {
	switch kind {
	case apperr.KindNotFound:
		switch {
		case errors.Is(err, availability.ErrVillaNotAvailable):
			return "Villa tidak ditemukan"
		case errors.Is(err, domainbooking.ErrNotFound):
			return "Booking tidak ditemukan"
		}
	case apperr.KindCapacityExceeded:
		var detail *availability.UnavailableError
		if errors.As(err, &detail) && detail.MaxGuests > 0 {
			return fmt.Sprintf("Jumlah tamu melebihi kapasitas villa (maksimal %d tamu)", detail.MaxGuests)
		}
		return "Jumlah tamu melebihi kapasitas villa"
	case apperr.KindBlackedOut:
		var detail *availability.UnavailableError
		if errors.As(err, &detail) && !detail.Date.IsZero() {
			return fmt.Sprintf("Villa ditutup pada tanggal %s, silakan pilih tanggal lain", detail.Date.Format("2006-01-02"))
		}
	case apperr.KindConflict:
		switch {
		case errors.Is(err, availability.ErrConcurrentUpdate), errors.Is(err, domainbooking.ErrConcurrentUpdate):
			return "Data sedang diubah oleh permintaan lain, silakan coba lagi"
		case errors.Is(err, middleware.ErrRequestInFlight):
			return "Permintaan yang sama sedang diproses"
		case errors.Is(err, domainvillas.ErrSlugTaken):
			return "Slug villa sudah digunakan"
		case errors.Is(err, domainvillas.ErrActiveBookings):
			return "Villa masih memiliki booking aktif"
		case errors.Is(err, availability.ErrBlackoutDuplicate):
			return "Tanggal blackout sudah terdaftar"
		case errors.Is(err, domainuser.ErrEmailAlreadyUsed):
			return "Email sudah digunakan"
		}
	case apperr.KindValidation:
		if errors.Is(err, bookingapp.ErrLookupCriteria) {
			return "Email atau booking reference diperlukan"
		}
	}
	if msg, ok := kindMessage[kind]; ok {
		return msg
	}
	return msgInternal
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": string(apperr.KindValidation), "error": msg})
}
