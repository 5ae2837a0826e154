package ginserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"villarent/internal/app/dto"
	authsvc "villarent/internal/app/services/auth"
	"villarent/internal/infra/bootstrap"
	"villarent/internal/infra/config"
	ginserver "villarent/internal/infra/http/gin"
	"villarent/internal/infra/notify"
	"villarent/internal/infra/obs"
	infraoutbox "villarent/internal/infra/outbox"
	"villarent/internal/infra/storage/memory"
	"villarent/internal/infra/storage/s3"
)

var today = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return today }

type harness struct {
	t      *testing.T
	router *gin.Engine
	app    *bootstrap.Application
	token  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{IdempotencyTTL: time.Hour, CORSOrigins: []string{"*"}}
	backend := bootstrap.NewMemoryBackend(cfg, infraoutbox.NewSignal())
	app := bootstrap.New(backend, bootstrap.Services{
		Images:   s3.NoopStore{},
		Notifier: notify.LogNotifier{Logger: logger},
		Sessions: memory.NewSessionStore(clock),
	}, bootstrap.Settings{
		PriceTolerance: 1,
		SessionTTL:     time.Hour,
		BcryptCost:     4,
		Now:            clock,
	}, logger)
	if _, err := app.Auth.EnsureAdmin(context.Background(), authsvc.AdminParams{
		Email: "admin@villarent.test", Name: "Admin", Password: "rahasia-admin",
	}); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	h := &harness{
		t:      t,
		router: ginserver.NewRouter(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{}, app.Handlers),
		app:    app,
	}
	var session dto.Session
	h.expect(h.do(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "admin@villarent.test", "password": "rahasia-admin",
	}, nil), http.StatusOK, &session)
	h.token = session.Token
	return h
}

func (h *harness) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) admin(method, path string, body any) *httptest.ResponseRecorder {
	return h.do(method, path, body, map[string]string{"Authorization": "Bearer " + h.token})
}

func (h *harness) expect(rec *httptest.ResponseRecorder, status int, out any) {
	h.t.Helper()
	if rec.Code != status {
		h.t.Fatalf("status = %d, want %d: %s", rec.Code, status, rec.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			h.t.Fatalf("decode %s: %v", rec.Body.String(), err)
		}
	}
}

func (h *harness) errorCode(rec *httptest.ResponseRecorder, status int) string {
	h.t.Helper()
	var body struct {
		Code  string `json:"code"`
		Error string `json:"error"`
	}
	h.expect(rec, status, &body)
	if body.Error == "" {
		h.t.Fatalf("error message missing: %s", rec.Body.String())
	}
	return body.Code
}

func (h *harness) createVilla(slug string, maxGuests int, price int64) dto.VillaDetail {
	h.t.Helper()
	var villa dto.VillaDetail
	h.expect(h.admin(http.MethodPost, "/api/v1/admin/villas", map[string]any{
		"slug": slug, "name": "Villa " + slug, "location": "Ubud, Bali",
		"bedrooms": 3, "bathrooms": 2, "max_guests": maxGuests, "base_price": price,
		"amenities": []string{"pool", "wifi"},
	}), http.StatusCreated, &villa)
	return villa
}

func bookingBody(villaID, checkIn, checkOut string, guests int, total int64) map[string]any {
	return map[string]any{
		"villa_id": villaID, "guest_name": "Made Wirawan", "guest_email": "made@example.com",
		"guest_phone": "+62 812 3456 7890", "check_in": checkIn, "check_out": checkOut,
		"guests": guests, "total_price": total,
	}
}

func TestHealthEndpoints(t *testing.T) {
	h := newHarness(t)
	h.expect(h.do(http.MethodGet, "/livez", nil, nil), http.StatusOK, nil)
	h.expect(h.do(http.MethodGet, "/readyz", nil, nil), http.StatusOK, nil)
}

func TestAdminRoutesNeedAnAdmin(t *testing.T) {
	h := newHarness(t)
	if code := h.errorCode(h.do(http.MethodGet, "/api/v1/admin/villas", nil, nil), http.StatusUnauthorized); code != "unauthorized" {
		t.Fatalf("code = %s", code)
	}
	h.expect(h.do(http.MethodGet, "/api/v1/admin/villas", nil, map[string]string{"Authorization": "Bearer nope"}), http.StatusUnauthorized, nil)
	h.expect(h.admin(http.MethodGet, "/api/v1/admin/villas", nil), http.StatusOK, nil)
}

func TestCatalogAndDetail(t *testing.T) {
	h := newHarness(t)
	h.createVilla("villa-ubud", 4, 2_000_000)
	h.createVilla("villa-canggu", 8, 5_000_000)

	var catalog dto.VillaCatalog
	h.expect(h.do(http.MethodGet, "/api/v1/villas?min_guests=6", nil, nil), http.StatusOK, &catalog)
	if len(catalog.Items) != 1 || catalog.Items[0].Slug != "villa-canggu" {
		t.Fatalf("catalog = %+v", catalog.Items)
	}

	var detail dto.VillaDetail
	h.expect(h.do(http.MethodGet, "/api/v1/villas/villa-ubud", nil, nil), http.StatusOK, &detail)
	if detail.MaxGuests != 4 || detail.BasePrice.Amount != 2_000_000 {
		t.Fatalf("detail = %+v", detail)
	}
	if code := h.errorCode(h.do(http.MethodGet, "/api/v1/villas/unknown", nil, nil), http.StatusNotFound); code != "not_found" {
		t.Fatalf("code = %s", code)
	}
}

func TestQuoteAppliesPricingRule(t *testing.T) {
	h := newHarness(t)
	villa := h.createVilla("villa-ubud", 4, 2_000_000)
	h.expect(h.admin(http.MethodPost, "/api/v1/admin/villas/"+villa.ID+"/pricing-rules", map[string]any{
		"starts_on": "2025-06-01", "ends_on": "2025-06-30", "type": "percentage", "value": 25,
	}), http.StatusCreated, nil)

	var quote dto.Quote
	h.expect(h.do(http.MethodPost, "/api/v1/quotes", map[string]any{
		"villa_id": villa.ID, "check_in": "2025-06-10", "check_out": "2025-06-13", "guests": 2,
	}, nil), http.StatusOK, &quote)
	if quote.Nights != 3 || quote.Subtotal.Amount != 6_000_000 || quote.Total.Amount != 7_500_000 {
		t.Fatalf("quote = %+v", quote)
	}
	if quote.AppliedRule == nil || quote.AppliedRule.Kind != "percentage" {
		t.Fatalf("applied rule = %+v", quote.AppliedRule)
	}
}

func TestQuoteRejections(t *testing.T) {
	h := newHarness(t)
	villa := h.createVilla("villa-ubud", 4, 2_000_000)
	h.expect(h.admin(http.MethodPost, "/api/v1/admin/villas/"+villa.ID+"/blackout-dates", map[string]any{
		"date": "2025-07-05", "note": "upacara",
	}), http.StatusCreated, nil)

	cases := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{"capacity", map[string]any{"villa_id": villa.ID, "check_in": "2025-06-10", "check_out": "2025-06-12", "guests": 9}, http.StatusBadRequest, "capacity_exceeded"},
		{"inverted dates", map[string]any{"villa_id": villa.ID, "check_in": "2025-06-12", "check_out": "2025-06-10", "guests": 2}, http.StatusBadRequest, "invalid_date_range"},
		{"blackout on checkout", map[string]any{"villa_id": villa.ID, "check_in": "2025-07-02", "check_out": "2025-07-05", "guests": 2}, http.StatusConflict, "blacked_out"},
		{"unknown villa", map[string]any{"villa_id": "missing", "check_in": "2025-06-10", "check_out": "2025-06-12", "guests": 2}, http.StatusNotFound, "not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code := h.errorCode(h.do(http.MethodPost, "/api/v1/quotes", tc.body, nil), tc.status); code != tc.code {
				t.Fatalf("code = %s, want %s", code, tc.code)
			}
		})
	}
}

func TestBookingLifecycle(t *testing.T) {
	h := newHarness(t)
	villa := h.createVilla("villa-ubud", 4, 2_000_000)

	body := bookingBody(villa.ID, "2025-06-10", "2025-06-13", 2, 6_000_000)
	body["special_requests"] = "Datang larut malam"
	var created dto.BookingCreated
	h.expect(h.do(http.MethodPost, "/api/v1/bookings", body, nil), http.StatusCreated, &created)
	if created.Status != "confirmed" || created.Total.Amount != 6_000_000 {
		t.Fatalf("created = %+v", created)
	}
	if created.Notifications.Guest || created.Notifications.Admin {
		t.Fatalf("no mail transport is configured: %+v", created.Notifications)
	}

	if code := h.errorCode(h.do(http.MethodPost, "/api/v1/bookings", bookingBody(villa.ID, "2025-06-12", "2025-06-15", 2, 6_000_000), nil), http.StatusConflict); code != "conflict" {
		t.Fatalf("overlap code = %s", code)
	}
	h.expect(h.do(http.MethodPost, "/api/v1/bookings", bookingBody(villa.ID, "2025-06-13", "2025-06-15", 2, 4_000_000), nil), http.StatusCreated, nil)

	var found dto.BookingCollection
	h.expect(h.do(http.MethodGet, "/api/v1/bookings?reference="+created.Reference, nil, nil), http.StatusOK, &found)
	if len(found.Items) != 1 || found.Items[0].ID != created.BookingID || found.Items[0].SpecialRequest != "Datang larut malam" {
		t.Fatalf("lookup = %+v", found)
	}
	if code := h.errorCode(h.do(http.MethodGet, "/api/v1/bookings", nil, nil), http.StatusBadRequest); code != "validation_error" {
		t.Fatalf("lookup without criteria code = %s", code)
	}

	var cancelled dto.Booking
	h.expect(h.do(http.MethodDelete, "/api/v1/bookings/"+created.BookingID, nil, nil), http.StatusOK, &cancelled)
	if cancelled.Status != "cancelled" {
		t.Fatalf("status = %s", cancelled.Status)
	}
	if code := h.errorCode(h.do(http.MethodDelete, "/api/v1/bookings/"+created.BookingID, nil, nil), http.StatusBadRequest); code != "already_cancelled" {
		t.Fatalf("second cancel code = %s", code)
	}
	h.expect(h.do(http.MethodPost, "/api/v1/bookings", bookingBody(villa.ID, "2025-06-10", "2025-06-13", 2, 6_000_000), nil), http.StatusCreated, nil)
}

func TestBookingRejectsStalePrice(t *testing.T) {
	h := newHarness(t)
	villa := h.createVilla("villa-ubud", 4, 2_000_000)
	if code := h.errorCode(h.do(http.MethodPost, "/api/v1/bookings", bookingBody(villa.ID, "2025-06-10", "2025-06-13", 2, 5_999_998), nil), http.StatusConflict); code != "price_mismatch" {
		t.Fatalf("code = %s", code)
	}
	h.expect(h.do(http.MethodPost, "/api/v1/bookings", bookingBody(villa.ID, "2025-06-10", "2025-06-13", 2, 5_999_999), nil), http.StatusCreated, nil)
}

func TestBookingIdempotencyKeyReplays(t *testing.T) {
	h := newHarness(t)
	villa := h.createVilla("villa-ubud", 4, 2_000_000)
	headers := map[string]string{"Idempotency-Key": "checkout-42"}
	body := bookingBody(villa.ID, "2025-06-10", "2025-06-13", 2, 6_000_000)

	var first, second dto.BookingCreated
	h.expect(h.do(http.MethodPost, "/api/v1/bookings", body, headers), http.StatusCreated, &first)
	h.expect(h.do(http.MethodPost, "/api/v1/bookings", body, headers), http.StatusCreated, &second)
	if first.BookingID != second.BookingID || first.Reference != second.Reference {
		t.Fatalf("replay produced a new booking: %+v vs %+v", first, second)
	}
}

func TestConcurrentBookingsForSameDates(t *testing.T) {
	h := newHarness(t)
	villa := h.createVilla("villa-ubud", 4, 2_000_000)
	body := bookingBody(villa.ID, "2025-08-01", "2025-08-04", 2, 6_000_000)

	const attempts = 8
	codes := make([]int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = h.do(http.MethodPost, "/api/v1/bookings", body, nil).Code
		}(i)
	}
	wg.Wait()

	won := 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			won++
		case http.StatusConflict, http.StatusServiceUnavailable:
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	if won != 1 {
		t.Fatalf("confirmed bookings = %d, want exactly 1", won)
	}
}

func TestCalendarShowsBlocksAndBlackouts(t *testing.T) {
	h := newHarness(t)
	villa := h.createVilla("villa-ubud", 4, 2_000_000)
	h.expect(h.admin(http.MethodPost, "/api/v1/admin/villas/"+villa.ID+"/blackout-dates", map[string]any{"date": "2025-06-20"}), http.StatusCreated, nil)
	h.expect(h.do(http.MethodPost, "/api/v1/bookings", bookingBody(villa.ID, "2025-06-10", "2025-06-13", 2, 6_000_000), nil), http.StatusCreated, nil)

	var cal dto.Calendar
	h.expect(h.do(http.MethodGet, "/api/v1/villas/villa-ubud/calendar?from=2025-06-01&to=2025-06-30", nil, nil), http.StatusOK, &cal)
	if len(cal.Blocks) != 1 || cal.Blocks[0].From != "2025-06-10" || cal.Blocks[0].To != "2025-06-13" {
		t.Fatalf("blocks = %+v", cal.Blocks)
	}
	if len(cal.Blackouts) != 1 || cal.Blackouts[0] != "2025-06-20" {
		t.Fatalf("blackouts = %+v", cal.Blackouts)
	}
}

func TestVillaWithBookingsCannotBeDeleted(t *testing.T) {
	h := newHarness(t)
	villa := h.createVilla("villa-ubud", 4, 2_000_000)
	h.expect(h.do(http.MethodPost, "/api/v1/bookings", bookingBody(villa.ID, "2025-06-10", "2025-06-13", 2, 6_000_000), nil), http.StatusCreated, nil)
	if code := h.errorCode(h.admin(http.MethodDelete, "/api/v1/admin/villas/"+villa.ID, nil), http.StatusConflict); code != "conflict" {
		t.Fatalf("code = %s", code)
	}

	empty := h.createVilla("villa-empty", 2, 1_000_000)
	h.expect(h.admin(http.MethodDelete, "/api/v1/admin/villas/"+empty.ID, nil), http.StatusNoContent, nil)
	h.expect(h.do(http.MethodGet, "/api/v1/villas/villa-empty", nil, nil), http.StatusNotFound, nil)
}

func TestImageUploadWithoutStoreIsUnavailable(t *testing.T) {
	h := newHarness(t)
	villa := h.createVilla("villa-ubud", 4, 2_000_000)
	var body bytes.Buffer
	body.WriteString("--x\r\nContent-Disposition: form-data; name=\"image\"; filename=\"pool.jpg\"\r\nContent-Type: image/jpeg\r\n\r\n\xff\xd8\xff\xe0\r\n--x--\r\n")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/villas/"+villa.ID+"/images", &body)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	req.Header.Set("Authorization", "Bearer "+h.token)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	if code := h.errorCode(rec, http.StatusServiceUnavailable); code != "service_unavailable" {
		t.Fatalf("code = %s", code)
	}
}
