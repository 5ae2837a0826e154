package ginserver

import (
	"errors"
	"strings"
	"testing"
	"time"

	"villarent/internal/app/apperr"
	"villarent/internal/domain/availability"
	domainvillas "villarent/internal/domain/villas"
)

func TestErrorMessagesNameTheReason(t *testing.T) {
	blackout := &availability.UnavailableError{Cause: availability.ErrBlackedOut, Date: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)}
	cases := []struct {
		err  error
		want string
	}{
		{blackout, "Villa ditutup pada tanggal 2025-06-02"},
		{availability.ErrBlackedOut, "Villa ditutup pada salah satu tanggal"},
		{availability.ErrConflict, "sudah dipesan tamu lain"},
		{availability.ErrOverlappingRange, "sudah dipesan tamu lain"},
		{availability.ErrConcurrentUpdate, "coba lagi"},
		{domainvillas.ErrSlugTaken, "Slug villa sudah digunakan"},
		{domainvillas.ErrActiveBookings, "booking aktif"},
	}
	seen := map[string]error{}
	for _, tc := range cases {
		msg := errorMessage(apperr.KindOf(tc.err), tc.err)
		if !strings.Contains(msg, tc.want) {
			t.Errorf("%v: message %q, want it to contain %q", tc.err, msg, tc.want)
		}
		if prev, ok := seen[msg]; ok && apperr.KindOf(prev) != apperr.KindOf(tc.err) {
			t.Errorf("%v and %v share message %q", prev, tc.err, msg)
		}
		seen[msg] = tc.err
	}
	if errorMessage(apperr.KindOf(errors.New("boom")), errors.New("boom")) != msgInternal {
		t.Error("unknown errors must not leak")
	}
}
