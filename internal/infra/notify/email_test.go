package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"villarent/internal/app/policies"
)

func summary() policies.BookingSummary {
	return policies.BookingSummary{
		Reference:     "VIL-20250601-K7Q2ZD",
		VillaName:     "Villa Sawah",
		VillaLocation: "Ubud",
		GuestName:     "Ayu <script>",
		GuestEmail:    "ayu@example.com",
		GuestPhone:    "+62 811",
		CheckIn:       time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:      time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC),
		Nights:        3,
		Guests:        2,
		TotalAmount:   7_500_000,
		Currency:      "IDR",
	}
}

func TestRupiah(t *testing.T) {
	cases := map[int64]string{
		0:          "Rp0",
		999:        "Rp999",
		1000:       "Rp1.000",
		1500000:    "Rp1.500.000",
		-25000:     "-Rp25.000",
		1234567890: "Rp1.234.567.890",
	}
	for in, want := range cases {
		if got := rupiah(in); got != want {
			t.Errorf("rupiah(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestLongDate(t *testing.T) {
	if got := longDate(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)); got != "Minggu, 1 Juni 2025" {
		t.Fatalf("got %q", got)
	}
}

func TestSMTPNotifierRendersAndSends(t *testing.T) {
	var gotTo []string
	var gotMsg string
	n := NewSMTPNotifier(SMTPConfig{Host: "mail.test", Port: 587, From: "no-reply@villarent.test", AdminEmail: "ops@villarent.test"}, nil)
	n.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		if addr != "mail.test:587" {
			t.Errorf("addr = %s", addr)
		}
		gotTo = to
		gotMsg = string(msg)
		return nil
	}

	if err := n.SendGuestConfirmation(context.Background(), summary()); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(gotTo) != 1 || gotTo[0] != "ayu@example.com" {
		t.Fatalf("to = %v", gotTo)
	}
	for _, want := range []string{"Rp7.500.000", "Minggu, 1 Juni 2025", "VIL-20250601-K7Q2ZD", "Ayu &lt;script&gt;"} {
		if !strings.Contains(gotMsg, want) {
			t.Errorf("message missing %q", want)
		}
	}

	if err := n.SendAdminAlert(context.Background(), summary()); err != nil {
		t.Fatalf("admin send: %v", err)
	}
	if gotTo[0] != "ops@villarent.test" || !strings.Contains(gotMsg, "3 malam") {
		t.Fatalf("admin alert went to %v", gotTo)
	}
}

func TestSMTPNotifierHonoursContext(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{Host: "mail.test", Port: 25}, nil)
	release := make(chan struct{})
	defer close(release)
	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		<-release
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := n.SendGuestConfirmation(ctx, summary()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}

func TestUnconfiguredNotifiers(t *testing.T) {
	if err := (LogNotifier{}).SendGuestConfirmation(context.Background(), summary()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("log notifier: %v", err)
	}
	n := NewSMTPNotifier(SMTPConfig{Host: "mail.test"}, nil)
	if err := n.SendAdminAlert(context.Background(), summary()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("missing admin address: %v", err)
	}
}
