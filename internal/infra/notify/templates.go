package notify

import (
	"html/template"
	"strconv"
	"strings"
	"time"

	"villarent/internal/app/policies"
)

type summaryView struct {
	policies.BookingSummary
	CheckInText  string
	CheckOutText string
	TotalText    string
}

var (
	hari  = [...]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}
	bulan = [...]string{"Januari", "Februari", "Maret", "April", "Mei", "Juni", "Juli",
		"Agustus", "September", "Oktober", "November", "Desember"}
)

func view(s policies.BookingSummary) summaryView {
	return summaryView{
		BookingSummary: s,
		CheckInText:    longDate(s.CheckIn),
		CheckOutText:   longDate(s.CheckOut),
		TotalText:      rupiah(s.TotalAmount),
	}
}

// longDate formats like "Senin, 1 Juni 2026".
func longDate(t time.Time) string {
	return hari[t.Weekday()] + ", " + strconv.Itoa(t.Day()) + " " + bulan[t.Month()-1] + " " + strconv.Itoa(t.Year())
}

// rupiah formats 1500000 as "Rp1.500.000".
func rupiah(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	if neg {
		return "-Rp" + b.String()
	}
	return "Rp" + b.String()
}

var guestTemplate = template.Must(template.New("guest_confirmation").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Konfirmasi Booking Villa</title></head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto;">
<h1>Booking Dikonfirmasi!</h1>
<p>Halo {{.GuestName}}!</p>
<p>Booking villa Anda telah berhasil dikonfirmasi. Berikut adalah detail booking Anda:</p>
<table>
<tr><td>Nomor Referensi:</td><td>{{.Reference}}</td></tr>
<tr><td>Villa:</td><td>{{.VillaName}}</td></tr>
<tr><td>Check-in:</td><td>{{.CheckInText}}</td></tr>
<tr><td>Check-out:</td><td>{{.CheckOutText}}</td></tr>
<tr><td>Jumlah Tamu:</td><td>{{.Guests}} orang</td></tr>
{{if .SpecialRequest}}<tr><td>Permintaan Khusus:</td><td>{{.SpecialRequest}}</td></tr>{{end}}
</table>
<p><strong>Total: {{.TotalText}}</strong></p>
<ul>
<li>Tim kami akan menghubungi Anda dalam 24 jam untuk konfirmasi lebih lanjut</li>
<li>Pembayaran dapat dilakukan saat check-in</li>
</ul>
<p>Terima kasih telah mempercayai layanan kami!</p>
</body></html>`))

var adminTemplate = template.Must(template.New("admin_alert").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Booking Baru</title></head>
<body style="font-family: Arial, sans-serif; color: #333;">
<h1>Booking Baru Masuk</h1>
<table>
<tr><td>Referensi:</td><td>{{.Reference}}</td></tr>
<tr><td>Villa:</td><td>{{.VillaName}} ({{.VillaLocation}})</td></tr>
<tr><td>Nama Tamu:</td><td>{{.GuestName}}</td></tr>
<tr><td>Email:</td><td>{{.GuestEmail}}</td></tr>
<tr><td>Telepon:</td><td>{{.GuestPhone}}</td></tr>
<tr><td>Check-in:</td><td>{{.CheckInText}}</td></tr>
<tr><td>Check-out:</td><td>{{.CheckOutText}} ({{.Nights}} malam)</td></tr>
<tr><td>Jumlah Tamu:</td><td>{{.Guests}} orang</td></tr>
{{if .SpecialRequest}}<tr><td>Permintaan Khusus:</td><td>{{.SpecialRequest}}</td></tr>{{end}}
<tr><td>Total:</td><td>{{.TotalText}}</td></tr>
</table>
</body></html>`))
