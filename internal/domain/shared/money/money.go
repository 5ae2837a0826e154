package money

import (
	"errors"
	"math"
	"strings"
)

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
)

// DefaultCurrency is the only currency villas are priced in.
const DefaultCurrency = "IDR"

// Money keeps amounts in whole rupiah; there is no minor unit.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func New(amount int64, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	return Money{Amount: amount, Currency: strings.ToUpper(currency)}, nil
}

// IDR is shorthand for an amount in the default currency.
func IDR(amount int64) Money {
	return Money{Amount: amount, Currency: DefaultCurrency}
}

// FromFloat rounds an exact intermediate amount to whole units, half away from zero.
func FromFloat(amount float64, currency string) Money {
	return Money{Amount: int64(math.Round(amount)), Currency: strings.ToUpper(currency)}
}

func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

func (m Money) Sub(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

func (m Money) Multiply(times int64) Money {
	return Money{Amount: m.Amount * times, Currency: m.Currency}
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) IsNegative() bool {
	return m.Amount < 0
}

// Within reports whether two amounts differ by at most tolerance units.
func (m Money) Within(other Money, tolerance int64) bool {
	if m.Currency != other.Currency {
		return false
	}
	diff := m.Amount - other.Amount
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}
