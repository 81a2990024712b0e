package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/finvault/corebank/pkg/currencypkg"
)

// Money holds a monetary amount in integer minor units of a single currency.
// It is a value type: all operations return new values.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// NewMoney returns Money for the given minor units and currency.
func NewMoney(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// MoneyFromDecimal parses a major-unit decimal string (e.g. "150.00")
// into minor units of the given currency.
func MoneyFromDecimal(value, currency string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}

	scale := currencypkg.Scale(currency)

	minor := d.Shift(scale)
	if !minor.IsInteger() {
		return Money{}, ErrInvalidAmount
	}

	return Money{Amount: minor.IntPart(), Currency: currency}, nil
}

func (m Money) sameCurrency(other Money) error {
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}

	return nil
}

// Add returns the sum of two amounts of the same currency.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}

	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Sub returns the difference of two amounts of the same currency.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}

	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

// Negate returns the amount with the opposite sign.
func (m Money) Negate() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

// Equal reports whether both amounts and currencies are identical.
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount == other.Amount
}

// GreaterThan compares two amounts of the same currency.
func (m Money) GreaterThan(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}

	return m.Amount > other.Amount, nil
}

// LessThan compares two amounts of the same currency.
func (m Money) LessThan(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}

	return m.Amount < other.Amount, nil
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool {
	return m.Amount > 0
}

// IsNegative reports whether the amount is less than zero.
func (m Money) IsNegative() bool {
	return m.Amount < 0
}

// Decimal returns the amount in major units as a decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -currencypkg.Scale(m.Currency))
}

// String formats the amount for display, e.g. "150.00 USD".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Decimal().StringFixed(currencypkg.Scale(m.Currency)), m.Currency)
}
