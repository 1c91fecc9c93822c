package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money es un value object inmutable: importe no negativo + divisa.
// Las operaciones devuelven siempre un valor nuevo, nunca mutan.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney valida y construye un Money. Rechaza importes negativos.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("%w: amount %s", ErrNegativeAmount, amount)
	}
	if currency == "" {
		return Money{}, fmt.Errorf("%w: empty currency", ErrInvalidMoney)
	}
	return Money{amount: amount, currency: currency}, nil
}

// MustMoney es un helper para literales en tests y tablas fijas.
func MustMoney(amount string, currency string) Money {
	m, err := NewMoney(decimal.RequireFromString(amount), currency)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() string        { return m.currency }

// Add suma dos importes de la misma divisa.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Mul escala el importe por un factor no negativo.
func (m Money) Mul(factor decimal.Decimal) (Money, error) {
	result := m.amount.Mul(factor)
	if result.IsNegative() {
		return Money{}, fmt.Errorf("%w: factor %s", ErrNegativeAmount, factor)
	}
	return Money{amount: result, currency: m.currency}, nil
}

func (m Money) String() string {
	return m.amount.String() + " " + m.currency
}
