package domain

import (
	"github.com/shopspring/decimal"

	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
)

// ServiceType clasifica el servicio vendido a efectos de impuestos.
type ServiceType string

const (
	DomesticFlight      ServiceType = "DomesticFlight"
	InternationalFlight ServiceType = "InternationalFlight"
	Train               ServiceType = "Train"
	OtherService        ServiceType = "Other"
)

// AgeGroup determina el descuento del pasajero.
type AgeGroup string

const (
	Adult  AgeGroup = "Adult"
	Child  AgeGroup = "Child"
	Infant AgeGroup = "Infant"
)

var discounts = map[AgeGroup]decimal.Decimal{
	Adult:  decimal.Zero,
	Child:  decimal.RequireFromString("0.50"),
	Infant: decimal.RequireFromString("0.90"),
}

var taxRates = map[ServiceType]decimal.Decimal{
	DomesticFlight:      decimal.RequireFromString("0.09"),
	InternationalFlight: decimal.RequireFromString("0.12"),
	Train:               decimal.RequireFromString("0.09"),
	OtherService:        decimal.Zero,
}

var serviceFeeRate = decimal.RequireFromString("0.02")

// CalculateTotalPrice aplica, en orden: descuento por edad sobre el precio
// base, y después impuesto y comisión fija del 2%, ambos calculados sobre el
// precio YA descontado y sumados (no compuestos uno sobre otro).
func CalculateTotalPrice(service ServiceType, basePrice sharedDomain.Money, age AgeGroup) (sharedDomain.Money, error) {
	discount, ok := discounts[age]
	if !ok {
		return sharedDomain.Money{}, sharedDomain.NewDomainError("unknown age group: " + string(age))
	}
	taxRate, ok := taxRates[service]
	if !ok {
		return sharedDomain.Money{}, sharedDomain.NewDomainError("unknown service type: " + string(service))
	}

	discounted, err := basePrice.Mul(decimal.NewFromInt(1).Sub(discount))
	if err != nil {
		return sharedDomain.Money{}, err
	}

	tax, err := discounted.Mul(taxRate)
	if err != nil {
		return sharedDomain.Money{}, err
	}

	fee, err := discounted.Mul(serviceFeeRate)
	if err != nil {
		return sharedDomain.Money{}, err
	}

	total, err := discounted.Add(tax)
	if err != nil {
		return sharedDomain.Money{}, err
	}
	return total.Add(fee)
}
