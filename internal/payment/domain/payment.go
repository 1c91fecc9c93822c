package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus representa el estado de un pago frente a la pasarela.
type PaymentStatus string

const (
	PaymentInitiated PaymentStatus = "Initiated"
	PaymentVerified  PaymentStatus = "Verified"
	PaymentFailed    PaymentStatus = "Failed"
)

// Payment es el registro de un intento de pago. El TransactionID es la
// referencia que viaja en los eventos y que el ledger usa como clave de
// idempotencia; el GatewayReference es el identificador de la pasarela.
type Payment struct {
	ID               uuid.UUID       `json:"id"`
	OrderID          *uuid.UUID      `json:"order_id,omitempty"`
	UserID           uuid.UUID       `json:"user_id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	GatewayReference string          `json:"gateway_reference"`
	TransactionID    string          `json:"transaction_id"`
	TrackingCode     string          `json:"tracking_code"`
	Status           PaymentStatus   `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	VerifiedAt       *time.Time      `json:"verified_at,omitempty"`
}

// NewPayment crea un pago en estado Initiated.
func NewPayment(userID uuid.UUID, orderID *uuid.UUID, amount decimal.Decimal, currency, gatewayRef string, now time.Time) *Payment {
	id := uuid.New()
	return &Payment{
		ID:               id,
		OrderID:          orderID,
		UserID:           userID,
		Amount:           amount,
		Currency:         currency,
		GatewayReference: gatewayRef,
		TransactionID:    "pay-" + id.String(),
		TrackingCode:     uuid.NewString()[:8],
		Status:           PaymentInitiated,
		CreatedAt:        now,
	}
}

// MarkVerified transiciona el pago a Verified. Devuelve false si el pago ya
// está en un estado final; verificar dos veces es un no-op.
func (p *Payment) MarkVerified(now time.Time) bool {
	if p.Status != PaymentInitiated {
		return false
	}
	p.Status = PaymentVerified
	p.VerifiedAt = &now
	return true
}

// MarkFailed transiciona el pago a Failed. Devuelve false si ya es final.
func (p *Payment) MarkFailed() bool {
	if p.Status != PaymentInitiated {
		return false
	}
	p.Status = PaymentFailed
	return true
}

// PartitionKey agrupa los eventos del pago por usuario para preservar el
// orden relativo de sus pagos en el transporte.
func (p *Payment) PartitionKey() string {
	return p.UserID.String()
}
