package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estos son contratos de integración, NO entidades del dominio.
// Se definen planos para intercambio entre contextos.

// Tags del conjunto cerrado de tipos de evento del contexto de pago.
const (
	TypePaymentVerified  = "payment.verified"
	TypePaymentProcessed = "payment.processed"
)

// PaymentVerified lo emite el contexto de pago cuando la pasarela confirma
// un cobro. El wallet lo consume para asentar la transacción en el ledger.
type PaymentVerified struct {
	PaymentID        uuid.UUID       `json:"payment_id"`
	GatewayReference string          `json:"gateway_reference"`
	UserID           uuid.UUID       `json:"user_id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	TransactionID    string          `json:"transaction_id"`
	TrackingCode     string          `json:"tracking_code,omitempty"`
	VerifiedAt       time.Time       `json:"verified_at"`
	OrderID          *uuid.UUID      `json:"order_id,omitempty"` // contexto de pedido, si el pago viene de uno
}

// PaymentProcessed comunica al contexto de pedidos el desenlace de un pago.
type PaymentProcessed struct {
	OrderID       uuid.UUID `json:"order_id"`
	IsSuccess     bool      `json:"is_success"`
	TransactionID string    `json:"transaction_id"`
}
