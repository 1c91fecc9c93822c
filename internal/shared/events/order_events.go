package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tags del conjunto cerrado de tipos de evento del contexto de pedidos.
const (
	TypeOrderCompleted = "order.completed"
	TypeOrderExpired   = "order.expired"
)

// OrderCompleted lo emite el contexto de pedidos al cerrar un pedido.
// El contexto de notificaciones lo consume para avisar al usuario.
type OrderCompleted struct {
	OrderID     uuid.UUID       `json:"order_id"`
	UserID      uuid.UUID       `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	CompletedAt time.Time       `json:"completed_at"`
}

// OrderExpired se emite por cada pedido caducado por el barrido periódico.
type OrderExpired struct {
	OrderID   uuid.UUID `json:"order_id"`
	UserID    uuid.UUID `json:"user_id"`
	ExpiredAt time.Time `json:"expired_at"`
}
