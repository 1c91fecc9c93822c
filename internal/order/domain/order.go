package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	sharedBus "github.com/davicafu/viajelab/internal/shared/infra/platform/bus"
)

// Status es el estado de ciclo de vida de un pedido.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
	StatusExpired    Status = "Expired"
)

// reachable es la tabla de transiciones permitidas. Completed, Cancelled y
// Expired son terminales: no tienen aristas de salida.
var reachable = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled, StatusExpired},
	StatusProcessing: {StatusCompleted, StatusCancelled},
}

// CanTransitionTo indica si target es alcanzable desde s.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range reachable[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal indica si el estado no tiene transiciones de salida.
func (s Status) IsTerminal() bool {
	return len(reachable[s]) == 0
}

// StatusChange es una fila del historial de estados. El historial es
// append-only: es la pista de auditoría y nunca se muta ni se borra.
type StatusChange struct {
	Status    Status    `json:"status"`
	Reason    string    `json:"reason"`
	ChangedAt time.Time `json:"changed_at"`
}

// Order es el agregado de pedido. Lo muta en exclusiva el contexto de
// pedidos; otros contextos solo lo referencian por id dentro de eventos.
type Order struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	LastStatus  Status          `json:"last_status"`
	CreatedAt   time.Time       `json:"created_at"`
	History     []StatusChange  `json:"history"`
}

// NewOrder crea un pedido en estado Pending con su primera fila de historial.
func NewOrder(userID uuid.UUID, totalAmount decimal.Decimal, currency string, now time.Time) *Order {
	return &Order{
		ID:          uuid.New(),
		UserID:      userID,
		TotalAmount: totalAmount,
		Currency:    currency,
		LastStatus:  StatusPending,
		CreatedAt:   now,
		History: []StatusChange{
			{Status: StatusPending, Reason: "order created", ChangedAt: now},
		},
	}
}

// TransitionTo aplica una transición solo si el destino difiere del estado
// actual Y es alcanzable según la tabla; en otro caso es un no-op silencioso.
// Esa regla es la que permite reproducir sin daño eventos duplicados o fuera
// de orden. Devuelve true si hubo cambio.
func (o *Order) TransitionTo(target Status, reason string, now time.Time) bool {
	if target == o.LastStatus {
		return false
	}
	if !o.LastStatus.CanTransitionTo(target) {
		return false
	}

	o.LastStatus = target
	o.History = append(o.History, StatusChange{
		Status:    target,
		Reason:    reason,
		ChangedAt: now,
	})
	return true
}

func (o *Order) PartitionKey() string {
	return o.ID.String()
}

// Verificación estática para asegurar que Order implementa la interfaz
var _ sharedBus.Keyer = (*Order)(nil)
