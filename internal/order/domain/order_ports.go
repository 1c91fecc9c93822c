package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
)

// ---------- Errores de dominio ----------
var (
	ErrOrderNotFound      = sharedDomain.NewDomainError("order not found")
	ErrOrderAlreadyExists = sharedDomain.NewDomainError("order already exists")
	ErrInvalidOrder       = sharedDomain.NewDomainError("invalid order")
)

// ---------- Interfaces (Ports) ----------

// OrderRepository define las operaciones persistentes para Order.
// Cada método mutador es una unidad de trabajo: agregado + filas nuevas de
// historial + eventos de outbox se confirman en una sola transacción.
type OrderRepository interface {
	// Debe devolver ErrOrderAlreadyExists si el pedido ya existe.
	Create(ctx context.Context, o *Order, evts ...sharedDomain.OutboxEvent) error

	// Debe devolver ErrOrderNotFound si no existe.
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// Save persiste el estado actual y añade al historial solo las filas
	// que aún no están escritas (append-only).
	Save(ctx context.Context, o *Order, evts ...sharedDomain.OutboxEvent) error

	// SaveBatch confirma varios pedidos en una única transacción; lo usa
	// el barrido de caducidad.
	SaveBatch(ctx context.Context, orders []*Order, evts ...sharedDomain.OutboxEvent) error

	// ListPendingBefore devuelve los pedidos en Pending creados antes del corte.
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*Order, error)
}

// HistorySink recibe filas de historial para análisis (espejo append-only
// del audit trail, fuera del camino transaccional).
type HistorySink interface {
	LogBatch(ctx context.Context, orderID uuid.UUID, changes []StatusChange) error
}

// ---------- Helpers comunes (cache keys, etc.) ----------

// CacheKeyByID forma una key consistente para cache usando ID.
func CacheKeyByID(id uuid.UUID) string {
	return fmt.Sprintf("order:id:%s", id.String())
}
