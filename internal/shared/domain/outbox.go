package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	sharedEvents "github.com/davicafu/viajelab/internal/shared/events"
)

// OutboxEvent representa un evento pendiente de publicar en el broker.
// Se inserta en la misma transacción que el cambio local que lo origina,
// de modo que nunca hay eventos "fantasma" de operaciones fallidas.
type OutboxEvent struct {
	ID            uuid.UUID                     `json:"id"`
	AggregateType string                        `json:"aggregate_type"` // ej. "order", "wallet", "user"
	AggregateID   string                        `json:"aggregate_id"`
	EventType     string                        `json:"event_type"` // ej. "order.completed"
	Envelope      sharedEvents.IntegrationEvent `json:"envelope"`   // envoltura completa, lista para publicar
	CreatedAt     time.Time                     `json:"created_at"`
	Attempts      int                           `json:"attempts"`  // publicaciones fallidas acumuladas
	Processed     bool                          `json:"processed"` // si ya se publicó
	Parked        bool                          `json:"parked"`    // apartado tras agotar intentos, requiere inspección manual
}

// NewOutboxEvent construye la fila de outbox para una envoltura ya sellada.
func NewOutboxEvent(aggregateType, aggregateID string, envelope sharedEvents.IntegrationEvent) OutboxEvent {
	return OutboxEvent{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     envelope.Type,
		Envelope:      envelope,
		CreatedAt:     time.Now().UTC(),
	}
}

// OutboxRepository define las operaciones persistentes de la tabla outbox.
type OutboxRepository interface {
	// FetchPendingOutbox obtiene los eventos no procesados ni aparcados, hasta un máximo.
	FetchPendingOutbox(ctx context.Context, limit int) ([]OutboxEvent, error)

	// MarkOutboxProcessed marca un evento como publicado.
	MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error

	// RecordOutboxFailure incrementa los intentos y aparca el evento si alcanzó maxAttempts.
	RecordOutboxFailure(ctx context.Context, id uuid.UUID, maxAttempts int) error
}
