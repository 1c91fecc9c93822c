package bus

import (
	"context"

	sharedEvents "github.com/davicafu/viajelab/internal/shared/events"
)

// Keyer permite a un mensaje decidir su clave de partición.
type Keyer interface {
	PartitionKey() string
}

// EventPublisher es el contrato de publicación hacia el broker.
// Publish devuelve cuando el broker acepta el evento para entrega durable,
// no cuando los suscriptores lo procesan. Un fallo de transporte se devuelve
// al llamante: el core no reintenta internamente.
//
// Send es hoy idéntico a Publish; se mantiene separado para poder darle
// semántica punto a punto en el futuro sin romper el contrato.
type EventPublisher interface {
	Publish(ctx context.Context, event sharedEvents.IntegrationEvent) error
	Send(ctx context.Context, event sharedEvents.IntegrationEvent) error
}
