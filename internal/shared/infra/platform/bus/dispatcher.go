package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
	sharedEvents "github.com/davicafu/viajelab/internal/shared/events"
)

// HandlerFunc procesa un evento de integración ya deserializado a envoltura.
// Devuelve nil si el efecto quedó aplicado (o era un duplicado inocuo) y un
// error si no se aplicó nada; el transporte decide entonces la reentrega.
type HandlerFunc func(ctx context.Context, evt sharedEvents.IntegrationEvent) error

// Dispatcher enruta cada evento entrante a sus handlers registrados por tipo.
// Se construye una vez al arrancar el proceso; tras Freeze el mapa es
// inmutable y no existe ningún registro global ambiental.
type Dispatcher struct {
	handlers map[string][]HandlerFunc
	frozen   bool
	log      *zap.Logger
}

// NewDispatcher crea un dispatcher vacío, listo para registrar handlers.
func NewDispatcher(log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]HandlerFunc),
		log:      log,
	}
}

// Register añade un handler al final de la lista ordenada de su tipo.
// Registrar después de Freeze es un error de programación: panic.
func (d *Dispatcher) Register(eventType string, h HandlerFunc) {
	if d.frozen {
		panic("dispatcher: register after freeze")
	}
	d.handlers[eventType] = append(d.handlers[eventType], h)
}

// Freeze sella el mapa de handlers. A partir de aquí el dispatcher es seguro
// para uso concurrente porque ya nadie muta el estado compartido.
func (d *Dispatcher) Freeze() {
	d.frozen = true
}

// Dispatch invoca en orden de registro todos los handlers del tipo del evento.
// Cero handlers registrados no es un error: el evento simplemente no interesa
// a este proceso. El primer fallo corta la cadena y sube al transporte.
func (d *Dispatcher) Dispatch(ctx context.Context, evt sharedEvents.IntegrationEvent) error {
	hs, ok := d.handlers[evt.Type]
	if !ok {
		d.log.Debug("Evento sin handlers registrados", zap.String("type", evt.Type))
		return nil
	}

	for _, h := range hs {
		if err := h(ctx, evt); err != nil {
			if sharedDomain.IsDomain(err) {
				// Violación de dominio: reintentar no puede tener éxito.
				// Se registra y se confirma el mensaje.
				d.log.Warn("Violación de dominio al procesar evento, no se reintenta",
					zap.String("type", evt.Type),
					zap.String("event_id", evt.ID.String()),
					zap.Error(err),
				)
				return nil
			}
			return fmt.Errorf("handler for %s failed: %w", evt.Type, err)
		}
	}
	return nil
}

// HandleMessage adapta el dispatcher al consumidor de Kafka: deserializa la
// envoltura y despacha. Devuelve error para que el adapter no confirme el
// offset y el broker reentregue.
func (d *Dispatcher) HandleMessage(ctx context.Context, key string, payload []byte) error {
	var evt sharedEvents.IntegrationEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		// Un mensaje malformado nunca va a deserializar mejor en la
		// reentrega: se registra y se descarta.
		d.log.Warn("Failed to unmarshal integration event", zap.String("key", key), zap.Error(err))
		return nil
	}
	return d.Dispatch(ctx, evt)
}
