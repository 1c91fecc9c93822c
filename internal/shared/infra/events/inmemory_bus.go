package events

import (
	"context"
	"encoding/json"
	"sync"

	sharedEvents "github.com/davicafu/viajelab/internal/shared/events"
	sharedBus "github.com/davicafu/viajelab/internal/shared/infra/platform/bus"
)

// InMemoryEventBus implementa un bus de eventos en memoria para UN solo topic.
// Sirve para despliegues locales y tests, con la misma semántica de
// "publicar = entregar bytes de la envoltura" que el adapter de Kafka.
type InMemoryEventBus struct {
	subscribers []chan []byte
	mu          sync.RWMutex
	topic       string
}

// Verifica en tiempo de compilación que cumple la interfaz
var _ sharedBus.EventPublisher = (*InMemoryEventBus)(nil)

// NewInMemoryEventBus crea un bus de eventos para un topic específico.
func NewInMemoryEventBus(topic string) *InMemoryEventBus {
	return &InMemoryEventBus{
		subscribers: make([]chan []byte, 0),
		topic:       topic,
	}
}

// Publish envía la envoltura serializada a todos los suscriptores.
func (b *InMemoryEventBus) Publish(ctx context.Context, event sharedEvents.IntegrationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, subChan := range b.subscribers {
		select {
		case subChan <- payload:
		default:
			// Suscriptor saturado: se descarta, igual que un broker con
			// retención agotada. Los backstops reparan la divergencia.
		}
	}
	return nil
}

// Send es hoy idéntico a Publish; ver el contrato en el port.
func (b *InMemoryEventBus) Send(ctx context.Context, event sharedEvents.IntegrationEvent) error {
	return b.Publish(ctx, event)
}

// Subscribe suscribe un nuevo oyente a este bus.
func (b *InMemoryEventBus) Subscribe(bufferSize int) <-chan []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	subChan := make(chan []byte, bufferSize)
	b.subscribers = append(b.subscribers, subChan)
	return subChan
}

// BackgroundConsumerChan conecta un canal de suscripción con un handler,
// imitando el bucle del consumidor de Kafka para despliegues en memoria.
func BackgroundConsumerChan(ctx context.Context, ch <-chan []byte, handler MessageHandler) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case payload := <-ch:
				// En memoria no hay reentrega: el error ya queda logueado
				// por el handler y los backstops hacen de red de seguridad.
				_ = handler.HandleMessage(ctx, "", payload)
			}
		}
	}()
}
