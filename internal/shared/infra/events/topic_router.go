package events

import (
	"context"
	"strings"

	sharedEvents "github.com/davicafu/viajelab/internal/shared/events"
	sharedBus "github.com/davicafu/viajelab/internal/shared/infra/platform/bus"
)

// TopicRouter reparte las envolturas entre publicadores según el prefijo del
// tipo de evento ("order.completed" → publicador de "order"). Permite que un
// único outbox worker sirva a todos los contextos sin cruzar topics.
type TopicRouter struct {
	routes   map[string]sharedBus.EventPublisher
	fallback sharedBus.EventPublisher
}

func NewTopicRouter(fallback sharedBus.EventPublisher) *TopicRouter {
	return &TopicRouter{
		routes:   make(map[string]sharedBus.EventPublisher),
		fallback: fallback,
	}
}

// Route asocia un prefijo de tipo de evento a un publicador. Se llama solo
// durante el arranque, antes de publicar nada.
func (r *TopicRouter) Route(prefix string, pub sharedBus.EventPublisher) *TopicRouter {
	r.routes[prefix] = pub
	return r
}

func (r *TopicRouter) resolve(eventType string) sharedBus.EventPublisher {
	prefix, _, _ := strings.Cut(eventType, ".")
	if pub, ok := r.routes[prefix]; ok {
		return pub
	}
	return r.fallback
}

func (r *TopicRouter) Publish(ctx context.Context, event sharedEvents.IntegrationEvent) error {
	return r.resolve(event.Type).Publish(ctx, event)
}

func (r *TopicRouter) Send(ctx context.Context, event sharedEvents.IntegrationEvent) error {
	return r.resolve(event.Type).Send(ctx, event)
}

// Verificación estática
var _ sharedBus.EventPublisher = (*TopicRouter)(nil)
