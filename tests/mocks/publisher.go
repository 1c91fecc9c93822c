package mocks

import (
	"context"
	"errors"
	"sync"

	sharedEvents "github.com/davicafu/viajelab/internal/shared/events"
	sharedBus "github.com/davicafu/viajelab/internal/shared/infra/platform/bus"
)

// DummyPublisher registra las envolturas publicadas. Con FailTimes > 0 los
// primeros intentos fallan, para probar los reintentos del outbox worker.
type DummyPublisher struct {
	Published []sharedEvents.IntegrationEvent
	FailTimes int
	mu        sync.Mutex
}

var _ sharedBus.EventPublisher = (*DummyPublisher)(nil)

func (p *DummyPublisher) Publish(ctx context.Context, event sharedEvents.IntegrationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.FailTimes > 0 {
		p.FailTimes--
		return errors.New("simulated broker failure")
	}
	p.Published = append(p.Published, event)
	return nil
}

func (p *DummyPublisher) Send(ctx context.Context, event sharedEvents.IntegrationEvent) error {
	return p.Publish(ctx, event)
}

// PublishedTypes devuelve los tipos publicados en orden (solo para asserts).
func (p *DummyPublisher) PublishedTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	types := make([]string, 0, len(p.Published))
	for _, evt := range p.Published {
		types = append(types, evt.Type)
	}
	return types
}
