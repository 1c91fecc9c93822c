package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
)

// InMemoryOutboxRepo simula la tabla outbox con la semántica completa de
// intentos y aparcado que usa el relayer.
type InMemoryOutboxRepo struct {
	Events []sharedDomain.OutboxEvent
	mu     sync.Mutex
}

var _ sharedDomain.OutboxRepository = (*InMemoryOutboxRepo)(nil)

func NewInMemoryOutboxRepo(evts ...sharedDomain.OutboxEvent) *InMemoryOutboxRepo {
	return &InMemoryOutboxRepo{Events: evts}
}

func (r *InMemoryOutboxRepo) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var pending []sharedDomain.OutboxEvent
	for _, evt := range r.Events {
		if evt.Processed || evt.Parked {
			continue
		}
		pending = append(pending, evt)
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (r *InMemoryOutboxRepo) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.Events {
		if r.Events[i].ID == id {
			r.Events[i].Processed = true
			return nil
		}
	}
	return errors.New("outbox event not found")
}

func (r *InMemoryOutboxRepo) RecordOutboxFailure(ctx context.Context, id uuid.UUID, maxAttempts int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.Events {
		if r.Events[i].ID == id {
			r.Events[i].Attempts++
			if r.Events[i].Attempts >= maxAttempts {
				r.Events[i].Parked = true
			}
			return nil
		}
	}
	return errors.New("outbox event not found")
}

// Find devuelve el evento por id (solo para asserts).
func (r *InMemoryOutboxRepo) Find(id uuid.UUID) (sharedDomain.OutboxEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, evt := range r.Events {
		if evt.ID == id {
			return evt, true
		}
	}
	return sharedDomain.OutboxEvent{}, false
}
