package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	orderDomain "github.com/davicafu/viajelab/internal/order/domain"
	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
)

// InMemoryOrderRepo simula OrderRepository con outbox incluido. Guarda copias
// para que las mutaciones en memoria del servicio no "persistan" sin Save,
// igual que contra una BBDD real.
type InMemoryOrderRepo struct {
	Orders map[uuid.UUID]*orderDomain.Order
	Outbox []sharedDomain.OutboxEvent
	mu     sync.Mutex
}

var _ orderDomain.OrderRepository = (*InMemoryOrderRepo)(nil)

func NewInMemoryOrderRepo() *InMemoryOrderRepo {
	return &InMemoryOrderRepo{
		Orders: make(map[uuid.UUID]*orderDomain.Order),
		Outbox: []sharedDomain.OutboxEvent{},
	}
}

func cloneOrder(o *orderDomain.Order) *orderDomain.Order {
	cp := *o
	cp.History = append([]orderDomain.StatusChange(nil), o.History...)
	return &cp
}

func (r *InMemoryOrderRepo) Create(ctx context.Context, o *orderDomain.Order, evts ...sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Orders[o.ID]; ok {
		return orderDomain.ErrOrderAlreadyExists
	}
	r.Orders[o.ID] = cloneOrder(o)
	r.Outbox = append(r.Outbox, evts...)
	return nil
}

func (r *InMemoryOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.Orders[id]
	if !ok {
		return nil, orderDomain.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r *InMemoryOrderRepo) Save(ctx context.Context, o *orderDomain.Order, evts ...sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Orders[o.ID]; !ok {
		return orderDomain.ErrOrderNotFound
	}
	r.Orders[o.ID] = cloneOrder(o)
	r.Outbox = append(r.Outbox, evts...)
	return nil
}

func (r *InMemoryOrderRepo) SaveBatch(ctx context.Context, orders []*orderDomain.Order, evts ...sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range orders {
		if _, ok := r.Orders[o.ID]; !ok {
			return orderDomain.ErrOrderNotFound
		}
	}
	for _, o := range orders {
		r.Orders[o.ID] = cloneOrder(o)
	}
	r.Outbox = append(r.Outbox, evts...)
	return nil
}

func (r *InMemoryOrderRepo) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*orderDomain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var list []*orderDomain.Order
	for _, o := range r.Orders {
		if o.LastStatus == orderDomain.StatusPending && o.CreatedAt.Before(cutoff) {
			list = append(list, cloneOrder(o))
		}
	}
	return list, nil
}

// OutboxTypes devuelve los tipos de evento encolados en orden (solo para asserts).
func (r *InMemoryOrderRepo) OutboxTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	types := make([]string, 0, len(r.Outbox))
	for _, evt := range r.Outbox {
		types = append(types, evt.EventType)
	}
	return types
}
