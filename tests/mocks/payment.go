package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	paymentDomain "github.com/davicafu/viajelab/internal/payment/domain"
	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
)

// InMemoryPaymentRepo simula PaymentRepository con outbox incluido.
type InMemoryPaymentRepo struct {
	Payments map[uuid.UUID]*paymentDomain.Payment
	Outbox   []sharedDomain.OutboxEvent
	mu       sync.Mutex
}

var _ paymentDomain.PaymentRepository = (*InMemoryPaymentRepo)(nil)

func NewInMemoryPaymentRepo() *InMemoryPaymentRepo {
	return &InMemoryPaymentRepo{
		Payments: make(map[uuid.UUID]*paymentDomain.Payment),
	}
}

func clonePayment(p *paymentDomain.Payment) *paymentDomain.Payment {
	cp := *p
	return &cp
}

func (r *InMemoryPaymentRepo) Create(ctx context.Context, p *paymentDomain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Payments[p.ID] = clonePayment(p)
	return nil
}

func (r *InMemoryPaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*paymentDomain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.Payments[id]
	if !ok {
		return nil, paymentDomain.ErrPaymentNotFound
	}
	return clonePayment(p), nil
}

func (r *InMemoryPaymentRepo) Save(ctx context.Context, p *paymentDomain.Payment, evts ...sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Payments[p.ID]; !ok {
		return paymentDomain.ErrPaymentNotFound
	}
	r.Payments[p.ID] = clonePayment(p)
	r.Outbox = append(r.Outbox, evts...)
	return nil
}

// OutboxTypes devuelve los tipos de evento encolados en orden (solo para asserts).
func (r *InMemoryPaymentRepo) OutboxTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	types := make([]string, 0, len(r.Outbox))
	for _, evt := range r.Outbox {
		types = append(types, evt.EventType)
	}
	return types
}
