package domain

import (
	"context"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
)

// Errores de dominio del contexto de pagos.
var (
	ErrPaymentNotFound  = sharedDomain.NewDomainError("payment not found")
	ErrPaymentFinalized = sharedDomain.NewDomainError("payment already finalized")
	ErrInvalidPayment   = sharedDomain.NewDomainError("invalid payment data")
)

// PaymentRepository define el contrato de persistencia de pagos. Save acepta
// eventos outbox para que la escritura del pago y la publicación diferida
// compartan transacción.
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	Save(ctx context.Context, p *Payment, evts ...sharedDomain.OutboxEvent) error
}
