package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/davicafu/viajelab/internal/payment/domain"
	sharedEvents "github.com/davicafu/viajelab/internal/shared/events"
	"github.com/davicafu/viajelab/tests/mocks"
)

func newPaymentService(t *testing.T) (*PaymentService, *mocks.InMemoryPaymentRepo) {
	t.Helper()
	repo := mocks.NewInMemoryPaymentRepo()
	clock := mocks.NewFixedClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	return NewPaymentService(repo, clock, zap.NewNop()), repo
}

func TestInitiatePayment_Success(t *testing.T) {
	service, repo := newPaymentService(t)

	payment, err := service.InitiatePayment(context.Background(), uuid.New(), nil, decimal.NewFromInt(100), "EUR", "gw-ref-1")
	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentInitiated, payment.Status)
	assert.NotEmpty(t, payment.TransactionID)
	assert.Len(t, repo.Payments, 1)
}

func TestInitiatePayment_Invalid(t *testing.T) {
	service, _ := newPaymentService(t)

	_, err := service.InitiatePayment(context.Background(), uuid.New(), nil, decimal.Zero, "EUR", "gw-ref-1")
	assert.ErrorIs(t, err, domain.ErrInvalidPayment)

	_, err = service.InitiatePayment(context.Background(), uuid.New(), nil, decimal.NewFromInt(10), "", "gw-ref-1")
	assert.ErrorIs(t, err, domain.ErrInvalidPayment)
}

func TestResolvePayment_SuccessEmitsBothEvents(t *testing.T) {
	service, repo := newPaymentService(t)
	orderID := uuid.New()
	payment, _ := service.InitiatePayment(context.Background(), uuid.New(), &orderID, decimal.NewFromInt(100), "EUR", "gw-ref-1")

	assert.NoError(t, service.ResolvePayment(context.Background(), payment.ID, true))

	stored, _ := repo.GetByID(context.Background(), payment.ID)
	assert.Equal(t, domain.PaymentVerified, stored.Status)
	assert.NotNil(t, stored.VerifiedAt)

	// El ledger recibe payment.verified y el pedido payment.processed.
	assert.Equal(t, []string{sharedEvents.TypePaymentVerified, sharedEvents.TypePaymentProcessed}, repo.OutboxTypes())
}

func TestResolvePayment_WithoutOrderOnlyVerified(t *testing.T) {
	service, repo := newPaymentService(t)
	payment, _ := service.InitiatePayment(context.Background(), uuid.New(), nil, decimal.NewFromInt(100), "EUR", "gw-ref-1")

	assert.NoError(t, service.ResolvePayment(context.Background(), payment.ID, true))
	assert.Equal(t, []string{sharedEvents.TypePaymentVerified}, repo.OutboxTypes())
}

func TestResolvePayment_FailureOnlyProcessed(t *testing.T) {
	service, repo := newPaymentService(t)
	orderID := uuid.New()
	payment, _ := service.InitiatePayment(context.Background(), uuid.New(), &orderID, decimal.NewFromInt(100), "EUR", "gw-ref-1")

	assert.NoError(t, service.ResolvePayment(context.Background(), payment.ID, false))

	stored, _ := repo.GetByID(context.Background(), payment.ID)
	assert.Equal(t, domain.PaymentFailed, stored.Status)
	assert.Equal(t, []string{sharedEvents.TypePaymentProcessed}, repo.OutboxTypes())
}

func TestResolvePayment_DoubleResolveIsNoOp(t *testing.T) {
	service, repo := newPaymentService(t)
	orderID := uuid.New()
	payment, _ := service.InitiatePayment(context.Background(), uuid.New(), &orderID, decimal.NewFromInt(100), "EUR", "gw-ref-1")

	assert.NoError(t, service.ResolvePayment(context.Background(), payment.ID, true))
	// Callback duplicado de la pasarela: sin eventos nuevos ni cambio de estado.
	assert.NoError(t, service.ResolvePayment(context.Background(), payment.ID, true))
	assert.NoError(t, service.ResolvePayment(context.Background(), payment.ID, false))

	stored, _ := repo.GetByID(context.Background(), payment.ID)
	assert.Equal(t, domain.PaymentVerified, stored.Status)
	assert.Len(t, repo.Outbox, 2)
}

func TestResolvePayment_NotFound(t *testing.T) {
	service, _ := newPaymentService(t)

	err := service.ResolvePayment(context.Background(), uuid.New(), true)
	assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
}
