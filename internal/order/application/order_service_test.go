package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/davicafu/viajelab/internal/order/domain"
	sharedEvents "github.com/davicafu/viajelab/internal/shared/events"
	"github.com/davicafu/viajelab/tests/mocks"
)

func newOrderService(t *testing.T) (*OrderService, *mocks.InMemoryOrderRepo, *mocks.FixedClock) {
	t.Helper()
	repo := mocks.NewInMemoryOrderRepo()
	clock := mocks.NewFixedClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	service := NewOrderService(repo, mocks.NewDummyCache(), clock, zap.NewNop())
	return service, repo, clock
}

func TestCreateOrder_Success(t *testing.T) {
	service, repo, _ := newOrderService(t)

	order, err := service.CreateOrder(context.Background(), uuid.New(), decimal.NewFromInt(250), "EUR")
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusPending, order.LastStatus)

	stored, err := repo.GetByID(context.Background(), order.ID)
	assert.NoError(t, err)
	assert.Len(t, stored.History, 1)
}

func TestCreateOrder_Invalid(t *testing.T) {
	service, _, _ := newOrderService(t)

	_, err := service.CreateOrder(context.Background(), uuid.New(), decimal.NewFromInt(-1), "EUR")
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)

	_, err = service.CreateOrder(context.Background(), uuid.New(), decimal.NewFromInt(10), "")
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)
}

func TestApplyPaymentResult_Success(t *testing.T) {
	service, repo, _ := newOrderService(t)
	order, _ := service.CreateOrder(context.Background(), uuid.New(), decimal.NewFromInt(100), "EUR")

	assert.NoError(t, service.ApplyPaymentResult(context.Background(), order.ID, true, "tx-1"))

	stored, _ := repo.GetByID(context.Background(), order.ID)
	assert.Equal(t, domain.StatusProcessing, stored.LastStatus)
	assert.Len(t, stored.History, 2)
}

func TestApplyPaymentResult_DuplicateEventIsNoOp(t *testing.T) {
	service, repo, _ := newOrderService(t)
	order, _ := service.CreateOrder(context.Background(), uuid.New(), decimal.NewFromInt(100), "EUR")

	assert.NoError(t, service.ApplyPaymentResult(context.Background(), order.ID, true, "tx-1"))
	// Reentrega del mismo evento: éxito sin cambios.
	assert.NoError(t, service.ApplyPaymentResult(context.Background(), order.ID, true, "tx-1"))

	stored, _ := repo.GetByID(context.Background(), order.ID)
	assert.Equal(t, domain.StatusProcessing, stored.LastStatus)
	assert.Len(t, stored.History, 2)
}

func TestApplyPaymentResult_FailureCancels(t *testing.T) {
	service, repo, _ := newOrderService(t)
	order, _ := service.CreateOrder(context.Background(), uuid.New(), decimal.NewFromInt(100), "EUR")

	assert.NoError(t, service.ApplyPaymentResult(context.Background(), order.ID, false, "tx-1"))

	stored, _ := repo.GetByID(context.Background(), order.ID)
	assert.Equal(t, domain.StatusCancelled, stored.LastStatus)
}

func TestApplyPaymentResult_OrderNotFound(t *testing.T) {
	service, _, _ := newOrderService(t)

	err := service.ApplyPaymentResult(context.Background(), uuid.New(), true, "tx-1")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestCompleteOrder_EmitsOutboxEvent(t *testing.T) {
	service, repo, _ := newOrderService(t)
	order, _ := service.CreateOrder(context.Background(), uuid.New(), decimal.NewFromInt(100), "EUR")
	_ = service.ApplyPaymentResult(context.Background(), order.ID, true, "tx-1")

	assert.NoError(t, service.CompleteOrder(context.Background(), order.ID, "tickets issued"))

	stored, _ := repo.GetByID(context.Background(), order.ID)
	assert.Equal(t, domain.StatusCompleted, stored.LastStatus)
	assert.Equal(t, []string{sharedEvents.TypeOrderCompleted}, repo.OutboxTypes())

	// Cerrar dos veces no emite un segundo evento.
	assert.NoError(t, service.CompleteOrder(context.Background(), order.ID, "tickets issued"))
	assert.Len(t, repo.Outbox, 1)
}

func TestCompleteOrder_FromPendingIsNoOp(t *testing.T) {
	service, repo, _ := newOrderService(t)
	order, _ := service.CreateOrder(context.Background(), uuid.New(), decimal.NewFromInt(100), "EUR")

	// Sin pasar por Processing el cierre no es alcanzable.
	assert.NoError(t, service.CompleteOrder(context.Background(), order.ID, "tickets issued"))

	stored, _ := repo.GetByID(context.Background(), order.ID)
	assert.Equal(t, domain.StatusPending, stored.LastStatus)
	assert.Empty(t, repo.Outbox)
}

func TestExpireStale_BatchAndEvents(t *testing.T) {
	service, repo, clock := newOrderService(t)

	stale, _ := service.CreateOrder(context.Background(), uuid.New(), decimal.NewFromInt(10), "EUR")
	clock.Advance(3 * time.Hour)
	fresh, _ := service.CreateOrder(context.Background(), uuid.New(), decimal.NewFromInt(20), "EUR")

	n, err := service.ExpireStale(context.Background(), 2*time.Hour)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)

	expired, _ := repo.GetByID(context.Background(), stale.ID)
	assert.Equal(t, domain.StatusExpired, expired.LastStatus)
	assert.Equal(t, "automatically expired due to timeout", expired.History[len(expired.History)-1].Reason)

	untouched, _ := repo.GetByID(context.Background(), fresh.ID)
	assert.Equal(t, domain.StatusPending, untouched.LastStatus)

	assert.Equal(t, []string{sharedEvents.TypeOrderExpired}, repo.OutboxTypes())

	// Una segunda pasada no encuentra nada.
	n, err = service.ExpireStale(context.Background(), 2*time.Hour)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestGetOrder_CacheAside(t *testing.T) {
	repo := mocks.NewInMemoryOrderRepo()
	cache := mocks.NewDummyCache()
	clock := mocks.NewFixedClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	service := NewOrderService(repo, cache, clock, zap.NewNop())

	order, _ := service.CreateOrder(context.Background(), uuid.New(), decimal.NewFromInt(100), "EUR")

	got, err := service.GetOrder(context.Background(), order.ID)
	assert.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = service.GetOrder(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
