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
	"github.com/davicafu/viajelab/tests/mocks"
)

func TestSweep_ExpiresOnlyStalePending(t *testing.T) {
	repo := mocks.NewInMemoryOrderRepo()
	clock := mocks.NewFixedClock(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))
	service := NewOrderService(repo, mocks.NewDummyCache(), clock, zap.NewNop())

	old, _ := service.CreateOrder(context.Background(), uuid.New(), decimal.NewFromInt(10), "EUR")
	clock.Advance(1 * time.Hour)
	paid, _ := service.CreateOrder(context.Background(), uuid.New(), decimal.NewFromInt(20), "EUR")
	_ = service.ApplyPaymentResult(context.Background(), paid.ID, true, "tx-1")
	clock.Advance(2 * time.Hour)
	recent, _ := service.CreateOrder(context.Background(), uuid.New(), decimal.NewFromInt(30), "EUR")

	sweeper := NewExpirationSweeper(service, time.Minute, 2*time.Hour, zap.NewNop())
	sweeper.Sweep(context.Background())

	// Solo el Pending de hace 3h caduca; el pagado y el reciente no se tocan.
	o, _ := repo.GetByID(context.Background(), old.ID)
	assert.Equal(t, domain.StatusExpired, o.LastStatus)

	p, _ := repo.GetByID(context.Background(), paid.ID)
	assert.Equal(t, domain.StatusProcessing, p.LastStatus)

	r, _ := repo.GetByID(context.Background(), recent.ID)
	assert.Equal(t, domain.StatusPending, r.LastStatus)
}

func TestSweep_SecondPassIsNoOp(t *testing.T) {
	repo := mocks.NewInMemoryOrderRepo()
	clock := mocks.NewFixedClock(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))
	service := NewOrderService(repo, mocks.NewDummyCache(), clock, zap.NewNop())

	_, _ = service.CreateOrder(context.Background(), uuid.New(), decimal.NewFromInt(10), "EUR")
	clock.Advance(3 * time.Hour)

	sweeper := NewExpirationSweeper(service, time.Minute, 2*time.Hour, zap.NewNop())
	sweeper.Sweep(context.Background())
	sweeper.Sweep(context.Background())

	// Un solo evento de caducidad pese a las dos pasadas.
	assert.Len(t, repo.Outbox, 1)
}
