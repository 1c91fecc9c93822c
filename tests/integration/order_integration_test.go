package integration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	_ "modernc.org/sqlite"

	orderDomain "github.com/davicafu/viajelab/internal/order/domain"
	orderSQLite "github.com/davicafu/viajelab/internal/order/infra/outbound/db/sqlite"
	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
	sharedEvents "github.com/davicafu/viajelab/internal/shared/events"
	sharedSQLite "github.com/davicafu/viajelab/internal/shared/infra/db/sqlite"
)

func setupOrderDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	assert.NoError(t, err)
	assert.NoError(t, sharedSQLite.InitOutboxSQLite(db))
	assert.NoError(t, orderSQLite.InitSQLite(db))
	return db
}

func TestOrderSQLiteIntegration_CreateGetSave(t *testing.T) {
	db := setupOrderDB(t)
	defer db.Close()

	repo := orderSQLite.NewOrderRepoSQLite(db)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	order := orderDomain.NewOrder(uuid.New(), decimal.NewFromInt(150), "EUR", now)
	assert.NoError(t, repo.Create(ctx, order))
	assert.ErrorIs(t, repo.Create(ctx, order), orderDomain.ErrOrderAlreadyExists)

	got, err := repo.GetByID(ctx, order.ID)
	assert.NoError(t, err)
	assert.Equal(t, orderDomain.StatusPending, got.LastStatus)
	assert.Len(t, got.History, 1)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(150)))

	// Transición + Save: el historial crece de forma append-only.
	assert.True(t, got.TransitionTo(orderDomain.StatusProcessing, "payment verified", now.Add(time.Minute)))
	assert.NoError(t, repo.Save(ctx, got))

	reloaded, err := repo.GetByID(ctx, got.ID)
	assert.NoError(t, err)
	assert.Equal(t, orderDomain.StatusProcessing, reloaded.LastStatus)
	assert.Len(t, reloaded.History, 2)
	assert.Equal(t, "payment verified", reloaded.History[1].Reason)

	// Releer y reescribir sin cambios no duplica historial.
	assert.NoError(t, repo.Save(ctx, reloaded))
	again, _ := repo.GetByID(ctx, reloaded.ID)
	assert.Len(t, again.History, 2)
}

func TestOrderSQLiteIntegration_SaveWithOutboxSharesTransaction(t *testing.T) {
	db := setupOrderDB(t)
	defer db.Close()

	repo := orderSQLite.NewOrderRepoSQLite(db)
	outbox := sharedSQLite.NewOutboxRepoSQLite(db)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	order := orderDomain.NewOrder(uuid.New(), decimal.NewFromInt(99), "EUR", now)
	assert.NoError(t, repo.Create(ctx, order))
	order.TransitionTo(orderDomain.StatusProcessing, "payment verified", now)
	order.TransitionTo(orderDomain.StatusCompleted, "tickets issued", now.Add(time.Minute))

	envelope, err := sharedEvents.NewIntegrationEvent(sharedEvents.TypeOrderCompleted, "order-service", sharedEvents.OrderCompleted{
		OrderID: order.ID,
		UserID:  order.UserID,
	}, sharedEvents.WithCorrelationID(order.ID.String()))
	assert.NoError(t, err)

	evt := sharedDomain.NewOutboxEvent("order", order.ID.String(), envelope)
	assert.NoError(t, repo.Save(ctx, order, evt))

	pending, err := outbox.FetchPendingOutbox(ctx, 10)
	assert.NoError(t, err)
	assert.Len(t, pending, 1)
	// La envoltura sale de la BBDD con la misma identidad con la que entró.
	assert.Equal(t, envelope.ID, pending[0].Envelope.ID)
	assert.Equal(t, sharedEvents.TypeOrderCompleted, pending[0].Envelope.Type)
	assert.Equal(t, order.ID.String(), pending[0].Envelope.CorrelationID)

	assert.NoError(t, outbox.MarkOutboxProcessed(ctx, pending[0].ID))
	pending, _ = outbox.FetchPendingOutbox(ctx, 10)
	assert.Empty(t, pending)
}

func TestOrderSQLiteIntegration_ListPendingBefore(t *testing.T) {
	db := setupOrderDB(t)
	defer db.Close()

	repo := orderSQLite.NewOrderRepoSQLite(db)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	stale := orderDomain.NewOrder(uuid.New(), decimal.NewFromInt(10), "EUR", now.Add(-3*time.Hour))
	fresh := orderDomain.NewOrder(uuid.New(), decimal.NewFromInt(20), "EUR", now)
	paid := orderDomain.NewOrder(uuid.New(), decimal.NewFromInt(30), "EUR", now.Add(-3*time.Hour))
	paid.TransitionTo(orderDomain.StatusProcessing, "payment verified", now)

	assert.NoError(t, repo.Create(ctx, stale))
	assert.NoError(t, repo.Create(ctx, fresh))
	assert.NoError(t, repo.Create(ctx, paid))

	list, err := repo.ListPendingBefore(ctx, now.Add(-2*time.Hour))
	assert.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, stale.ID, list[0].ID)
}

func TestOutboxSQLiteIntegration_FailureParks(t *testing.T) {
	db := setupOrderDB(t)
	defer db.Close()

	outbox := sharedSQLite.NewOutboxRepoSQLite(db)
	repo := orderSQLite.NewOrderRepoSQLite(db)
	ctx := context.Background()

	order := orderDomain.NewOrder(uuid.New(), decimal.NewFromInt(10), "EUR", time.Now().UTC())
	envelope, _ := sharedEvents.NewIntegrationEvent(sharedEvents.TypeOrderExpired, "order-service", sharedEvents.OrderExpired{OrderID: order.ID})
	assert.NoError(t, repo.Create(ctx, order, sharedDomain.NewOutboxEvent("order", order.ID.String(), envelope)))

	pending, _ := outbox.FetchPendingOutbox(ctx, 10)
	assert.Len(t, pending, 1)
	id := pending[0].ID

	assert.NoError(t, outbox.RecordOutboxFailure(ctx, id, 2))
	pending, _ = outbox.FetchPendingOutbox(ctx, 10)
	assert.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)

	// Segundo fallo: alcanza maxAttempts y queda aparcado.
	assert.NoError(t, outbox.RecordOutboxFailure(ctx, id, 2))
	pending, _ = outbox.FetchPendingOutbox(ctx, 10)
	assert.Empty(t, pending)
}
