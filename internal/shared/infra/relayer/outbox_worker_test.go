package relayer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
	sharedEvents "github.com/davicafu/viajelab/internal/shared/events"
	"github.com/davicafu/viajelab/tests/mocks"
)

func pendingEvent(t *testing.T, eventType string) sharedDomain.OutboxEvent {
	t.Helper()
	envelope, err := sharedEvents.NewIntegrationEvent(eventType, "test", struct{}{})
	assert.NoError(t, err)
	return sharedDomain.NewOutboxEvent("order", "agg-1", envelope)
}

func TestProcessBatch_PublishesAndMarks(t *testing.T) {
	evt := pendingEvent(t, "order.completed")
	repo := mocks.NewInMemoryOutboxRepo(evt)
	publisher := &mocks.DummyPublisher{}

	worker := NewOutboxWorker(repo, publisher, time.Second, 10, 3, zap.NewNop())
	worker.ProcessBatch(context.Background())

	assert.Equal(t, []string{"order.completed"}, publisher.PublishedTypes())
	// La envoltura publicada conserva la identidad original.
	assert.Equal(t, evt.Envelope.ID, publisher.Published[0].ID)

	stored, ok := repo.Find(evt.ID)
	assert.True(t, ok)
	assert.True(t, stored.Processed)

	// La siguiente pasada no encuentra nada pendiente.
	worker.ProcessBatch(context.Background())
	assert.Len(t, publisher.Published, 1)
}

func TestProcessBatch_FailureRecordsAttempt(t *testing.T) {
	evt := pendingEvent(t, "order.completed")
	repo := mocks.NewInMemoryOutboxRepo(evt)
	publisher := &mocks.DummyPublisher{FailTimes: 1}

	worker := NewOutboxWorker(repo, publisher, time.Second, 10, 3, zap.NewNop())
	worker.ProcessBatch(context.Background())

	stored, _ := repo.Find(evt.ID)
	assert.False(t, stored.Processed)
	assert.Equal(t, 1, stored.Attempts)

	// El broker se recupera: el siguiente tick publica el mismo evento.
	worker.ProcessBatch(context.Background())
	stored, _ = repo.Find(evt.ID)
	assert.True(t, stored.Processed)
	assert.Equal(t, evt.Envelope.ID, publisher.Published[0].ID)
}

func TestProcessBatch_ParksAfterMaxAttempts(t *testing.T) {
	evt := pendingEvent(t, "order.completed")
	repo := mocks.NewInMemoryOutboxRepo(evt)
	publisher := &mocks.DummyPublisher{FailTimes: 10}

	worker := NewOutboxWorker(repo, publisher, time.Second, 10, 3, zap.NewNop())
	for i := 0; i < 5; i++ {
		worker.ProcessBatch(context.Background())
	}

	stored, _ := repo.Find(evt.ID)
	assert.True(t, stored.Parked)
	assert.Equal(t, 3, stored.Attempts)
	assert.Empty(t, publisher.Published)
}

func TestProcessBatch_EveryStoreReachesTheBus(t *testing.T) {
	// Un despliegue puede tener dos almacenes de outbox (tabla SQL y
	// colección de documentos); cada uno lleva su propio worker contra el
	// mismo publicador y ninguna fila se queda sin relevar.
	sqlEvt := pendingEvent(t, "wallet.create_retry")
	docEvt := pendingEvent(t, "order.completed")
	sqlStore := mocks.NewInMemoryOutboxRepo(sqlEvt)
	docStore := mocks.NewInMemoryOutboxRepo(docEvt)
	publisher := &mocks.DummyPublisher{}

	NewOutboxWorker(sqlStore, publisher, time.Second, 10, 3, zap.NewNop()).ProcessBatch(context.Background())
	NewOutboxWorker(docStore, publisher, time.Second, 10, 3, zap.NewNop()).ProcessBatch(context.Background())

	assert.ElementsMatch(t, []string{"wallet.create_retry", "order.completed"}, publisher.PublishedTypes())

	stored, _ := sqlStore.Find(sqlEvt.ID)
	assert.True(t, stored.Processed)
	stored, _ = docStore.Find(docEvt.ID)
	assert.True(t, stored.Processed)
}

func TestProcessBatch_OneFailureDoesNotStopTheBatch(t *testing.T) {
	a := pendingEvent(t, "order.completed")
	b := pendingEvent(t, "order.expired")
	repo := mocks.NewInMemoryOutboxRepo(a, b)
	publisher := &mocks.DummyPublisher{FailTimes: 1}

	worker := NewOutboxWorker(repo, publisher, time.Second, 10, 3, zap.NewNop())
	worker.ProcessBatch(context.Background())

	// El primero falló pero el segundo se publicó igualmente.
	assert.Equal(t, []string{"order.expired"}, publisher.PublishedTypes())
}
