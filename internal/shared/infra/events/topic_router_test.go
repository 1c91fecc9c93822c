package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	sharedEvents "github.com/davicafu/viajelab/internal/shared/events"
	"github.com/davicafu/viajelab/tests/mocks"
)

func TestTopicRouter_RoutesByPrefix(t *testing.T) {
	orders := &mocks.DummyPublisher{}
	wallets := &mocks.DummyPublisher{}
	fallback := &mocks.DummyPublisher{}

	router := NewTopicRouter(fallback).
		Route("order", orders).
		Route("wallet", wallets)

	orderEvt, _ := sharedEvents.NewIntegrationEvent("order.completed", "test", struct{}{})
	walletEvt, _ := sharedEvents.NewIntegrationEvent("wallet.create_retry", "test", struct{}{})
	otherEvt, _ := sharedEvents.NewIntegrationEvent("billing.invoiced", "test", struct{}{})

	assert.NoError(t, router.Publish(context.Background(), orderEvt))
	assert.NoError(t, router.Publish(context.Background(), walletEvt))
	assert.NoError(t, router.Publish(context.Background(), otherEvt))

	assert.Equal(t, []string{"order.completed"}, orders.PublishedTypes())
	assert.Equal(t, []string{"wallet.create_retry"}, wallets.PublishedTypes())
	assert.Equal(t, []string{"billing.invoiced"}, fallback.PublishedTypes())
}

func TestInMemoryEventBus_DeliversToSubscribers(t *testing.T) {
	bus := NewInMemoryEventBus("order-events")
	ch := bus.Subscribe(1)

	evt, _ := sharedEvents.NewIntegrationEvent("order.completed", "test", struct{}{})
	assert.NoError(t, bus.Publish(context.Background(), evt))

	payload := <-ch
	assert.Contains(t, string(payload), "order.completed")
}

func TestInMemoryEventBus_SaturatedSubscriberDropsMessage(t *testing.T) {
	bus := NewInMemoryEventBus("order-events")
	ch := bus.Subscribe(1)

	a, _ := sharedEvents.NewIntegrationEvent("order.completed", "test", struct{}{})
	b, _ := sharedEvents.NewIntegrationEvent("order.expired", "test", struct{}{})

	assert.NoError(t, bus.Publish(context.Background(), a))
	// El buffer está lleno: el segundo se descarta en vez de bloquear.
	assert.NoError(t, bus.Publish(context.Background(), b))

	assert.Len(t, ch, 1)
}
