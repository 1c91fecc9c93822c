package bus

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
	sharedEvents "github.com/davicafu/viajelab/internal/shared/events"
)

func mustEvent(t *testing.T, eventType string) sharedEvents.IntegrationEvent {
	t.Helper()
	evt, err := sharedEvents.NewIntegrationEvent(eventType, "test", struct{}{})
	assert.NoError(t, err)
	return evt
}

func TestDispatcher_RoutesByTypeInOrder(t *testing.T) {
	d := NewDispatcher(zap.NewNop())

	var calls []string
	d.Register("a.happened", func(ctx context.Context, evt sharedEvents.IntegrationEvent) error {
		calls = append(calls, "first")
		return nil
	})
	d.Register("a.happened", func(ctx context.Context, evt sharedEvents.IntegrationEvent) error {
		calls = append(calls, "second")
		return nil
	})
	d.Register("b.happened", func(ctx context.Context, evt sharedEvents.IntegrationEvent) error {
		calls = append(calls, "other")
		return nil
	})
	d.Freeze()

	assert.NoError(t, d.Dispatch(context.Background(), mustEvent(t, "a.happened")))
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatcher_UnknownTypeIsNotAnError(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	d.Freeze()

	assert.NoError(t, d.Dispatch(context.Background(), mustEvent(t, "nobody.cares")))
}

func TestDispatcher_RegisterAfterFreezePanics(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	d.Freeze()

	assert.Panics(t, func() {
		d.Register("late.event", func(ctx context.Context, evt sharedEvents.IntegrationEvent) error {
			return nil
		})
	})
}

func TestDispatcher_DomainErrorIsSwallowed(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	d.Register("a.happened", func(ctx context.Context, evt sharedEvents.IntegrationEvent) error {
		return sharedDomain.NewDomainError("business rule violated")
	})
	d.Freeze()

	// Una violación de dominio no debe provocar reentrega.
	assert.NoError(t, d.Dispatch(context.Background(), mustEvent(t, "a.happened")))
}

func TestDispatcher_TransientErrorPropagates(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	d.Register("a.happened", func(ctx context.Context, evt sharedEvents.IntegrationEvent) error {
		return errors.New("db unavailable")
	})
	var secondCalled bool
	d.Register("a.happened", func(ctx context.Context, evt sharedEvents.IntegrationEvent) error {
		secondCalled = true
		return nil
	})
	d.Freeze()

	err := d.Dispatch(context.Background(), mustEvent(t, "a.happened"))
	assert.Error(t, err)
	// El primer fallo corta la cadena.
	assert.False(t, secondCalled)
}

func TestDispatcher_HandleMessage(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	var got sharedEvents.IntegrationEvent
	d.Register("a.happened", func(ctx context.Context, evt sharedEvents.IntegrationEvent) error {
		got = evt
		return nil
	})
	d.Freeze()

	evt := mustEvent(t, "a.happened")
	payload, _ := json.Marshal(evt)
	assert.NoError(t, d.HandleMessage(context.Background(), "key", payload))
	assert.Equal(t, evt.ID, got.ID)
}

func TestDispatcher_HandleMessage_MalformedIsDropped(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	d.Freeze()

	// Un mensaje ilegible no debe reentregarse: deserializará igual de mal.
	assert.NoError(t, d.HandleMessage(context.Background(), "key", []byte("not json")))
}

func TestDispatcher_ConcurrentDispatchAfterFreeze(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	var mu sync.Mutex
	count := 0
	d.Register("a.happened", func(ctx context.Context, evt sharedEvents.IntegrationEvent) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})
	d.Freeze()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, d.Dispatch(context.Background(), mustEvent(t, "a.happened")))
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, count)
}
