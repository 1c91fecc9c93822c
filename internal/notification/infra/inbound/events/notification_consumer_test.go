package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	notificationApp "github.com/davicafu/viajelab/internal/notification/application"
	"github.com/davicafu/viajelab/internal/notification/infra/outbound/directory"
	sharedEvents "github.com/davicafu/viajelab/internal/shared/events"
	sharedBus "github.com/davicafu/viajelab/internal/shared/infra/platform/bus"
	userDomain "github.com/davicafu/viajelab/internal/user/domain"
	"github.com/davicafu/viajelab/tests/mocks"
)

func newConsumerFixture(t *testing.T) (*sharedBus.Dispatcher, *mocks.RecorderSMS, *mocks.InMemoryUserRepo) {
	t.Helper()
	sms := &mocks.RecorderSMS{}
	users := mocks.NewInMemoryUserRepo()
	notifier := notificationApp.NewNotifier(sms, zap.NewNop())

	d := sharedBus.NewDispatcher(zap.NewNop())
	NewNotificationConsumer(notifier, directory.NewUserRepoDirectory(users), zap.NewNop()).RegisterHandlers(d)
	d.Freeze()
	return d, sms, users
}

func TestOnUserActivated_SendsWelcomeSMS(t *testing.T) {
	d, sms, _ := newConsumerFixture(t)

	evt, _ := sharedEvents.NewIntegrationEvent(sharedEvents.TypeUserActivated, "user-service", sharedEvents.UserActivated{
		UserID: uuid.New(),
		Mobile: "+34600111222",
	})
	assert.NoError(t, d.Dispatch(context.Background(), evt))

	assert.Len(t, sms.Sent, 1)
	assert.Equal(t, "+34600111222", sms.Sent[0].Mobile)
}

func TestOnUserActivated_NoMobileIsSkipped(t *testing.T) {
	d, sms, _ := newConsumerFixture(t)

	evt, _ := sharedEvents.NewIntegrationEvent(sharedEvents.TypeUserActivated, "user-service", sharedEvents.UserActivated{
		UserID: uuid.New(),
	})
	assert.NoError(t, d.Dispatch(context.Background(), evt))
	assert.Empty(t, sms.Sent)
}

func TestOnOrderCompleted_ResolvesMobileFromDirectory(t *testing.T) {
	d, sms, users := newConsumerFixture(t)

	user := userDomain.NewUser("ana@example.com", "+34600999888", time.Now().UTC())
	assert.NoError(t, users.Create(context.Background(), user))

	evt, _ := sharedEvents.NewIntegrationEvent(sharedEvents.TypeOrderCompleted, "order-service", sharedEvents.OrderCompleted{
		OrderID: uuid.New(),
		UserID:  user.ID,
	})
	assert.NoError(t, d.Dispatch(context.Background(), evt))

	assert.Len(t, sms.Sent, 1)
	assert.Equal(t, "+34600999888", sms.Sent[0].Mobile)
	assert.Contains(t, sms.Sent[0].Message, "completado")
}

func TestOnOrderCompleted_UnknownUserDoesNotFail(t *testing.T) {
	d, sms, _ := newConsumerFixture(t)

	evt, _ := sharedEvents.NewIntegrationEvent(sharedEvents.TypeOrderCompleted, "order-service", sharedEvents.OrderCompleted{
		OrderID: uuid.New(),
		UserID:  uuid.New(),
	})
	// El aviso se omite pero el evento se confirma: nada que reentregar.
	assert.NoError(t, d.Dispatch(context.Background(), evt))
	assert.Empty(t, sms.Sent)
}

func TestProviderFailure_NeverBlocksTheEvent(t *testing.T) {
	sms := &mocks.RecorderSMS{Fail: true}
	users := mocks.NewInMemoryUserRepo()
	notifier := notificationApp.NewNotifier(sms, zap.NewNop())

	d := sharedBus.NewDispatcher(zap.NewNop())
	NewNotificationConsumer(notifier, directory.NewUserRepoDirectory(users), zap.NewNop()).RegisterHandlers(d)
	d.Freeze()

	evt, _ := sharedEvents.NewIntegrationEvent(sharedEvents.TypeUserActivated, "user-service", sharedEvents.UserActivated{
		UserID: uuid.New(),
		Mobile: "+34600111222",
	})
	assert.NoError(t, d.Dispatch(context.Background(), evt))
}
