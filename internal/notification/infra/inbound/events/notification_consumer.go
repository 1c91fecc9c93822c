package events

import (
	"context"

	"go.uber.org/zap"

	notificationApp "github.com/davicafu/viajelab/internal/notification/application"
	notificationDomain "github.com/davicafu/viajelab/internal/notification/domain"
	sharedEvents "github.com/davicafu/viajelab/internal/shared/events"
	sharedBus "github.com/davicafu/viajelab/internal/shared/infra/platform/bus"
	sharedUtils "github.com/davicafu/viajelab/internal/shared/infra/utils"
)

// NotificationConsumer conecta los eventos entrantes con los avisos al usuario.
// Ningún handler devuelve error de negocio: una notificación fallida nunca
// debe provocar la reentrega del evento que la originó.
type NotificationConsumer struct {
	notifier  *notificationApp.Notifier
	directory notificationDomain.UserDirectory
	log       *zap.Logger
}

func NewNotificationConsumer(notifier *notificationApp.Notifier, directory notificationDomain.UserDirectory, log *zap.Logger) *NotificationConsumer {
	return &NotificationConsumer{notifier: notifier, directory: directory, log: log}
}

// RegisterHandlers registra en el dispatcher los tipos que interesan a este contexto.
func (c *NotificationConsumer) RegisterHandlers(d *sharedBus.Dispatcher) {
	d.Register(sharedEvents.TypeUserActivated, c.onUserActivated)
	d.Register(sharedEvents.TypeOrderCompleted, c.onOrderCompleted)
}

// onUserActivated envía el SMS de bienvenida. El móvil viaja en el payload.
func (c *NotificationConsumer) onUserActivated(ctx context.Context, evt sharedEvents.IntegrationEvent) error {
	payload, ok := sharedUtils.UnmarshalPayload[sharedEvents.UserActivated](c.log, evt.Data)
	if !ok {
		return nil
	}

	c.notifier.NotifyWelcome(ctx, payload.Mobile)
	return nil
}

// onOrderCompleted avisa de los billetes emitidos. El evento solo lleva el
// user id, así que el móvil se resuelve contra el directorio.
func (c *NotificationConsumer) onOrderCompleted(ctx context.Context, evt sharedEvents.IntegrationEvent) error {
	payload, ok := sharedUtils.UnmarshalPayload[sharedEvents.OrderCompleted](c.log, evt.Data)
	if !ok {
		return nil
	}

	mobile, err := c.directory.MobileFor(ctx, payload.UserID)
	if err != nil {
		c.log.Warn("No se pudo resolver el móvil del usuario, aviso omitido",
			zap.String("user_id", payload.UserID.String()),
			zap.Error(err),
		)
		return nil
	}

	c.notifier.NotifyOrderCompleted(ctx, mobile, payload.OrderID.String())
	return nil
}
