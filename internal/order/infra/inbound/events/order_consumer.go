package events

import (
	"context"

	"go.uber.org/zap"

	orderApp "github.com/davicafu/viajelab/internal/order/application"
	sharedEvents "github.com/davicafu/viajelab/internal/shared/events"
	sharedBus "github.com/davicafu/viajelab/internal/shared/infra/platform/bus"
	sharedUtils "github.com/davicafu/viajelab/internal/shared/infra/utils"
)

// OrderConsumer conecta los eventos entrantes con los casos de uso de pedido.
type OrderConsumer struct {
	service *orderApp.OrderService
	log     *zap.Logger
}

func NewOrderConsumer(service *orderApp.OrderService, log *zap.Logger) *OrderConsumer {
	return &OrderConsumer{service: service, log: log}
}

// RegisterHandlers registra en el dispatcher los tipos que interesan a este contexto.
func (c *OrderConsumer) RegisterHandlers(d *sharedBus.Dispatcher) {
	d.Register(sharedEvents.TypePaymentProcessed, c.onPaymentProcessed)
}

// onPaymentProcessed aplica el desenlace del pago al pedido. La idempotencia
// la aporta la regla de alcanzabilidad del agregado: reentregas y duplicados
// acaban en no-op.
func (c *OrderConsumer) onPaymentProcessed(ctx context.Context, evt sharedEvents.IntegrationEvent) error {
	payload, ok := sharedUtils.UnmarshalPayload[sharedEvents.PaymentProcessed](c.log, evt.Data)
	if !ok {
		return nil
	}

	if err := c.service.ApplyPaymentResult(ctx, payload.OrderID, payload.IsSuccess, payload.TransactionID); err != nil {
		return err
	}

	c.log.Info("Desenlace de pago aplicado al pedido",
		zap.String("order_id", payload.OrderID.String()),
		zap.Bool("is_success", payload.IsSuccess),
		zap.String("event_id", evt.ID.String()),
	)
	return nil
}
