package events

import (
	"context"

	"go.uber.org/zap"

	sharedEvents "github.com/davicafu/viajelab/internal/shared/events"
	sharedBus "github.com/davicafu/viajelab/internal/shared/infra/platform/bus"
	sharedUtils "github.com/davicafu/viajelab/internal/shared/infra/utils"
	walletApp "github.com/davicafu/viajelab/internal/wallet/application"
)

// WalletConsumer conecta los eventos entrantes con los casos de uso del ledger.
type WalletConsumer struct {
	service *walletApp.WalletService
	log     *zap.Logger
}

func NewWalletConsumer(service *walletApp.WalletService, log *zap.Logger) *WalletConsumer {
	return &WalletConsumer{service: service, log: log}
}

// RegisterHandlers registra en el dispatcher los tipos que interesan a este contexto.
// user.activated y wallet.create_retry comparten handler a propósito: el
// reintento correctivo y el camino feliz convergen en el mismo no-op-si-existe.
func (c *WalletConsumer) RegisterHandlers(d *sharedBus.Dispatcher) {
	d.Register(sharedEvents.TypePaymentVerified, c.onPaymentVerified)
	d.Register(sharedEvents.TypeUserActivated, c.onProvisionWallet)
	d.Register(sharedEvents.TypeCreateWalletRetry, c.onProvisionWallet)
}

// onPaymentVerified asienta el pago en el ledger. La idempotencia la aporta
// el external transaction id: duplicados y reentregas acaban en no-op.
func (c *WalletConsumer) onPaymentVerified(ctx context.Context, evt sharedEvents.IntegrationEvent) error {
	payload, ok := sharedUtils.UnmarshalPayload[sharedEvents.PaymentVerified](c.log, evt.Data)
	if !ok {
		return nil
	}

	if err := c.service.ApplyVerifiedPayment(ctx, payload); err != nil {
		return err
	}

	c.log.Info("Pago verificado asentado en el ledger",
		zap.String("user_id", payload.UserID.String()),
		zap.String("transaction_id", payload.TransactionID),
		zap.String("event_id", evt.ID.String()),
	)
	return nil
}

// onProvisionWallet aprovisiona el wallet del usuario. Sirve tanto para la
// activación como para el evento de reintento; ambos llevan el user id.
func (c *WalletConsumer) onProvisionWallet(ctx context.Context, evt sharedEvents.IntegrationEvent) error {
	payload, ok := sharedUtils.UnmarshalPayload[sharedEvents.CreateWalletRetry](c.log, evt.Data)
	if !ok {
		return nil
	}

	if _, err := c.service.CreateWallet(ctx, payload.UserID); err != nil {
		return err
	}
	return nil
}
