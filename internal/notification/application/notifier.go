package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/davicafu/viajelab/internal/notification/domain"
)

// Notifier envía avisos al usuario. Las notificaciones son best-effort: un
// fallo del proveedor se loguea y no se propaga, para que el transporte no
// reintente flujos de negocio por culpa de un SMS.
type Notifier struct {
	sms domain.SMSSender
	log *zap.Logger
}

func NewNotifier(sms domain.SMSSender, log *zap.Logger) *Notifier {
	return &Notifier{sms: sms, log: log}
}

// NotifyWelcome da la bienvenida a un usuario recién activado.
func (n *Notifier) NotifyWelcome(ctx context.Context, mobile string) {
	n.send(ctx, mobile, "¡Bienvenido a ViajeLab! Tu cuenta ya está activa.")
}

// NotifyOrderCompleted avisa de que los billetes del pedido están emitidos.
func (n *Notifier) NotifyOrderCompleted(ctx context.Context, mobile, orderID string) {
	n.send(ctx, mobile, fmt.Sprintf("Tu pedido %s está completado. ¡Buen viaje!", orderID))
}

func (n *Notifier) send(ctx context.Context, mobile, message string) {
	if mobile == "" {
		n.log.Debug("Notificación omitida: usuario sin móvil")
		return
	}
	if err := n.sms.SendSMS(ctx, mobile, message); err != nil {
		n.log.Warn("⚠️ No se pudo enviar el SMS", zap.String("mobile", mobile), zap.Error(err))
	}
}
