package sms

import (
	"context"

	"go.uber.org/zap"

	"github.com/davicafu/viajelab/internal/notification/domain"
)

// LogSender es el adaptador de SMS para desarrollo local: escribe el mensaje
// en el log en vez de llamar a un proveedor real.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendSMS(_ context.Context, mobile, message string) error {
	s.log.Info("📱 SMS enviado (simulado)",
		zap.String("mobile", mobile),
		zap.String("message", message),
	)
	return nil
}

// Verificación estática
var _ domain.SMSSender = (*LogSender)(nil)
