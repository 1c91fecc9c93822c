package mocks

import (
	"context"
	"errors"
	"sync"

	notificationDomain "github.com/davicafu/viajelab/internal/notification/domain"
)

// SentSMS es un mensaje capturado por el mock.
type SentSMS struct {
	Mobile  string
	Message string
}

// RecorderSMS captura los SMS enviados. Con Fail activo simula un proveedor caído.
type RecorderSMS struct {
	Sent []SentSMS
	Fail bool
	mu   sync.Mutex
}

var _ notificationDomain.SMSSender = (*RecorderSMS)(nil)

func (s *RecorderSMS) SendSMS(ctx context.Context, mobile, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail {
		return errors.New("simulated provider failure")
	}
	s.Sent = append(s.Sent, SentSMS{Mobile: mobile, Message: message})
	return nil
}
