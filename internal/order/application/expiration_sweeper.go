package application

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExpirationSweeper es el backstop de reconciliación de pedidos: un bucle
// periódico que caduca los Pending atascados cuyo evento de pago nunca llegó.
type ExpirationSweeper struct {
	service    *OrderService
	interval   time.Duration
	expiration time.Duration
	log        *zap.Logger
}

func NewExpirationSweeper(service *OrderService, interval, expiration time.Duration, log *zap.Logger) *ExpirationSweeper {
	return &ExpirationSweeper{
		service:    service,
		interval:   interval,
		expiration: expiration,
		log:        log,
	}
}

// Start inicia el bucle de barrido. Un fallo en una iteración se loguea y no
// termina el bucle: el siguiente tick reintenta. Con la cancelación, la
// iteración en curso acaba su unidad atómica y el bucle sale.
func (s *ExpirationSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("🚀 Barrido de caducidad iniciado",
		zap.Duration("interval", s.interval),
		zap.Duration("expiration", s.expiration),
	)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("🛑 Barrido de caducidad detenido.")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep ejecuta una pasada. Separado de Start para poder probarlo sin reloj.
func (s *ExpirationSweeper) Sweep(ctx context.Context) {
	n, err := s.service.ExpireStale(ctx, s.expiration)
	if err != nil {
		s.log.Warn("⚠️ Error en iteración de barrido", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("⏰ Pedidos caducados por timeout", zap.Int("count", n))
	}
}
