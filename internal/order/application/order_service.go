package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/davicafu/viajelab/internal/order/domain"
	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
	sharedEvents "github.com/davicafu/viajelab/internal/shared/events"
	sharedCache "github.com/davicafu/viajelab/internal/shared/infra/platform/cache"
)

// Source con el que el contexto de pedidos firma sus envolturas.
const Source = "order-service"

const cacheTTLSecs = 60

// OrderService define los casos de uso del ciclo de vida del pedido.
type OrderService struct {
	repo      domain.OrderRepository
	cache     sharedCache.Cache
	analytics domain.HistorySink // opcional, espejo del audit trail
	clock     sharedDomain.Clock
	log       *zap.Logger
}

func NewOrderService(repo domain.OrderRepository, cache sharedCache.Cache, clock sharedDomain.Clock, log *zap.Logger) *OrderService {
	return &OrderService{
		repo:  repo,
		cache: cache,
		clock: clock,
		log:   log,
	}
}

// WithAnalytics activa el volcado de transiciones al sink de análisis.
func (s *OrderService) WithAnalytics(sink domain.HistorySink) *OrderService {
	s.analytics = sink
	return s
}

// mirrorHistory vuelca las últimas n transiciones al sink en background.
// Va fuera de la transacción: un fallo aquí solo se loguea.
func (s *OrderService) mirrorHistory(order *domain.Order, n int) {
	if s.analytics == nil || n <= 0 {
		return
	}
	changes := order.History[len(order.History)-n:]
	orderID := order.ID

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.analytics.LogBatch(ctx, orderID, changes); err != nil {
			s.log.Warn("No se pudo volcar historial al sink de análisis",
				zap.String("order_id", orderID.String()),
				zap.Error(err),
			)
		}
	}()
}

// CreateOrder registra un pedido nuevo en Pending.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, totalAmount decimal.Decimal, currency string) (*domain.Order, error) {
	if totalAmount.IsNegative() || currency == "" {
		return nil, domain.ErrInvalidOrder
	}

	order := domain.NewOrder(userID, totalAmount, currency, s.clock.Now())
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}

	sharedCache.AsyncCacheSet(ctx, s.cache, domain.CacheKeyByID(order.ID), order, cacheTTLSecs, s.log)
	return order, nil
}

// GetOrder obtiene un pedido (primero intenta desde cache).
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	if s.cache != nil {
		var o domain.Order
		if ok, _ := s.cache.Get(ctx, domain.CacheKeyByID(id), &o); ok {
			return &o, nil
		}
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	sharedCache.AsyncCacheSet(ctx, s.cache, domain.CacheKeyByID(id), order, cacheTTLSecs, s.log)
	return order, nil
}

// ApplyPaymentResult aplica el desenlace de un pago al pedido: éxito pasa a
// Processing, fallo a Cancelled. Reaplicar el mismo evento es un no-op por la
// regla de alcanzabilidad, así que las reentregas son inocuas.
func (s *OrderService) ApplyPaymentResult(ctx context.Context, orderID uuid.UUID, isSuccess bool, transactionID string) error {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	var changed bool
	if isSuccess {
		changed = order.TransitionTo(domain.StatusProcessing, "payment verified, transaction "+transactionID, s.clock.Now())
	} else {
		changed = order.TransitionTo(domain.StatusCancelled, "payment failed, transaction "+transactionID, s.clock.Now())
	}

	if !changed {
		// Duplicado o fuera de orden: éxito con "nada que aplicar".
		s.log.Info("Transición de pago ignorada (no-op idempotente)",
			zap.String("order_id", orderID.String()),
			zap.String("status", string(order.LastStatus)),
		)
		return nil
	}

	if err := s.repo.Save(ctx, order); err != nil {
		return err
	}

	sharedCache.AsyncCacheDelete(ctx, s.cache, domain.CacheKeyByID(orderID), s.log)
	s.mirrorHistory(order, 1)
	return nil
}

// CompleteOrder cierra un pedido en Processing y emite order.completed por
// el outbox (el evento solo existe si el commit local tuvo éxito).
func (s *OrderService) CompleteOrder(ctx context.Context, orderID uuid.UUID, reason string) error {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	if !order.TransitionTo(domain.StatusCompleted, reason, now) {
		s.log.Info("Cierre de pedido ignorado (no-op idempotente)",
			zap.String("order_id", orderID.String()),
			zap.String("status", string(order.LastStatus)),
		)
		return nil
	}

	envelope, err := sharedEvents.NewIntegrationEvent(sharedEvents.TypeOrderCompleted, Source, sharedEvents.OrderCompleted{
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
		CompletedAt: now,
	}, sharedEvents.WithCorrelationID(order.ID.String()))
	if err != nil {
		return err
	}

	evt := sharedDomain.NewOutboxEvent("order", order.ID.String(), envelope)
	if err := s.repo.Save(ctx, order, evt); err != nil {
		return err
	}

	sharedCache.AsyncCacheDelete(ctx, s.cache, domain.CacheKeyByID(orderID), s.log)
	s.mirrorHistory(order, 1)
	return nil
}

// CancelOrder cancela un pedido a petición del usuario u operador.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) error {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if !order.TransitionTo(domain.StatusCancelled, reason, s.clock.Now()) {
		return nil
	}

	if err := s.repo.Save(ctx, order); err != nil {
		return err
	}

	sharedCache.AsyncCacheDelete(ctx, s.cache, domain.CacheKeyByID(orderID), s.log)
	s.mirrorHistory(order, 1)
	return nil
}

// ExpireStale caduca en un solo lote los pedidos Pending más viejos que la
// ventana dada. Devuelve cuántos pedidos cambiaron.
func (s *OrderService) ExpireStale(ctx context.Context, expiration time.Duration) (int, error) {
	now := s.clock.Now()
	cutoff := now.Add(-expiration)

	orders, err := s.repo.ListPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	var expired []*domain.Order
	var evts []sharedDomain.OutboxEvent
	for _, order := range orders {
		if !order.TransitionTo(domain.StatusExpired, "automatically expired due to timeout", now) {
			continue
		}

		envelope, err := sharedEvents.NewIntegrationEvent(sharedEvents.TypeOrderExpired, Source, sharedEvents.OrderExpired{
			OrderID:   order.ID,
			UserID:    order.UserID,
			ExpiredAt: now,
		}, sharedEvents.WithCorrelationID(order.ID.String()))
		if err != nil {
			return 0, err
		}

		expired = append(expired, order)
		evts = append(evts, sharedDomain.NewOutboxEvent("order", order.ID.String(), envelope))
	}

	if len(expired) == 0 {
		return 0, nil
	}

	if err := s.repo.SaveBatch(ctx, expired, evts...); err != nil {
		return 0, err
	}

	for _, order := range expired {
		sharedCache.AsyncCacheDelete(ctx, s.cache, domain.CacheKeyByID(order.ID), s.log)
		s.mirrorHistory(order, 1)
	}
	return len(expired), nil
}
