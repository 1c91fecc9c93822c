package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/davicafu/viajelab/internal/payment/domain"
	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
	sharedEvents "github.com/davicafu/viajelab/internal/shared/events"
	sharedUtils "github.com/davicafu/viajelab/internal/shared/infra/utils"
)

// Source con el que el contexto de pagos firma sus envolturas.
const Source = "payment-service"

// PaymentService define los casos de uso del contexto de pagos.
type PaymentService struct {
	repo  domain.PaymentRepository
	clock sharedDomain.Clock
	log   *zap.Logger
}

func NewPaymentService(repo domain.PaymentRepository, clock sharedDomain.Clock, log *zap.Logger) *PaymentService {
	return &PaymentService{repo: repo, clock: clock, log: log}
}

// InitiatePayment registra un intento de pago en estado Initiated.
func (s *PaymentService) InitiatePayment(ctx context.Context, userID uuid.UUID, orderID *uuid.UUID, amount decimal.Decimal, currency, gatewayRef string) (*domain.Payment, error) {
	if amount.IsNegative() || amount.IsZero() || currency == "" {
		return nil, domain.ErrInvalidPayment
	}

	payment := domain.NewPayment(userID, orderID, amount, currency, gatewayRef, s.clock.Now())
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, err
	}

	s.log.Info("💳 Pago iniciado",
		zap.String("payment_id", payment.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("transaction_id", payment.TransactionID),
	)
	return payment, nil
}

// GetPayment obtiene un pago por id.
func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	return s.repo.GetByID(ctx, id)
}

// ResolvePayment aplica el desenlace comunicado por la pasarela. En éxito
// emite payment.verified (para el ledger) y payment.processed (para el
// pedido); en fallo solo payment.processed. Los eventos van por el outbox en
// la misma transacción que el cambio de estado del pago, así que reejecutar
// con el pago ya final es un no-op sin eventos nuevos.
func (s *PaymentService) ResolvePayment(ctx context.Context, paymentID uuid.UUID, isSuccess bool) error {
	payment, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	var changed bool
	if isSuccess {
		changed = payment.MarkVerified(now)
	} else {
		changed = payment.MarkFailed()
	}
	if !changed {
		s.log.Info("Resolución de pago ignorada (no-op idempotente)",
			zap.String("payment_id", paymentID.String()),
			zap.String("status", string(payment.Status)),
		)
		return nil
	}

	var evts []sharedDomain.OutboxEvent

	if isSuccess {
		verified, err := sharedEvents.NewIntegrationEvent(sharedEvents.TypePaymentVerified, Source, sharedEvents.PaymentVerified{
			PaymentID:        payment.ID,
			GatewayReference: payment.GatewayReference,
			UserID:           payment.UserID,
			Amount:           payment.Amount,
			Currency:         payment.Currency,
			TransactionID:    payment.TransactionID,
			TrackingCode:     payment.TrackingCode,
			VerifiedAt:       now,
			OrderID:          payment.OrderID,
		}, sharedEvents.WithCorrelationID(payment.PartitionKey()))
		if err != nil {
			return err
		}
		evts = append(evts, sharedDomain.NewOutboxEvent("payment", payment.ID.String(), verified))
	}

	// El pedido solo se entera si el pago está ligado a uno.
	if payment.OrderID != nil {
		processed, err := sharedEvents.NewIntegrationEvent(sharedEvents.TypePaymentProcessed, Source, sharedEvents.PaymentProcessed{
			OrderID:       *payment.OrderID,
			IsSuccess:     isSuccess,
			TransactionID: payment.TransactionID,
		}, sharedEvents.WithCorrelationID(payment.OrderID.String()))
		if err != nil {
			return err
		}
		evts = append(evts, sharedDomain.NewOutboxEvent("payment", payment.ID.String(), processed))
	}

	if err := s.repo.Save(ctx, payment, evts...); err != nil {
		return err
	}

	s.log.Info("✅ Pago resuelto",
		zap.String("payment_id", payment.ID.String()),
		zap.String("status", sharedUtils.Ternary(isSuccess, "Verified", "Failed")),
		zap.Int("events", len(evts)),
	)
	return nil
}
