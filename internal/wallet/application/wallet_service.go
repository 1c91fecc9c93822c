package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
	sharedEvents "github.com/davicafu/viajelab/internal/shared/events"
	sharedBus "github.com/davicafu/viajelab/internal/shared/infra/platform/bus"
	sharedCache "github.com/davicafu/viajelab/internal/shared/infra/platform/cache"
	"github.com/davicafu/viajelab/internal/wallet/domain"
)

// Source con el que el contexto de wallet firma sus envolturas.
const Source = "wallet-service"

const cacheTTLSecs = 60

// WalletService define los casos de uso del ledger.
type WalletService struct {
	repo      domain.WalletRepository
	cache     sharedCache.Cache
	rates     domain.RateProvider
	publisher sharedBus.EventPublisher // para re-emitir el evento de reintento de aprovisionamiento
	clock     sharedDomain.Clock
	log       *zap.Logger
}

func NewWalletService(
	repo domain.WalletRepository,
	cache sharedCache.Cache,
	rates domain.RateProvider,
	publisher sharedBus.EventPublisher,
	clock sharedDomain.Clock,
	log *zap.Logger,
) *WalletService {
	return &WalletService{
		repo:      repo,
		cache:     cache,
		rates:     rates,
		publisher: publisher,
		clock:     clock,
		log:       log,
	}
}

// CreateWallet aprovisiona el wallet de un usuario. Es idempotente: si ya
// existe devuelve el existente sin error, así el camino feliz y los
// reintentos convergen en la misma semántica no-op-si-existe.
func (s *WalletService) CreateWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	existing, err := s.repo.GetByUserID(ctx, userID)
	if err == nil {
		s.log.Info("Wallet ya aprovisionado, no-op", zap.String("user_id", userID.String()))
		return existing, nil
	}
	if !errors.Is(err, domain.ErrWalletNotFound) {
		return nil, err
	}

	wallet := domain.NewWallet(userID, s.clock.Now())
	if err := s.repo.Create(ctx, wallet); err != nil {
		// Carrera con otro aprovisionamiento: la BBDD gestionó el duplicado.
		if errors.Is(err, domain.ErrWalletAlreadyExists) {
			return s.repo.GetByUserID(ctx, userID)
		}
		return nil, err
	}

	s.log.Info("💰 Wallet aprovisionado", zap.String("user_id", userID.String()), zap.String("wallet_id", wallet.ID.String()))
	return wallet, nil
}

// AddTransaction asienta un movimiento contra la cuenta de la divisa del
// importe. El external id es la clave de idempotencia: si ya está aplicado
// Completed, el resultado es éxito sin cambios.
func (s *WalletService) AddTransaction(ctx context.Context, userID uuid.UUID, txType domain.TransactionType, amount sharedDomain.Money, externalID string) (*domain.Transaction, error) {
	if externalID == "" {
		return nil, sharedDomain.NewDomainError("external transaction id is required")
	}

	wallet, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	txn := domain.Transaction{
		ID:          uuid.New(),
		WalletID:    wallet.ID,
		Currency:    amount.Currency(),
		Type:        txType,
		Status:      domain.TxCompleted,
		Amount:      amount.Amount().Mul(txType.Sign()),
		ExternalID:  externalID,
		CreatedAt:   now,
		ProcessedAt: &now,
	}

	// Validación del saldo en el agregado antes de tocar la BBDD.
	if err := wallet.Apply(txn); err != nil {
		return nil, err
	}

	if err := s.repo.ApplyTransaction(ctx, wallet, txn); err != nil {
		if errors.Is(err, domain.ErrDuplicateTransaction) {
			// Reentrega o duplicado: nada que aplicar, éxito.
			s.log.Info("Transacción duplicada ignorada",
				zap.String("external_id", externalID),
				zap.String("wallet_id", wallet.ID.String()),
			)
			return nil, nil
		}
		return nil, err
	}

	sharedCache.AsyncCacheDelete(ctx, s.cache, domain.CacheKeyByUserID(userID), s.log)
	return &txn, nil
}

// ApplyVerifiedPayment asienta en el ledger un pago confirmado por la
// pasarela. Si el wallet aún no existe se re-emite el evento de
// aprovisionamiento y se devuelve error transitorio: la reentrega del pago
// encontrará el wallet ya creado.
func (s *WalletService) ApplyVerifiedPayment(ctx context.Context, payment sharedEvents.PaymentVerified) error {
	amount, err := sharedDomain.NewMoney(payment.Amount, payment.Currency)
	if err != nil {
		return err
	}

	_, err = s.AddTransaction(ctx, payment.UserID, domain.TxTopUp, amount, payment.TransactionID)
	if errors.Is(err, domain.ErrWalletNotFound) {
		s.log.Warn("Pago verificado sin wallet aprovisionado, se re-emite reintento de creación",
			zap.String("user_id", payment.UserID.String()),
		)
		if pubErr := s.PublishCreateRetry(ctx, payment.UserID); pubErr != nil {
			return pubErr
		}
		// Error transitorio deliberado: el transporte reentregará el pago.
		return fmt.Errorf("wallet not yet provisioned for user %s", payment.UserID)
	}
	return err
}

// Refund devuelve un cargo previo, con la referencia externa del reembolso
// como clave de idempotencia.
func (s *WalletService) Refund(ctx context.Context, userID uuid.UUID, amount sharedDomain.Money, externalID string) (*domain.Transaction, error) {
	return s.AddTransaction(ctx, userID, domain.TxRefund, amount, externalID)
}

// Purchase carga un importe contra el saldo del usuario.
func (s *WalletService) Purchase(ctx context.Context, userID uuid.UUID, amount sharedDomain.Money, externalID string) (*domain.Transaction, error) {
	return s.AddTransaction(ctx, userID, domain.TxPurchase, amount, externalID)
}

// GetWallet obtiene el wallet de un usuario (primero intenta desde cache).
func (s *WalletService) GetWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	if s.cache != nil {
		var w domain.Wallet
		if ok, _ := s.cache.Get(ctx, domain.CacheKeyByUserID(userID), &w); ok {
			return &w, nil
		}
	}

	wallet, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	sharedCache.AsyncCacheSet(ctx, s.cache, domain.CacheKeyByUserID(userID), wallet, cacheTTLSecs, s.log)
	return wallet, nil
}

// TotalBalance pliega los saldos de las cuentas activas convertidos a la
// divisa de referencia. Se calcula siempre bajo demanda, nunca se almacena.
func (s *WalletService) TotalBalance(ctx context.Context, userID uuid.UUID, refCurrency string) (sharedDomain.Money, error) {
	wallet, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return sharedDomain.Money{}, err
	}

	total, err := sharedDomain.NewMoney(decimal.Zero, refCurrency)
	if err != nil {
		return sharedDomain.Money{}, err
	}

	for _, acc := range wallet.Accounts {
		if !acc.IsActive {
			continue
		}
		rate, err := s.rates.Rate(acc.Currency, refCurrency)
		if err != nil {
			return sharedDomain.Money{}, err
		}
		converted, err := sharedDomain.NewMoney(acc.Balance.Mul(rate), refCurrency)
		if err != nil {
			return sharedDomain.Money{}, err
		}
		if total, err = total.Add(converted); err != nil {
			return sharedDomain.Money{}, err
		}
	}
	return total, nil
}

// QuotePrice calcula el precio final de un servicio para un grupo de edad.
func (s *WalletService) QuotePrice(service domain.ServiceType, basePrice sharedDomain.Money, age domain.AgeGroup) (sharedDomain.Money, error) {
	return domain.CalculateTotalPrice(service, basePrice, age)
}

// PublishCreateRetry (re)publica el evento correctivo de aprovisionamiento
// con la clave mínima. Su handler es el mismo CreateWallet idempotente.
func (s *WalletService) PublishCreateRetry(ctx context.Context, userID uuid.UUID) error {
	envelope, err := sharedEvents.NewIntegrationEvent(sharedEvents.TypeCreateWalletRetry, Source, sharedEvents.CreateWalletRetry{
		UserID: userID,
	}, sharedEvents.WithCorrelationID(userID.String()))
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, envelope)
}

// CheckConsistency recalcula el saldo de cada cuenta plegando sus
// transacciones y lo compara con el saldo vivo. Devuelve las divisas en
// desacuerdo; vacío significa ledger consistente.
func (s *WalletService) CheckConsistency(ctx context.Context, walletID uuid.UUID) ([]string, error) {
	wallet, err := s.repo.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}

	var diverged []string
	for _, acc := range wallet.Accounts {
		txns, err := s.repo.ListTransactions(ctx, walletID, acc.Currency)
		if err != nil {
			return nil, err
		}
		if !domain.RecomputeBalance(txns).Equal(acc.Balance) {
			diverged = append(diverged, acc.Currency)
		}
	}
	return diverged, nil
}
