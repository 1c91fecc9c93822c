package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
	sharedEvents "github.com/davicafu/viajelab/internal/shared/events"
	"github.com/davicafu/viajelab/internal/wallet/domain"
	"github.com/davicafu/viajelab/internal/wallet/infra/outbound/rates"
	"github.com/davicafu/viajelab/tests/mocks"
)

func newWalletService(t *testing.T) (*WalletService, *mocks.InMemoryWalletRepo, *mocks.DummyPublisher) {
	t.Helper()
	repo := mocks.NewInMemoryWalletRepo()
	publisher := &mocks.DummyPublisher{}
	ratesProvider := rates.NewStaticRateProvider(map[string]decimal.Decimal{
		"USD:EUR": decimal.RequireFromString("0.5"),
	})
	clock := mocks.NewFixedClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	service := NewWalletService(repo, mocks.NewDummyCache(), ratesProvider, publisher, clock, zap.NewNop())
	return service, repo, publisher
}

func eurAmount(t *testing.T, amount string) sharedDomain.Money {
	t.Helper()
	m, err := sharedDomain.NewMoney(decimal.RequireFromString(amount), "EUR")
	assert.NoError(t, err)
	return m
}

func TestCreateWallet_Idempotent(t *testing.T) {
	service, repo, _ := newWalletService(t)
	userID := uuid.New()

	first, err := service.CreateWallet(context.Background(), userID)
	assert.NoError(t, err)

	// La segunda creación devuelve el wallet existente sin error.
	second, err := service.CreateWallet(context.Background(), userID)
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.Wallets, 1)
}

func TestAddTransaction_AppliesDelta(t *testing.T) {
	service, repo, _ := newWalletService(t)
	userID := uuid.New()
	wallet, _ := service.CreateWallet(context.Background(), userID)

	txn, err := service.AddTransaction(context.Background(), userID, domain.TxTopUp, eurAmount(t, "100"), "ext-1")
	assert.NoError(t, err)
	assert.NotNil(t, txn)
	assert.True(t, txn.Amount.Equal(decimal.NewFromInt(100)))

	stored, _ := repo.GetByID(context.Background(), wallet.ID)
	assert.True(t, stored.Account("EUR").Balance.Equal(decimal.NewFromInt(100)))
}

func TestAddTransaction_DuplicateExternalIDIsNoOp(t *testing.T) {
	service, repo, _ := newWalletService(t)
	userID := uuid.New()
	wallet, _ := service.CreateWallet(context.Background(), userID)

	_, err := service.AddTransaction(context.Background(), userID, domain.TxTopUp, eurAmount(t, "100"), "ext-1")
	assert.NoError(t, err)

	// Misma clave de idempotencia: éxito sin transacción nueva ni delta.
	txn, err := service.AddTransaction(context.Background(), userID, domain.TxTopUp, eurAmount(t, "100"), "ext-1")
	assert.NoError(t, err)
	assert.Nil(t, txn)

	stored, _ := repo.GetByID(context.Background(), wallet.ID)
	assert.True(t, stored.Account("EUR").Balance.Equal(decimal.NewFromInt(100)))

	txns, _ := repo.ListTransactions(context.Background(), wallet.ID, "EUR")
	assert.Len(t, txns, 1)
}

func TestAddTransaction_ConcurrentDeliveriesApplyOnce(t *testing.T) {
	service, repo, _ := newWalletService(t)
	userID := uuid.New()
	wallet, _ := service.CreateWallet(context.Background(), userID)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.AddTransaction(context.Background(), userID, domain.TxTopUp, eurAmount(t, "100"), "ext-race")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, _ := repo.GetByID(context.Background(), wallet.ID)
	assert.True(t, stored.Account("EUR").Balance.Equal(decimal.NewFromInt(100)))

	txns, _ := repo.ListTransactions(context.Background(), wallet.ID, "EUR")
	assert.Len(t, txns, 1)
}

func TestAddTransaction_RequiresExternalID(t *testing.T) {
	service, _, _ := newWalletService(t)
	userID := uuid.New()
	_, _ = service.CreateWallet(context.Background(), userID)

	_, err := service.AddTransaction(context.Background(), userID, domain.TxTopUp, eurAmount(t, "100"), "")
	assert.True(t, sharedDomain.IsDomain(err))
}

func TestPurchase_InsufficientBalance(t *testing.T) {
	service, _, _ := newWalletService(t)
	userID := uuid.New()
	_, _ = service.CreateWallet(context.Background(), userID)

	_, err := service.Purchase(context.Background(), userID, eurAmount(t, "50"), "ext-1")
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestPurchaseAndRefund_RoundTrip(t *testing.T) {
	service, repo, _ := newWalletService(t)
	userID := uuid.New()
	wallet, _ := service.CreateWallet(context.Background(), userID)

	_, err := service.AddTransaction(context.Background(), userID, domain.TxTopUp, eurAmount(t, "100"), "topup-1")
	assert.NoError(t, err)
	_, err = service.Purchase(context.Background(), userID, eurAmount(t, "60"), "purchase-1")
	assert.NoError(t, err)
	_, err = service.Refund(context.Background(), userID, eurAmount(t, "60"), "refund-1")
	assert.NoError(t, err)

	stored, _ := repo.GetByID(context.Background(), wallet.ID)
	assert.True(t, stored.Account("EUR").Balance.Equal(decimal.NewFromInt(100)))
}

func TestApplyVerifiedPayment_CreditsLedger(t *testing.T) {
	service, repo, _ := newWalletService(t)
	userID := uuid.New()
	wallet, _ := service.CreateWallet(context.Background(), userID)

	payment := sharedEvents.PaymentVerified{
		PaymentID:     uuid.New(),
		UserID:        userID,
		Amount:        decimal.NewFromInt(75),
		Currency:      "EUR",
		TransactionID: "pay-tx-1",
	}
	assert.NoError(t, service.ApplyVerifiedPayment(context.Background(), payment))
	// Reentrega del mismo pago: no-op.
	assert.NoError(t, service.ApplyVerifiedPayment(context.Background(), payment))

	stored, _ := repo.GetByID(context.Background(), wallet.ID)
	assert.True(t, stored.Account("EUR").Balance.Equal(decimal.NewFromInt(75)))
}

func TestApplyVerifiedPayment_MissingWalletTriggersRetry(t *testing.T) {
	service, _, publisher := newWalletService(t)
	userID := uuid.New()

	payment := sharedEvents.PaymentVerified{
		PaymentID:     uuid.New(),
		UserID:        userID,
		Amount:        decimal.NewFromInt(75),
		Currency:      "EUR",
		TransactionID: "pay-tx-1",
	}

	// Error transitorio: el transporte debe reentregar el pago.
	err := service.ApplyVerifiedPayment(context.Background(), payment)
	assert.Error(t, err)
	assert.False(t, sharedDomain.IsDomain(err))

	// Y el evento correctivo de aprovisionamiento quedó publicado.
	assert.Equal(t, []string{sharedEvents.TypeCreateWalletRetry}, publisher.PublishedTypes())
}

func TestTotalBalance_ConvertsAndFolds(t *testing.T) {
	service, _, _ := newWalletService(t)
	userID := uuid.New()
	_, _ = service.CreateWallet(context.Background(), userID)

	_, _ = service.AddTransaction(context.Background(), userID, domain.TxTopUp, eurAmount(t, "100"), "eur-1")
	usd, _ := sharedDomain.NewMoney(decimal.NewFromInt(50), "USD")
	_, _ = service.AddTransaction(context.Background(), userID, domain.TxTopUp, usd, "usd-1")

	total, err := service.TotalBalance(context.Background(), userID, "EUR")
	assert.NoError(t, err)
	// 100 EUR + 50 USD a 0.5 = 125 EUR.
	assert.True(t, total.Amount().Equal(decimal.NewFromInt(125)))
	assert.Equal(t, "EUR", total.Currency())
}

func TestCheckConsistency_DetectsDivergence(t *testing.T) {
	service, repo, _ := newWalletService(t)
	userID := uuid.New()
	wallet, _ := service.CreateWallet(context.Background(), userID)

	_, _ = service.AddTransaction(context.Background(), userID, domain.TxTopUp, eurAmount(t, "100"), "ext-1")

	diverged, err := service.CheckConsistency(context.Background(), wallet.ID)
	assert.NoError(t, err)
	assert.Empty(t, diverged)

	// Corromper el saldo vivo directamente en el repo.
	repo.Wallets[wallet.ID].Account("EUR").Balance = decimal.NewFromInt(999)

	diverged, err = service.CheckConsistency(context.Background(), wallet.ID)
	assert.NoError(t, err)
	assert.Equal(t, []string{"EUR"}, diverged)
}
