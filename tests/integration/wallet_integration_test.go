package integration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	_ "modernc.org/sqlite"

	sharedSQLite "github.com/davicafu/viajelab/internal/shared/infra/db/sqlite"
	walletDomain "github.com/davicafu/viajelab/internal/wallet/domain"
	walletSQLite "github.com/davicafu/viajelab/internal/wallet/infra/outbound/db/sqlite"
)

func setupWalletDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	assert.NoError(t, err)
	assert.NoError(t, sharedSQLite.InitOutboxSQLite(db))
	assert.NoError(t, walletSQLite.InitSQLite(db))
	return db
}

func newLedgerTxn(walletID uuid.UUID, txType walletDomain.TransactionType, amount, externalID string) walletDomain.Transaction {
	now := time.Now().UTC()
	return walletDomain.Transaction{
		ID:          uuid.New(),
		WalletID:    walletID,
		Currency:    "EUR",
		Type:        txType,
		Status:      walletDomain.TxCompleted,
		Amount:      decimal.RequireFromString(amount),
		ExternalID:  externalID,
		CreatedAt:   now,
		ProcessedAt: &now,
	}
}

func TestWalletSQLiteIntegration_CreateAndGet(t *testing.T) {
	db := setupWalletDB(t)
	defer db.Close()

	repo := walletSQLite.NewWalletRepoSQLite(db)
	ctx := context.Background()

	wallet := walletDomain.NewWallet(uuid.New(), time.Now().UTC())
	assert.NoError(t, repo.Create(ctx, wallet))

	// El user_id es único: un segundo wallet para el mismo usuario falla.
	dup := walletDomain.NewWallet(wallet.UserID, time.Now().UTC())
	assert.ErrorIs(t, repo.Create(ctx, dup), walletDomain.ErrWalletAlreadyExists)

	got, err := repo.GetByUserID(ctx, wallet.UserID)
	assert.NoError(t, err)
	assert.Equal(t, wallet.ID, got.ID)

	_, err = repo.GetByUserID(ctx, uuid.New())
	assert.ErrorIs(t, err, walletDomain.ErrWalletNotFound)
}

func TestWalletSQLiteIntegration_ApplyTransactionIdempotent(t *testing.T) {
	db := setupWalletDB(t)
	defer db.Close()

	repo := walletSQLite.NewWalletRepoSQLite(db)
	ctx := context.Background()

	wallet := walletDomain.NewWallet(uuid.New(), time.Now().UTC())
	assert.NoError(t, repo.Create(ctx, wallet))

	assert.NoError(t, repo.ApplyTransaction(ctx, wallet, newLedgerTxn(wallet.ID, walletDomain.TxTopUp, "100", "ext-1")))

	// Misma clave de idempotencia, aunque la transacción sea "nueva".
	err := repo.ApplyTransaction(ctx, wallet, newLedgerTxn(wallet.ID, walletDomain.TxTopUp, "100", "ext-1"))
	assert.ErrorIs(t, err, walletDomain.ErrDuplicateTransaction)

	got, _ := repo.GetByID(ctx, wallet.ID)
	assert.True(t, got.Account("EUR").Balance.Equal(decimal.NewFromInt(100)))

	txns, err := repo.ListTransactions(ctx, wallet.ID, "EUR")
	assert.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestWalletSQLiteIntegration_InsufficientBalanceRollsBack(t *testing.T) {
	db := setupWalletDB(t)
	defer db.Close()

	repo := walletSQLite.NewWalletRepoSQLite(db)
	ctx := context.Background()

	wallet := walletDomain.NewWallet(uuid.New(), time.Now().UTC())
	assert.NoError(t, repo.Create(ctx, wallet))
	assert.NoError(t, repo.ApplyTransaction(ctx, wallet, newLedgerTxn(wallet.ID, walletDomain.TxTopUp, "50", "ext-1")))

	err := repo.ApplyTransaction(ctx, wallet, newLedgerTxn(wallet.ID, walletDomain.TxPurchase, "-80", "ext-2"))
	assert.ErrorIs(t, err, walletDomain.ErrInsufficientBalance)

	// Ni movimiento ni delta: la transacción entera se revirtió.
	got, _ := repo.GetByID(ctx, wallet.ID)
	assert.True(t, got.Account("EUR").Balance.Equal(decimal.NewFromInt(50)))

	txns, _ := repo.ListTransactions(ctx, wallet.ID, "EUR")
	assert.Len(t, txns, 1)
}

func TestWalletSQLiteIntegration_LedgerFoldAgreesWithBalance(t *testing.T) {
	db := setupWalletDB(t)
	defer db.Close()

	repo := walletSQLite.NewWalletRepoSQLite(db)
	ctx := context.Background()

	wallet := walletDomain.NewWallet(uuid.New(), time.Now().UTC())
	assert.NoError(t, repo.Create(ctx, wallet))

	moves := []struct {
		txType walletDomain.TransactionType
		amount string
		extID  string
	}{
		{walletDomain.TxTopUp, "100", "ext-1"},
		{walletDomain.TxPurchase, "-40", "ext-2"},
		{walletDomain.TxRefund, "40", "ext-3"},
		{walletDomain.TxPurchase, "-25.50", "ext-4"},
	}
	for _, m := range moves {
		assert.NoError(t, repo.ApplyTransaction(ctx, wallet, newLedgerTxn(wallet.ID, m.txType, m.amount, m.extID)))
	}

	got, _ := repo.GetByID(ctx, wallet.ID)
	txns, _ := repo.ListTransactions(ctx, wallet.ID, "EUR")

	fold := walletDomain.RecomputeBalance(txns)
	assert.True(t, fold.Equal(got.Account("EUR").Balance))
	assert.True(t, fold.Equal(decimal.RequireFromString("74.50")))
}
