package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
	walletDomain "github.com/davicafu/viajelab/internal/wallet/domain"
)

// InMemoryWalletRepo simula WalletRepository con la misma semántica de
// idempotencia que los adaptadores SQL: external_id único y ajuste de saldo
// por delta bajo un único lock.
type InMemoryWalletRepo struct {
	Wallets      map[uuid.UUID]*walletDomain.Wallet
	Transactions map[uuid.UUID][]walletDomain.Transaction // por wallet
	Outbox       []sharedDomain.OutboxEvent
	byExternalID map[string]walletDomain.TransactionStatus
	mu           sync.Mutex
}

var _ walletDomain.WalletRepository = (*InMemoryWalletRepo)(nil)

func NewInMemoryWalletRepo() *InMemoryWalletRepo {
	return &InMemoryWalletRepo{
		Wallets:      make(map[uuid.UUID]*walletDomain.Wallet),
		Transactions: make(map[uuid.UUID][]walletDomain.Transaction),
		byExternalID: make(map[string]walletDomain.TransactionStatus),
	}
}

func cloneWallet(w *walletDomain.Wallet) *walletDomain.Wallet {
	cp := *w
	cp.Accounts = append([]walletDomain.CurrencyAccount(nil), w.Accounts...)
	return &cp
}

func (r *InMemoryWalletRepo) Create(ctx context.Context, w *walletDomain.Wallet, evts ...sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.Wallets {
		if existing.UserID == w.UserID {
			return walletDomain.ErrWalletAlreadyExists
		}
	}
	r.Wallets[w.ID] = cloneWallet(w)
	r.Outbox = append(r.Outbox, evts...)
	return nil
}

func (r *InMemoryWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*walletDomain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.Wallets[id]
	if !ok {
		return nil, walletDomain.ErrWalletNotFound
	}
	return cloneWallet(w), nil
}

func (r *InMemoryWalletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*walletDomain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, w := range r.Wallets {
		if w.UserID == userID {
			return cloneWallet(w), nil
		}
	}
	return nil, walletDomain.ErrWalletNotFound
}

func (r *InMemoryWalletRepo) ApplyTransaction(ctx context.Context, w *walletDomain.Wallet, txn walletDomain.Transaction, evts ...sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.Wallets[txn.WalletID]
	if !ok {
		return walletDomain.ErrWalletNotFound
	}

	if status, seen := r.byExternalID[txn.ExternalID]; seen && status == walletDomain.TxCompleted {
		return walletDomain.ErrDuplicateTransaction
	}

	acc := stored.Account(txn.Currency)
	next := acc.Balance.Add(txn.Amount)
	if next.IsNegative() {
		return walletDomain.ErrInsufficientBalance
	}
	acc.Balance = next

	r.Transactions[txn.WalletID] = append(r.Transactions[txn.WalletID], txn)
	r.byExternalID[txn.ExternalID] = txn.Status
	r.Outbox = append(r.Outbox, evts...)
	return nil
}

func (r *InMemoryWalletRepo) ListTransactions(ctx context.Context, walletID uuid.UUID, currency string) ([]walletDomain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var txns []walletDomain.Transaction
	for _, txn := range r.Transactions[walletID] {
		if txn.Currency == currency {
			txns = append(txns, txn)
		}
	}
	return txns, nil
}
