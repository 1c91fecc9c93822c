package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	sharedBus "github.com/davicafu/viajelab/internal/shared/infra/platform/bus"
)

// TransactionType clasifica el movimiento en el ledger.
type TransactionType string

const (
	TxPurchase TransactionType = "Purchase"
	TxRefund   TransactionType = "Refund"
	TxTopUp    TransactionType = "TopUp"
)

// Sign devuelve el signo con el que el tipo impacta el saldo.
func (t TransactionType) Sign() decimal.Decimal {
	if t == TxPurchase {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// TransactionStatus es el estado de un movimiento.
type TransactionStatus string

const (
	TxPending   TransactionStatus = "Pending"
	TxCompleted TransactionStatus = "Completed"
	TxFailed    TransactionStatus = "Failed"
)

// Transaction registra un importe con signo contra una cuenta de divisa.
// ExternalID es la clave de idempotencia: el identificador del hecho externo
// (referencia de pasarela, id de pago) que originó el movimiento.
type Transaction struct {
	ID          uuid.UUID         `json:"id"`
	WalletID    uuid.UUID         `json:"wallet_id"`
	Currency    string            `json:"currency"`
	Type        TransactionType   `json:"type"`
	Status      TransactionStatus `json:"status"`
	Amount      decimal.Decimal   `json:"amount"` // con signo ya aplicado
	ExternalID  string            `json:"external_id"`
	CreatedAt   time.Time         `json:"created_at"`
	ProcessedAt *time.Time        `json:"processed_at,omitempty"`
}

// CurrencyAccount es una cuenta por divisa con saldo acumulado.
// El saldo es siempre derivable plegando sus transacciones en orden de
// creación; ambos deben coincidir tras cada commit.
type CurrencyAccount struct {
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
	IsActive bool            `json:"is_active"`
}

// Wallet agrupa las cuentas por divisa de un usuario. Lo muta en exclusiva
// el contexto de wallet.
type Wallet struct {
	ID        uuid.UUID         `json:"id"`
	UserID    uuid.UUID         `json:"user_id"`
	Accounts  []CurrencyAccount `json:"accounts"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewWallet crea un wallet vacío para un usuario.
func NewWallet(userID uuid.UUID, now time.Time) *Wallet {
	return &Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		Accounts:  []CurrencyAccount{},
		CreatedAt: now,
	}
}

// Account devuelve la cuenta de la divisa, creándola inactiva→activa si no existe.
func (w *Wallet) Account(currency string) *CurrencyAccount {
	for i := range w.Accounts {
		if w.Accounts[i].Currency == currency {
			return &w.Accounts[i]
		}
	}
	w.Accounts = append(w.Accounts, CurrencyAccount{
		Currency: currency,
		Balance:  decimal.Zero,
		IsActive: true,
	})
	return &w.Accounts[len(w.Accounts)-1]
}

// Apply impacta una transacción Completed en el saldo de su cuenta.
// Un cargo que dejaría saldo negativo es una violación de dominio.
func (w *Wallet) Apply(txn Transaction) error {
	if txn.Status != TxCompleted {
		return nil // solo los movimientos completados tocan saldo
	}

	acc := w.Account(txn.Currency)
	next := acc.Balance.Add(txn.Amount)
	if next.IsNegative() {
		return ErrInsufficientBalance
	}
	acc.Balance = next
	return nil
}

// RecomputeBalance pliega las transacciones completadas en orden de creación.
// Es la definición canónica del saldo: el campo vivo debe coincidir con esto
// tras cada commit.
func RecomputeBalance(txns []Transaction) decimal.Decimal {
	balance := decimal.Zero
	for _, txn := range txns {
		if txn.Status != TxCompleted {
			continue
		}
		balance = balance.Add(txn.Amount)
	}
	return balance
}

func (w *Wallet) PartitionKey() string {
	return w.ID.String()
}

// Verificación estática para asegurar que Wallet implementa la interfaz
var _ sharedBus.Keyer = (*Wallet)(nil)
