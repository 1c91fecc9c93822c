package domain

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
)

// ---------- Errores de dominio ----------
var (
	ErrWalletNotFound      = sharedDomain.NewDomainError("wallet not found")
	ErrWalletAlreadyExists = sharedDomain.NewDomainError("wallet already exists")
	ErrInsufficientBalance = sharedDomain.NewDomainError("insufficient balance")
	ErrUnknownCurrency     = sharedDomain.NewDomainError("unknown currency")

	// ErrDuplicateTransaction señala un external_id ya aplicado. No es un
	// fallo: el servicio lo convierte en éxito sin cambios (idempotencia).
	ErrDuplicateTransaction = sharedDomain.NewDomainError("transaction already applied")
)

// ---------- Interfaces (Ports) ----------

// WalletRepository define las operaciones persistentes para Wallet.
type WalletRepository interface {
	// Debe devolver ErrWalletAlreadyExists si el usuario ya tiene wallet.
	Create(ctx context.Context, w *Wallet, evts ...sharedDomain.OutboxEvent) error

	// Debe devolver ErrWalletNotFound si no existe.
	GetByID(ctx context.Context, id uuid.UUID) (*Wallet, error)

	// Debe devolver ErrWalletNotFound si el usuario no tiene wallet.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Wallet, error)

	// ApplyTransaction inserta el movimiento y actualiza el saldo de la
	// cuenta en una única transacción de base de datos. Debe devolver
	// ErrDuplicateTransaction si el external_id ya está aplicado Completed.
	ApplyTransaction(ctx context.Context, w *Wallet, txn Transaction, evts ...sharedDomain.OutboxEvent) error

	// ListTransactions devuelve los movimientos de una cuenta en orden de creación.
	ListTransactions(ctx context.Context, walletID uuid.UUID, currency string) ([]Transaction, error)
}

// RateProvider convierte entre divisas. El saldo total en divisa de
// referencia es una función pura de saldos + tasa, nunca se almacena.
type RateProvider interface {
	Rate(from, to string) (decimal.Decimal, error)
}

// ---------- Helpers comunes (cache keys, etc.) ----------

// CacheKeyByUserID forma una key consistente para cache usando el usuario.
func CacheKeyByUserID(userID uuid.UUID) string {
	return fmt.Sprintf("wallet:user:%s", userID.String())
}
