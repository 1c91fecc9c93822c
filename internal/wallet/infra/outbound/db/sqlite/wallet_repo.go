package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
	sharedSQLite "github.com/davicafu/viajelab/internal/shared/infra/db/sqlite"
	"github.com/davicafu/viajelab/internal/wallet/domain"
)

type WalletRepoSQLite struct {
	db *sql.DB
}

func NewWalletRepoSQLite(db *sql.DB) *WalletRepoSQLite {
	return &WalletRepoSQLite{db: db}
}

// InitSQLite crea las tablas del contexto de wallet. El índice único sobre
// external_id es la garantía física de la clave de idempotencia.
func InitSQLite(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS wallets (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS wallet_accounts (
		wallet_id TEXT NOT NULL,
		currency TEXT NOT NULL,
		balance TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (wallet_id, currency)
	);
	CREATE TABLE IF NOT EXISTS wallet_transactions (
		id TEXT PRIMARY KEY,
		wallet_id TEXT NOT NULL,
		currency TEXT NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		amount TEXT NOT NULL,
		external_id TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL,
		processed_at TIMESTAMP
	);`

	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to init wallet schema: %w", err)
		}
	}
	return nil
}

// ------------------ Métodos ------------------

// Create inserta wallet, cuentas y eventos outbox en una transacción.
func (r *WalletRepoSQLite) Create(ctx context.Context, w *domain.Wallet, evts ...sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Se ignora si el Commit() es exitoso

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wallets (id, user_id, created_at) VALUES (?,?,?)`,
		w.ID.String(), w.UserID.String(), w.CreatedAt,
	); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return domain.ErrWalletAlreadyExists
		}
		return err
	}

	for _, acc := range w.Accounts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO wallet_accounts (wallet_id, currency, balance, is_active) VALUES (?,?,?,?)`,
			w.ID.String(), acc.Currency, acc.Balance.String(), acc.IsActive,
		); err != nil {
			return err
		}
	}

	for _, evt := range evts {
		if err := sharedSQLite.InsertOutboxTx(ctx, tx, evt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ApplyTransaction inserta el movimiento y actualiza el saldo por delta en
// una única transacción. El saldo nunca baja de cero: la condición va en el
// propio UPDATE para que dos entregas concurrentes no pierdan actualizaciones.
func (r *WalletRepoSQLite) ApplyTransaction(ctx context.Context, w *domain.Wallet, txn domain.Transaction, evts ...sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// 1. Clave de idempotencia: un external_id ya Completed es un duplicado.
	var existingStatus string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM wallet_transactions WHERE external_id = ?`, txn.ExternalID,
	).Scan(&existingStatus)
	switch {
	case err == nil:
		if domain.TransactionStatus(existingStatus) == domain.TxCompleted {
			return domain.ErrDuplicateTransaction
		}
		// Movimiento previo no completado con el mismo id: se reaplica limpio.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM wallet_transactions WHERE external_id = ? AND status != ?`,
			txn.ExternalID, string(domain.TxCompleted),
		); err != nil {
			return err
		}
	case err != sql.ErrNoRows:
		return err
	}

	// 2. Insertar el movimiento.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wallet_transactions (id, wallet_id, currency, type, status, amount, external_id, created_at, processed_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		txn.ID.String(), txn.WalletID.String(), txn.Currency, string(txn.Type), string(txn.Status),
		txn.Amount.String(), txn.ExternalID, txn.CreatedAt, txn.ProcessedAt,
	); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return domain.ErrDuplicateTransaction
		}
		return err
	}

	// 3. Ajustar el saldo por delta, creando la cuenta si no existe.
	// La lectura y la escritura van en la misma transacción; SQLite
	// serializa escritores, así que no se pierden actualizaciones.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wallet_accounts (wallet_id, currency, balance, is_active)
		 VALUES (?,?,'0',1)
		 ON CONFLICT (wallet_id, currency) DO NOTHING`,
		txn.WalletID.String(), txn.Currency,
	); err != nil {
		return err
	}

	var balanceStr string
	if err := tx.QueryRowContext(ctx,
		`SELECT balance FROM wallet_accounts WHERE wallet_id = ? AND currency = ?`,
		txn.WalletID.String(), txn.Currency,
	).Scan(&balanceStr); err != nil {
		return err
	}
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return fmt.Errorf("invalid balance in DB: %w", err)
	}

	next := balance.Add(txn.Amount)
	if next.IsNegative() {
		return domain.ErrInsufficientBalance
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE wallet_accounts SET balance = ? WHERE wallet_id = ? AND currency = ?`,
		next.String(), txn.WalletID.String(), txn.Currency,
	); err != nil {
		return err
	}

	for _, evt := range evts {
		if err := sharedSQLite.InsertOutboxTx(ctx, tx, evt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID carga el wallet con sus cuentas.
func (r *WalletRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	return r.get(ctx, `SELECT id, user_id, created_at FROM wallets WHERE id = ?`, id.String())
}

// GetByUserID carga el wallet de un usuario con sus cuentas.
func (r *WalletRepoSQLite) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	return r.get(ctx, `SELECT id, user_id, created_at FROM wallets WHERE user_id = ?`, userID.String())
}

func (r *WalletRepoSQLite) get(ctx context.Context, query, arg string) (*domain.Wallet, error) {
	row := r.db.QueryRowContext(ctx, query, arg)

	var w domain.Wallet
	var idStr, userStr string
	if err := row.Scan(&idStr, &userStr, &w.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrWalletNotFound
		}
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	userID, err := uuid.Parse(userStr)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	w.ID = id
	w.UserID = userID

	rows, err := r.db.QueryContext(ctx,
		`SELECT currency, balance, is_active FROM wallet_accounts WHERE wallet_id = ? ORDER BY currency`,
		w.ID.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var acc domain.CurrencyAccount
		var balanceStr string
		if err := rows.Scan(&acc.Currency, &balanceStr, &acc.IsActive); err != nil {
			return nil, err
		}
		if acc.Balance, err = decimal.NewFromString(balanceStr); err != nil {
			return nil, fmt.Errorf("invalid balance in DB: %w", err)
		}
		w.Accounts = append(w.Accounts, acc)
	}
	return &w, rows.Err()
}

// ListTransactions devuelve los movimientos de una cuenta en orden de creación.
func (r *WalletRepoSQLite) ListTransactions(ctx context.Context, walletID uuid.UUID, currency string) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, wallet_id, currency, type, status, amount, external_id, created_at, processed_at
		 FROM wallet_transactions
		 WHERE wallet_id = ? AND currency = ?
		 ORDER BY created_at, id`,
		walletID.String(), currency,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var txn domain.Transaction
		var idStr, walletStr, txType, status, amountStr string
		var processedAt sql.NullTime
		if err := rows.Scan(&idStr, &walletStr, &txn.Currency, &txType, &status, &amountStr, &txn.ExternalID, &txn.CreatedAt, &processedAt); err != nil {
			return nil, err
		}

		if txn.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("invalid UUID in DB: %w", err)
		}
		if txn.WalletID, err = uuid.Parse(walletStr); err != nil {
			return nil, fmt.Errorf("invalid UUID in DB: %w", err)
		}
		if txn.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, fmt.Errorf("invalid amount in DB: %w", err)
		}
		txn.Type = domain.TransactionType(txType)
		txn.Status = domain.TransactionStatus(status)
		if processedAt.Valid {
			t := processedAt.Time
			txn.ProcessedAt = &t
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

// Verificación en tiempo de compilación.
var _ domain.WalletRepository = (*WalletRepoSQLite)(nil)
