package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "github.com/jackc/pgx/v5/stdlib" // Driver de PostgreSQL

	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
	sharedPostgres "github.com/davicafu/viajelab/internal/shared/infra/db/postgres"
	"github.com/davicafu/viajelab/internal/wallet/domain"
)

// WalletRepoPostgres implementa la interfaz WalletRepository para PostgreSQL.
type WalletRepoPostgres struct {
	db *sql.DB
}

func NewWalletRepoPostgres(db *sql.DB) *WalletRepoPostgres {
	return &WalletRepoPostgres{db: db}
}

// ------------------ Métodos ------------------

// Create inserta wallet, cuentas y eventos outbox en una transacción.
func (r *WalletRepoPostgres) Create(ctx context.Context, w *domain.Wallet, evts ...sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wallets (id, user_id, created_at) VALUES ($1,$2,$3)`,
		w.ID, w.UserID, w.CreatedAt,
	); err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.ErrWalletAlreadyExists
		}
		return err
	}

	for _, acc := range w.Accounts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO wallet_accounts (wallet_id, currency, balance, is_active) VALUES ($1,$2,$3,$4)`,
			w.ID, acc.Currency, acc.Balance, acc.IsActive,
		); err != nil {
			return err
		}
	}

	for _, evt := range evts {
		if err := sharedPostgres.InsertOutboxTx(ctx, tx, evt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ApplyTransaction inserta el movimiento y ajusta el saldo con un UPDATE por
// delta: la condición de saldo no negativo va en el propio UPDATE, así dos
// entregas concurrentes no pierden actualizaciones ni dejan saldo en rojo.
func (r *WalletRepoPostgres) ApplyTransaction(ctx context.Context, w *domain.Wallet, txn domain.Transaction, evts ...sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var existingStatus string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM wallet_transactions WHERE external_id = $1 FOR UPDATE`, txn.ExternalID,
	).Scan(&existingStatus)
	switch {
	case err == nil:
		if domain.TransactionStatus(existingStatus) == domain.TxCompleted {
			return domain.ErrDuplicateTransaction
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM wallet_transactions WHERE external_id = $1 AND status != $2`,
			txn.ExternalID, string(domain.TxCompleted),
		); err != nil {
			return err
		}
	case err != sql.ErrNoRows:
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wallet_transactions (id, wallet_id, currency, type, status, amount, external_id, created_at, processed_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		txn.ID, txn.WalletID, txn.Currency, string(txn.Type), string(txn.Status),
		txn.Amount, txn.ExternalID, txn.CreatedAt, txn.ProcessedAt,
	); err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.ErrDuplicateTransaction
		}
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wallet_accounts (wallet_id, currency, balance, is_active)
		 VALUES ($1,$2,0,true)
		 ON CONFLICT (wallet_id, currency) DO NOTHING`,
		txn.WalletID, txn.Currency,
	); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE wallet_accounts
		 SET balance = balance + $1
		 WHERE wallet_id = $2 AND currency = $3 AND balance + $1 >= 0`,
		txn.Amount, txn.WalletID, txn.Currency,
	)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrInsufficientBalance
	}

	for _, evt := range evts {
		if err := sharedPostgres.InsertOutboxTx(ctx, tx, evt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID carga el wallet con sus cuentas.
func (r *WalletRepoPostgres) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	return r.get(ctx, `SELECT id, user_id, created_at FROM wallets WHERE id = $1`, id)
}

// GetByUserID carga el wallet de un usuario con sus cuentas.
func (r *WalletRepoPostgres) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	return r.get(ctx, `SELECT id, user_id, created_at FROM wallets WHERE user_id = $1`, userID)
}

func (r *WalletRepoPostgres) get(ctx context.Context, query string, arg uuid.UUID) (*domain.Wallet, error) {
	row := r.db.QueryRowContext(ctx, query, arg)

	var w domain.Wallet
	if err := row.Scan(&w.ID, &w.UserID, &w.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrWalletNotFound
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT currency, balance, is_active FROM wallet_accounts WHERE wallet_id = $1 ORDER BY currency`,
		w.ID,
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
func (r *WalletRepoPostgres) ListTransactions(ctx context.Context, walletID uuid.UUID, currency string) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, wallet_id, currency, type, status, amount, external_id, created_at, processed_at
		 FROM wallet_transactions
		 WHERE wallet_id = $1 AND currency = $2
		 ORDER BY created_at, id`,
		walletID, currency,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var txn domain.Transaction
		var txType, status, amountStr string
		var processedAt sql.NullTime
		if err := rows.Scan(&txn.ID, &txn.WalletID, &txn.Currency, &txType, &status, &amountStr, &txn.ExternalID, &txn.CreatedAt, &processedAt); err != nil {
			return nil, err
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
var _ domain.WalletRepository = (*WalletRepoPostgres)(nil)
