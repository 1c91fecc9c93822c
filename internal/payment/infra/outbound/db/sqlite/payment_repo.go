package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/davicafu/viajelab/internal/payment/domain"
	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
	sharedSQLite "github.com/davicafu/viajelab/internal/shared/infra/db/sqlite"
)

type PaymentRepoSQLite struct {
	db *sql.DB
}

func NewPaymentRepoSQLite(db *sql.DB) *PaymentRepoSQLite {
	return &PaymentRepoSQLite{db: db}
}

// InitSQLite crea la tabla de pagos.
func InitSQLite(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		order_id TEXT,
		user_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		gateway_reference TEXT NOT NULL,
		transaction_id TEXT NOT NULL UNIQUE,
		tracking_code TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		verified_at TIMESTAMP
	);`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to init payment schema: %w", err)
	}
	return nil
}

// ------------------ Métodos ------------------

func (r *PaymentRepoSQLite) Create(ctx context.Context, p *domain.Payment) error {
	var orderID any
	if p.OrderID != nil {
		orderID = p.OrderID.String()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (id, order_id, user_id, amount, currency, gateway_reference, transaction_id, tracking_code, status, created_at, verified_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID.String(), orderID, p.UserID.String(), p.Amount.String(), p.Currency,
		p.GatewayReference, p.TransactionID, p.TrackingCode, string(p.Status), p.CreatedAt, p.VerifiedAt,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return domain.ErrInvalidPayment
	}
	return err
}

func (r *PaymentRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, order_id, user_id, amount, currency, gateway_reference, transaction_id, tracking_code, status, created_at, verified_at
		 FROM payments WHERE id = ?`, id.String(),
	)

	var p domain.Payment
	var idStr, userStr, amountStr, status string
	var orderStr sql.NullString
	var verifiedAt sql.NullTime
	if err := row.Scan(&idStr, &orderStr, &userStr, &amountStr, &p.Currency, &p.GatewayReference, &p.TransactionID, &p.TrackingCode, &status, &p.CreatedAt, &verifiedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}

	var err error
	if p.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	if p.UserID, err = uuid.Parse(userStr); err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	if orderStr.Valid {
		oid, err := uuid.Parse(orderStr.String)
		if err != nil {
			return nil, fmt.Errorf("invalid UUID in DB: %w", err)
		}
		p.OrderID = &oid
	}
	if p.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("invalid amount in DB: %w", err)
	}
	p.Status = domain.PaymentStatus(status)
	if verifiedAt.Valid {
		t := verifiedAt.Time
		p.VerifiedAt = &t
	}
	return &p, nil
}

// Save actualiza el pago e inserta los eventos outbox en la misma transacción.
func (r *PaymentRepoSQLite) Save(ctx context.Context, p *domain.Payment, evts ...sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Se ignora si el Commit() es exitoso

	res, err := tx.ExecContext(ctx,
		`UPDATE payments SET status = ?, verified_at = ? WHERE id = ?`,
		string(p.Status), p.VerifiedAt, p.ID.String(),
	)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return domain.ErrPaymentNotFound
	}

	for _, evt := range evts {
		if err := sharedSQLite.InsertOutboxTx(ctx, tx, evt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Verificación en tiempo de compilación.
var _ domain.PaymentRepository = (*PaymentRepoSQLite)(nil)
