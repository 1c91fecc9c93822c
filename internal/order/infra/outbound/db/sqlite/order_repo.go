package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	// _ "github.com/mattn/go-sqlite3" // better performance but requires gcc
	_ "modernc.org/sqlite"

	"github.com/davicafu/viajelab/internal/order/domain"
	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
	sharedSQLite "github.com/davicafu/viajelab/internal/shared/infra/db/sqlite"
)

type OrderRepoSQLite struct {
	db *sql.DB
}

func NewOrderRepoSQLite(db *sql.DB) *OrderRepoSQLite {
	return &OrderRepoSQLite{db: db}
}

// InitSQLite crea las tablas del contexto de pedidos.
// El historial se guarda con posición para poder añadir solo la cola nueva:
// las filas existentes jamás se tocan.
func InitSQLite(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		last_status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS order_history (
		order_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		status TEXT NOT NULL,
		reason TEXT NOT NULL,
		changed_at TIMESTAMP NOT NULL,
		PRIMARY KEY (order_id, position)
	);
	CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(last_status, created_at);`

	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to init order schema: %w", err)
		}
	}
	return nil
}

// ------------------ Helpers ------------------

// appendHistoryTx inserta solo las filas de historial aún no persistidas.
func appendHistoryTx(ctx context.Context, tx *sql.Tx, o *domain.Order) error {
	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM order_history WHERE order_id = ?`, o.ID.String(),
	).Scan(&count); err != nil {
		return err
	}

	for i := count; i < len(o.History); i++ {
		h := o.History[i]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_history (order_id, position, status, reason, changed_at) VALUES (?,?,?,?,?)`,
			o.ID.String(), i, string(h.Status), h.Reason, h.ChangedAt,
		); err != nil {
			return fmt.Errorf("failed to append order history: %w", err)
		}
	}
	return nil
}

func saveOrderTx(ctx context.Context, tx *sql.Tx, o *domain.Order) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET last_status = ? WHERE id = ?`,
		string(o.LastStatus), o.ID.String(),
	)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrOrderNotFound
	}
	return appendHistoryTx(ctx, tx, o)
}

// ------------------ Métodos ------------------

// Create inserta pedido, historial y eventos outbox en una transacción.
func (r *OrderRepoSQLite) Create(ctx context.Context, o *domain.Order, evts ...sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Se ignora si el Commit() es exitoso

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, total_amount, currency, last_status, created_at) VALUES (?,?,?,?,?,?)`,
		o.ID.String(), o.UserID.String(), o.TotalAmount.String(), o.Currency, string(o.LastStatus), o.CreatedAt,
	); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return domain.ErrOrderAlreadyExists
		}
		return err
	}

	if err := appendHistoryTx(ctx, tx, o); err != nil {
		return err
	}

	for _, evt := range evts {
		if err := sharedSQLite.InsertOutboxTx(ctx, tx, evt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Save persiste estado + cola de historial + outbox en una transacción.
func (r *OrderRepoSQLite) Save(ctx context.Context, o *domain.Order, evts ...sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := saveOrderTx(ctx, tx, o); err != nil {
		return err
	}

	for _, evt := range evts {
		if err := sharedSQLite.InsertOutboxTx(ctx, tx, evt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveBatch confirma varios pedidos y sus eventos en una única transacción.
func (r *OrderRepoSQLite) SaveBatch(ctx context.Context, orders []*domain.Order, evts ...sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, o := range orders {
		if err := saveOrderTx(ctx, tx, o); err != nil {
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

// GetByID carga el agregado completo, historial incluido.
func (r *OrderRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, total_amount, currency, last_status, created_at FROM orders WHERE id = ?`,
		id.String(),
	)

	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	if o.History, err = r.loadHistory(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// ListPendingBefore devuelve los pedidos Pending creados antes del corte.
func (r *OrderRepoSQLite) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, total_amount, currency, last_status, created_at
		 FROM orders
		 WHERE last_status = ? AND created_at < ?
		 ORDER BY created_at`,
		string(domain.StatusPending), cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, o := range orders {
		if o.History, err = r.loadHistory(ctx, o.ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *OrderRepoSQLite) loadHistory(ctx context.Context, orderID uuid.UUID) ([]domain.StatusChange, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, reason, changed_at FROM order_history WHERE order_id = ? ORDER BY position`,
		orderID.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []domain.StatusChange
	for rows.Next() {
		var h domain.StatusChange
		var status string
		if err := rows.Scan(&status, &h.Reason, &h.ChangedAt); err != nil {
			return nil, err
		}
		h.Status = domain.Status(status)
		history = append(history, h)
	}
	return history, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var idStr, userStr, amountStr, status string
	if err := row.Scan(&idStr, &userStr, &amountStr, &o.Currency, &status, &o.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrOrderNotFound
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
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in DB: %w", err)
	}

	o.ID = id
	o.UserID = userID
	o.TotalAmount = amount
	o.LastStatus = domain.Status(status)
	return &o, nil
}

// Verificación en tiempo de compilación.
var _ domain.OrderRepository = (*OrderRepoSQLite)(nil)
