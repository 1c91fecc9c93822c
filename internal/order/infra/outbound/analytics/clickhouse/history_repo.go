package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"

	orderDomain "github.com/davicafu/viajelab/internal/order/domain"
)

// HistoryAnalyticsRepo implementa la interfaz HistorySink para ClickHouse.
// Es un espejo append-only del audit trail de pedidos, fuera del camino
// transaccional: un fallo aquí nunca afecta al commit del agregado.
type HistoryAnalyticsRepo struct {
	db *sql.DB
}

// NewHistoryAnalyticsRepo es el constructor.
func NewHistoryAnalyticsRepo(addr string, dbName string) (*HistoryAnalyticsRepo, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return &HistoryAnalyticsRepo{db: conn}, nil
}

// LogBatch inserta un lote de transiciones. ClickHouse funciona mejor con
// inserciones en lotes.
func (r *HistoryAnalyticsRepo) LogBatch(ctx context.Context, orderID uuid.UUID, changes []orderDomain.StatusChange) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO order_status_log (order_id, status, reason, changed_at, event_time)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	eventTime := time.Now()
	for _, change := range changes {
		if _, err := stmt.ExecContext(
			ctx,
			orderID,
			string(change.Status),
			change.Reason,
			change.ChangedAt,
			eventTime,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to exec statement for order %s: %w", orderID, err)
		}
	}

	return tx.Commit()
}

// StatusCounts devuelve cuántas transiciones ha registrado cada estado en la
// ventana dada; alimenta los paneles de operación.
func (r *HistoryAnalyticsRepo) StatusCounts(ctx context.Context, start, end time.Time) (map[string]uint64, error) {
	query := `
		SELECT status, count() AS total
		FROM order_status_log
		WHERE changed_at BETWEEN ? AND ?
		GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]uint64)
	for rows.Next() {
		var status string
		var total uint64
		if err := rows.Scan(&status, &total); err != nil {
			return nil, err
		}
		counts[status] = total
	}
	return counts, rows.Err()
}

// Verificación en tiempo de compilación.
var _ orderDomain.HistorySink = (*HistoryAnalyticsRepo)(nil)
