package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // Driver de PostgreSQL

	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
)

// OutboxRepoPostgres implementa la interfaz sharedDomain.OutboxRepository.
type OutboxRepoPostgres struct {
	db *sql.DB
}

func NewOutboxRepoPostgres(db *sql.DB) *OutboxRepoPostgres {
	return &OutboxRepoPostgres{db: db}
}

// InsertOutboxTx inserta la fila de outbox dentro de la transacción del agregado.
func InsertOutboxTx(ctx context.Context, tx *sql.Tx, evt sharedDomain.OutboxEvent) error {
	envelopeBytes, err := json.Marshal(evt.Envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox envelope: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox (id,aggregate_type,aggregate_id,event_type,envelope,created_at,attempts,processed,parked)
		 VALUES ($1,$2,$3,$4,$5,$6,0,false,false)`,
		evt.ID, evt.AggregateType, evt.AggregateID, evt.EventType, envelopeBytes, evt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	return nil
}

// FetchPendingOutbox obtiene los eventos no procesados ni aparcados.
func (r *OutboxRepoPostgres) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_type, aggregate_id, event_type, envelope, created_at, attempts
		 FROM outbox
		 WHERE processed = false AND parked = false
		 ORDER BY created_at
		 LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []sharedDomain.OutboxEvent
	for rows.Next() {
		var evt sharedDomain.OutboxEvent
		var envelopeBytes []byte // El envelope se lee como JSONB

		if err := rows.Scan(&evt.ID, &evt.AggregateType, &evt.AggregateID, &evt.EventType, &envelopeBytes, &evt.CreatedAt, &evt.Attempts); err != nil {
			return nil, err
		}

		if err := json.Unmarshal(envelopeBytes, &evt.Envelope); err != nil {
			return nil, fmt.Errorf("invalid JSON envelope in outbox row %s: %w", evt.ID, err)
		}

		events = append(events, evt)
	}

	return events, rows.Err()
}

// MarkOutboxProcessed marca un evento como publicado.
func (r *OutboxRepoPostgres) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE outbox SET processed = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get RowsAffected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("outbox event not found: %s", id)
	}
	return nil
}

// RecordOutboxFailure incrementa intentos y aparca al alcanzar maxAttempts.
func (r *OutboxRepoPostgres) RecordOutboxFailure(ctx context.Context, id uuid.UUID, maxAttempts int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox
		 SET attempts = attempts + 1,
		     parked = (attempts + 1 >= $1)
		 WHERE id = $2`,
		maxAttempts, id,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Verificación en tiempo de compilación.
var _ sharedDomain.OutboxRepository = (*OutboxRepoPostgres)(nil)
