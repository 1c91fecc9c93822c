package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
	sharedSQLite "github.com/davicafu/viajelab/internal/shared/infra/db/sqlite"
	"github.com/davicafu/viajelab/internal/user/domain"
)

type UserRepoSQLite struct {
	db *sql.DB
}

func NewUserRepoSQLite(db *sql.DB) *UserRepoSQLite {
	return &UserRepoSQLite{db: db}
}

// InitSQLite crea la tabla de usuarios.
func InitSQLite(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		mobile TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		activated_at TIMESTAMP
	);`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to init user schema: %w", err)
	}
	return nil
}

// ------------------ Métodos ------------------

func (r *UserRepoSQLite) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, mobile, active, created_at, activated_at) VALUES (?,?,?,?,?,?)`,
		u.ID.String(), u.Email, u.Mobile, u.Active, u.CreatedAt, u.ActivatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return domain.ErrUserAlreadyExists
	}
	return err
}

func (r *UserRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, mobile, active, created_at, activated_at FROM users WHERE id = ?`, id.String(),
	)

	var u domain.User
	var idStr string
	var activatedAt sql.NullTime
	if err := row.Scan(&idStr, &u.Email, &u.Mobile, &u.Active, &u.CreatedAt, &activatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	var err error
	if u.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	if activatedAt.Valid {
		t := activatedAt.Time
		u.ActivatedAt = &t
	}
	return &u, nil
}

// Save actualiza el usuario e inserta los eventos outbox en la misma transacción.
func (r *UserRepoSQLite) Save(ctx context.Context, u *domain.User, evts ...sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Se ignora si el Commit() es exitoso

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET email = ?, mobile = ?, active = ?, activated_at = ? WHERE id = ?`,
		u.Email, u.Mobile, u.Active, u.ActivatedAt, u.ID.String(),
	)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return domain.ErrUserNotFound
	}

	for _, evt := range evts {
		if err := sharedSQLite.InsertOutboxTx(ctx, tx, evt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Verificación en tiempo de compilación.
var _ domain.UserRepository = (*UserRepoSQLite)(nil)
