package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
)

// Errores de dominio del contexto de usuarios.
var (
	ErrUserNotFound      = sharedDomain.NewDomainError("user not found")
	ErrUserAlreadyExists = sharedDomain.NewDomainError("user already exists")
	ErrInvalidUser       = sharedDomain.NewDomainError("invalid user data")
)

// User es el agregado mínimo del contexto de usuarios: lo justo para activar
// la cuenta y avisar al resto de contextos.
type User struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Mobile      string     `json:"mobile"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
}

// NewUser crea un usuario pendiente de activación.
func NewUser(email, mobile string, now time.Time) *User {
	return &User{
		ID:        uuid.New(),
		Email:     email,
		Mobile:    mobile,
		CreatedAt: now,
	}
}

// Activate marca la cuenta como activa. Devuelve false si ya lo estaba.
func (u *User) Activate(now time.Time) bool {
	if u.Active {
		return false
	}
	u.Active = true
	u.ActivatedAt = &now
	return true
}

// UserRepository define el contrato de persistencia de usuarios.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Save(ctx context.Context, u *User, evts ...sharedDomain.OutboxEvent) error
}
