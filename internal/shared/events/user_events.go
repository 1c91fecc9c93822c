package events

import "github.com/google/uuid"

// Tags del conjunto cerrado de tipos de evento del contexto de usuario.
const (
	TypeUserActivated     = "user.activated"
	TypeCreateWalletRetry = "wallet.create_retry"
)

// UserActivated lo emite el contexto de usuario al activar una cuenta.
// Dispara el aprovisionamiento del wallet y el SMS de bienvenida.
type UserActivated struct {
	UserID uuid.UUID `json:"user_id"`
	Mobile string    `json:"mobile"`
}

// CreateWalletRetry es el evento correctivo de aprovisionamiento: se
// (re)publica cuando se sospecha que la creación del wallet falló.
// Lleva solo la clave mínima; su handler es el mismo que el del camino feliz.
type CreateWalletRetry struct {
	UserID uuid.UUID `json:"user_id"`
}
