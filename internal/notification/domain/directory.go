package domain

import (
	"context"

	"github.com/google/uuid"
)

// UserDirectory resuelve el móvil de un usuario. Los eventos de pedido solo
// llevan el user id, así que el contexto de notificaciones necesita este
// puerto para saber a quién avisar.
type UserDirectory interface {
	MobileFor(ctx context.Context, userID uuid.UUID) (string, error)
}
