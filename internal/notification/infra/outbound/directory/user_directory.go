package directory

import (
	"context"

	"github.com/google/uuid"

	notificationDomain "github.com/davicafu/viajelab/internal/notification/domain"
	userDomain "github.com/davicafu/viajelab/internal/user/domain"
)

// UserRepoDirectory resuelve móviles directamente contra el repositorio de
// usuarios. En un despliegue con servicios separados este adaptador sería un
// cliente HTTP; en el monolito modular basta con compartir el repositorio.
type UserRepoDirectory struct {
	users userDomain.UserRepository
}

func NewUserRepoDirectory(users userDomain.UserRepository) *UserRepoDirectory {
	return &UserRepoDirectory{users: users}
}

func (d *UserRepoDirectory) MobileFor(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Mobile, nil
}

// Verificación estática
var _ notificationDomain.UserDirectory = (*UserRepoDirectory)(nil)
