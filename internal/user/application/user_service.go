package application

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
	sharedEvents "github.com/davicafu/viajelab/internal/shared/events"
	"github.com/davicafu/viajelab/internal/user/domain"
)

// Source con el que el contexto de usuarios firma sus envolturas.
const Source = "user-service"

// UserService define los casos de uso del contexto de usuarios.
type UserService struct {
	repo  domain.UserRepository
	clock sharedDomain.Clock
	log   *zap.Logger
}

func NewUserService(repo domain.UserRepository, clock sharedDomain.Clock, log *zap.Logger) *UserService {
	return &UserService{repo: repo, clock: clock, log: log}
}

// RegisterUser da de alta un usuario pendiente de activación.
func (s *UserService) RegisterUser(ctx context.Context, email, mobile string) (*domain.User, error) {
	if email == "" {
		return nil, domain.ErrInvalidUser
	}

	user := domain.NewUser(email, mobile, s.clock.Now())
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("Usuario registrado", zap.String("user_id", user.ID.String()))
	return user, nil
}

// GetUser obtiene un usuario por id.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

// ActivateUser activa la cuenta y emite user.activated por el outbox: el
// aprovisionamiento del wallet y el SMS de bienvenida cuelgan de ese evento.
// Activar dos veces es un no-op sin eventos nuevos.
func (s *UserService) ActivateUser(ctx context.Context, userID uuid.UUID) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !user.Activate(s.clock.Now()) {
		s.log.Info("Activación ignorada (no-op idempotente)", zap.String("user_id", userID.String()))
		return nil
	}

	envelope, err := sharedEvents.NewIntegrationEvent(sharedEvents.TypeUserActivated, Source, sharedEvents.UserActivated{
		UserID: user.ID,
		Mobile: user.Mobile,
	}, sharedEvents.WithCorrelationID(user.ID.String()))
	if err != nil {
		return err
	}

	evt := sharedDomain.NewOutboxEvent("user", user.ID.String(), envelope)
	if err := s.repo.Save(ctx, user, evt); err != nil {
		return err
	}

	s.log.Info("✅ Usuario activado", zap.String("user_id", user.ID.String()))
	return nil
}
