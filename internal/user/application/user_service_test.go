package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	sharedEvents "github.com/davicafu/viajelab/internal/shared/events"
	"github.com/davicafu/viajelab/internal/user/domain"
	"github.com/davicafu/viajelab/tests/mocks"
)

func newUserService(t *testing.T) (*UserService, *mocks.InMemoryUserRepo) {
	t.Helper()
	repo := mocks.NewInMemoryUserRepo()
	clock := mocks.NewFixedClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	return NewUserService(repo, clock, zap.NewNop()), repo
}

func TestRegisterUser_Success(t *testing.T) {
	service, repo := newUserService(t)

	user, err := service.RegisterUser(context.Background(), "ana@example.com", "+34600111222")
	assert.NoError(t, err)
	assert.False(t, user.Active)
	assert.Len(t, repo.Users, 1)
}

func TestRegisterUser_Invalid(t *testing.T) {
	service, _ := newUserService(t)

	_, err := service.RegisterUser(context.Background(), "", "+34600111222")
	assert.ErrorIs(t, err, domain.ErrInvalidUser)
}

func TestActivateUser_EmitsOutboxEvent(t *testing.T) {
	service, repo := newUserService(t)
	user, _ := service.RegisterUser(context.Background(), "ana@example.com", "+34600111222")

	assert.NoError(t, service.ActivateUser(context.Background(), user.ID))

	stored, _ := repo.GetByID(context.Background(), user.ID)
	assert.True(t, stored.Active)
	assert.NotNil(t, stored.ActivatedAt)

	assert.Len(t, repo.Outbox, 1)
	assert.Equal(t, sharedEvents.TypeUserActivated, repo.Outbox[0].EventType)
	assert.Equal(t, user.ID.String(), repo.Outbox[0].AggregateID)
}

func TestActivateUser_DoubleActivationIsNoOp(t *testing.T) {
	service, repo := newUserService(t)
	user, _ := service.RegisterUser(context.Background(), "ana@example.com", "+34600111222")

	assert.NoError(t, service.ActivateUser(context.Background(), user.ID))
	assert.NoError(t, service.ActivateUser(context.Background(), user.ID))

	// Un único evento pese a la doble activación.
	assert.Len(t, repo.Outbox, 1)
}

func TestActivateUser_NotFound(t *testing.T) {
	service, _ := newUserService(t)

	err := service.ActivateUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
