package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
	userDomain "github.com/davicafu/viajelab/internal/user/domain"
)

// InMemoryUserRepo simula UserRepository con outbox incluido.
type InMemoryUserRepo struct {
	Users  map[uuid.UUID]*userDomain.User
	Outbox []sharedDomain.OutboxEvent
	mu     sync.Mutex
}

var _ userDomain.UserRepository = (*InMemoryUserRepo)(nil)

func NewInMemoryUserRepo() *InMemoryUserRepo {
	return &InMemoryUserRepo{
		Users:  make(map[uuid.UUID]*userDomain.User),
		Outbox: []sharedDomain.OutboxEvent{},
	}
}

func cloneUser(u *userDomain.User) *userDomain.User {
	cp := *u
	return &cp
}

func (r *InMemoryUserRepo) Create(ctx context.Context, u *userDomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Users[u.ID]; ok {
		return userDomain.ErrUserAlreadyExists
	}
	r.Users[u.ID] = cloneUser(u)
	return nil
}

func (r *InMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.Users[id]
	if !ok {
		return nil, userDomain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *InMemoryUserRepo) Save(ctx context.Context, u *userDomain.User, evts ...sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Users[u.ID]; !ok {
		return userDomain.ErrUserNotFound
	}
	r.Users[u.ID] = cloneUser(u)
	r.Outbox = append(r.Outbox, evts...)
	return nil
}
