package mocks

import (
	"sync"
	"time"

	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
)

// FixedClock es un reloj controlado por el test.
type FixedClock struct {
	mu sync.Mutex
	t  time.Time
}

var _ sharedDomain.Clock = (*FixedClock)(nil)

func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{t: t}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance mueve el reloj hacia delante.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
