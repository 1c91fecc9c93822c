package utils

import (
	"context"
	"time"
)

// Retry reintenta una función hasta `attempts` veces con una espera fija.
// No duerme tras el último intento; el contexto cancela la espera.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
