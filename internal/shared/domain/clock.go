package domain

import "time"

// Clock abstrae el reloj para poder fijarlo en tests.
type Clock interface {
	Now() time.Time
}

// SystemClock es el reloj real en UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

var _ Clock = SystemClock{}
