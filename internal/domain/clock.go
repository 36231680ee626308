package domain

import "time"

// Clock abstracts wall-clock reads so hold-duration math can be simulated in
// tests instead of sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func NewSystemClock() Clock {
	return systemClock{}
}
