package mocks

import "time"

// FixedClock returns the same instant on every read, so expiry math in tests
// is deterministic.
type FixedClock struct {
	Time time.Time
}

func (c FixedClock) Now() time.Time {
	return c.Time
}
