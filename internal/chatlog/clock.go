package chatlog

import "time"

// Clock abstracts time so record timestamps are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the actual time.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}
