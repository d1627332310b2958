package worker

import "time"

// Clock abstracts time for production and testing.
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (SystemClock) Now() time.Time                         { return time.Now() }
