package services

import "time"

// Clock abstracts "now" so the hour-based refund tiers are deterministic
// under test.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
