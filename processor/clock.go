package processor

import "time"

// Clock provides the monotonic timestamps the playback machine runs on.
type Clock interface {
	Now() time.Duration
}

type monoClock struct {
	start time.Time
}

// NewClock returns a clock that counts from the moment it was made. It reads
// the monotonic clock, so wall clock changes do not affect it.
func NewClock() Clock {
	return &monoClock{start: time.Now()}
}

func (c *monoClock) Now() time.Duration {
	return time.Since(c.start)
}
