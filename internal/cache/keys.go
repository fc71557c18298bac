package cache

import (
	"fmt"
	"time"
)

// ModeKey identifies a cavity mode lookup. at is the event time in nanoseconds
// so two events in the same second do not share an entry.
func ModeKey(deployment, zone string, cavity int, at time.Time) string {
	return fmt.Sprintf("mode:%s:%s:%d:%d", deployment, zone, cavity, at.UnixNano())
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
