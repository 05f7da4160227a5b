package utils

import "time"

// Now is the single clock the engine stamps rows and events with, always UTC.
func Now() time.Time {
	return time.Now().UTC()
}
