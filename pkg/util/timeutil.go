package util

import "time"

// NowUTC is the clock injected into services so tests can pin time.
// Persisted and rendered timestamps are always UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}
