package idle

import (
	"time"

	"github.com/kjstillabower/medicure-service/internal/traffic"
)

// RecordRequest records a served greeting. Only traffic that counts toward idle detection should call this.
func RecordRequest() {
	traffic.RecordAccepted()
}

// RecordRequestN records n served requests. For synthetic load injection.
func RecordRequestN(n int) {
	traffic.RecordAcceptedN(n)
}

// RequestCount returns the number of served requests within the given window ending at now.
func RequestCount(window time.Duration) int {
	return traffic.AcceptedCount(window)
}

// IsIdle reports whether the instance has outlived minimumLifespan since startedAt and
// served fewer than threshold requests in window. Disabled when window or minimumLifespan is zero.
func IsIdle(startedAt time.Time, minimumLifespan, window time.Duration, threshold int) bool {
	if window <= 0 || minimumLifespan <= 0 {
		return false
	}
	if time.Since(startedAt) < minimumLifespan {
		return false
	}
	return RequestCount(window) < threshold
}

// Reset clears all recorded requests. For tests only.
func Reset() {
	traffic.Reset()
}
