package overload

import (
	"time"

	"github.com/kjstillabower/medicure-service/internal/traffic"
)

// RecordDenial records a rate-limit denial. Call from the HTTP middleware or gRPC interceptor when rejecting.
func RecordDenial() {
	traffic.RecordDenied()
}

// RequestCount returns the number of requests (accepted + denied) within the given window.
func RequestCount(window time.Duration) int {
	return traffic.RequestCount(window)
}

// DenialCount returns the number of denials within the given window.
func DenialCount(window time.Duration) int {
	return traffic.DenialCount(window)
}

// Threshold returns the request count above which the service reports overloaded:
// rps * window * pct / 100. Returns 0 when the rate limiter is disabled (rps <= 0).
func Threshold(rps int, window time.Duration, pct int) float64 {
	if rps <= 0 {
		return 0
	}
	return float64(rps) * window.Seconds() * float64(pct) / 100
}

// IsOverloaded reports whether traffic in window exceeds Threshold. Always false when rps <= 0.
func IsOverloaded(rps int, window time.Duration, pct int) bool {
	if rps <= 0 {
		return false
	}
	return float64(RequestCount(window)) > Threshold(rps, window, pct)
}

// Reset clears all recorded data. For tests only.
func Reset() {
	traffic.Reset()
}
