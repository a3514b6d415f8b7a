package traffic

import (
	"sync"
	"time"
)

// Outcome classifies a request on the rate-limited greeting path.
type Outcome int

const (
	// Accepted requests passed the rate limiter and were served.
	Accepted Outcome = iota
	// Denied requests were rejected by the rate limiter.
	Denied

	numOutcomes
)

// DefaultMaxAge bounds how long outcomes are retained. Windows longer than this undercount.
const DefaultMaxAge = 30 * time.Minute

var defaultTracker = NewTracker(DefaultMaxAge, nil)

// RecordAccepted records an accepted request.
func RecordAccepted() {
	defaultTracker.Record(Accepted)
}

// RecordAcceptedN records n accepted requests. For synthetic load injection.
func RecordAcceptedN(n int) {
	defaultTracker.RecordN(Accepted, n)
}

// RecordDenied records a rate-limit denial.
func RecordDenied() {
	defaultTracker.Record(Denied)
}

// AcceptedCount returns the number of accepted requests within the window.
func AcceptedCount(window time.Duration) int {
	return defaultTracker.Count(Accepted, window)
}

// DenialCount returns the number of denials within the window.
func DenialCount(window time.Duration) int {
	return defaultTracker.Count(Denied, window)
}

// RequestCount returns accepted + denied within the window.
func RequestCount(window time.Duration) int {
	return defaultTracker.Total(window)
}

// Reset clears all recorded outcomes. For tests and testing mode only.
func Reset() {
	defaultTracker.Reset()
}

// Tracker maintains sliding windows of outcome timestamps.
// Single source of truth for overload (RequestCount, DenialCount) and idle (AcceptedCount).
type Tracker struct {
	mu     sync.Mutex
	now    func() time.Time
	maxAge time.Duration
	times  [numOutcomes][]time.Time
}

// NewTracker returns a Tracker that keeps outcomes for maxAge. now defaults to time.Now.
func NewTracker(maxAge time.Duration, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Tracker{now: now, maxAge: maxAge}
}

// Record records a single outcome at the current time.
func (t *Tracker) Record(o Outcome) {
	t.RecordN(o, 1)
}

// RecordN records n outcomes at the current time.
func (t *Tracker) RecordN(o Outcome, n int) {
	if o < 0 || o >= numOutcomes || n <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	for i := 0; i < n; i++ {
		t.times[o] = append(t.times[o], now)
	}
	t.pruneLocked(now)
}

// Count returns the number of o outcomes within the window ending now.
func (t *Tracker) Count(o Outcome, window time.Duration) int {
	if o < 0 || o >= numOutcomes {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return countSince(t.times[o], t.now().Add(-window))
}

// Total returns the number of outcomes of every kind within the window ending now.
func (t *Tracker) Total(window time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-window)
	n := 0
	for _, times := range t.times {
		n += countSince(times, cutoff)
	}
	return n
}

// Reset clears all recorded outcomes.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.times {
		t.times[i] = nil
	}
}

// countSince counts timestamps not before cutoff. times is in ascending order.
func countSince(times []time.Time, cutoff time.Time) int {
	i := 0
	for ; i < len(times) && times[i].Before(cutoff); i++ {
	}
	return len(times) - i
}

// pruneLocked drops timestamps older than maxAge. Must be called with mu held.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-t.maxAge)
	for o, times := range t.times {
		i := 0
		for ; i < len(times) && times[i].Before(cutoff); i++ {
		}
		if i > 0 {
			t.times[o] = append(times[:0], times[i:]...)
		}
	}
}
