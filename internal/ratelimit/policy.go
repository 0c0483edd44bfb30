// Package ratelimit bounds how often a client may call the expensive or
// abusable endpoints. Limits are fixed windows keyed by a hashed client
// address so raw IPs are never stored.
package ratelimit

import (
	"context"
	"math"
	"time"
)

// Policy is a fixed-window limit: at most MaxRequests within Window.
type Policy struct {
	Name        string
	Window      time.Duration
	MaxRequests int
}

var (
	GeneratePolicy = Policy{Name: "generate", Window: time.Minute, MaxRequests: 5}
	ContactPolicy  = Policy{Name: "contact", Window: time.Hour, MaxRequests: 3}
	// CooldownPolicy is the advisory client-side guard between generation requests.
	CooldownPolicy = Policy{Name: "cooldown", Window: 5 * time.Second, MaxRequests: 1}
)

// Record is the per-key window state. Count includes requests that were denied.
type Record struct {
	Key           string
	WindowStart   time.Time
	LastRequestAt time.Time
	Count         int
}

// Decision is the outcome of a single Take.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RetrySeconds rounds RetryAfter up to whole seconds. A denied decision is
// never below one second.
func (d Decision) RetrySeconds() int {
	if d.Allowed {
		return 0
	}
	secs := int(math.Ceil(d.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Store atomically records a request for key and reports whether it fits
// within the policy's current window.
type Store interface {
	Take(ctx context.Context, key string, p Policy, now time.Time) (Decision, error)
}

// decide derives the decision from a window that already includes the
// current request.
func decide(windowStart time.Time, count int, p Policy, now time.Time) Decision {
	if count <= p.MaxRequests {
		return Decision{Allowed: true}
	}
	retry := windowStart.Add(p.Window).Sub(now)
	if retry < 0 {
		retry = 0
	}
	return Decision{Allowed: false, RetryAfter: retry}
}
