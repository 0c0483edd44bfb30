package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Limiter applies one policy over a store.
type Limiter struct {
	store  Store
	policy Policy
	now    func() time.Time
}

func New(store Store, policy Policy) *Limiter {
	return &Limiter{store: store, policy: policy, now: time.Now}
}

// WithClock replaces the time source, mainly for tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

func (l *Limiter) Policy() Policy {
	return l.policy
}

// Allow records a request from clientIP and reports whether it is within
// the policy.
func (l *Limiter) Allow(ctx context.Context, clientIP string) (Decision, error) {
	return l.store.Take(ctx, HashKey(l.policy, clientIP), l.policy, l.now())
}

// HashKey namespaces the hashed client address by policy so the same
// client has independent windows per endpoint.
func HashKey(p Policy, clientIP string) string {
	h := sha256.Sum256([]byte(clientIP))
	return p.Name + ":" + hex.EncodeToString(h[:])
}
