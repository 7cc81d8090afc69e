package web

import (
	"sync"
	"time"
)

// redeemRateLimiter tracks failed one-time-code redemptions per source IP and
// enforces exponential backoff. The codes are short by design (a human copies
// them off a television screen), so brute force must be throttled.
type redeemRateLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptRecord
}

type attemptRecord struct {
	failures    int
	lastFailure time.Time
	lockedUntil time.Time
}

const (
	// redeemMaxFailures is the number of consecutive failures before lockout begins.
	redeemMaxFailures = 5
	// redeemBaseLockout is the initial lockout duration after redeemMaxFailures.
	redeemBaseLockout = 1 * time.Minute
	// redeemMaxLockout caps the exponential backoff.
	redeemMaxLockout = 15 * time.Minute
	// redeemAttemptExpiry is how long after the last failure before the record
	// is garbage-collected.
	redeemAttemptExpiry = 1 * time.Hour
)

func newRedeemRateLimiter() *redeemRateLimiter {
	return &redeemRateLimiter{
		attempts: make(map[string]*attemptRecord),
	}
}

// check returns true if the IP is currently locked out, along with how long
// the caller should wait. A zero duration means the request may proceed.
func (rl *redeemRateLimiter) check(ip string) (blocked bool, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rec, ok := rl.attempts[ip]
	if !ok {
		return false, 0
	}
	// Expire stale records.
	if time.Since(rec.lastFailure) > redeemAttemptExpiry {
		delete(rl.attempts, ip)
		return false, 0
	}
	if time.Now().Before(rec.lockedUntil) {
		return true, time.Until(rec.lockedUntil)
	}
	return false, 0
}

// recordFailure increments the failure counter and applies exponential
// backoff once redeemMaxFailures is exceeded.
func (rl *redeemRateLimiter) recordFailure(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rec, ok := rl.attempts[ip]
	if !ok {
		rec = &attemptRecord{}
		rl.attempts[ip] = rec
	}
	rec.failures++
	rec.lastFailure = time.Now()

	if rec.failures >= redeemMaxFailures {
		shift := rec.failures - redeemMaxFailures
		lockout := redeemBaseLockout
		for i := 0; i < shift; i++ {
			lockout *= 2
			if lockout > redeemMaxLockout {
				lockout = redeemMaxLockout
				break
			}
		}
		rec.lockedUntil = time.Now().Add(lockout)
	}
}

// recordSuccess resets the failure counter after a successful redemption.
func (rl *redeemRateLimiter) recordSuccess(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.attempts, ip)
}
