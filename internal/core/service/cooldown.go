package service

import (
	"math"
	"strconv"
	"time"

	"github.com/yndnr/tokrelay-go/pkg/cmap"
)

// DefaultMaxCooldownEntries is the table size above which stale entries
// are swept.
const DefaultMaxCooldownEntries = 10000

type cooldownEntry struct {
	last     time.Time
	cooldown time.Duration
}

func (e cooldownEntry) stale(now time.Time) bool {
	return now.Sub(e.last) >= e.cooldown
}

// CooldownLimiter admits at most one call per caller within a cooldown
// window. Rejected calls do not move the window.
type CooldownLimiter struct {
	entries    *cmap.Map[string, cooldownEntry]
	maxEntries int
	now        func() time.Time
}

// CooldownOption configures a CooldownLimiter.
type CooldownOption func(*CooldownLimiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CooldownOption {
	return func(l *CooldownLimiter) { l.now = now }
}

// WithMaxEntries sets the sweep threshold.
func WithMaxEntries(n int) CooldownOption {
	return func(l *CooldownLimiter) {
		if n > 0 {
			l.maxEntries = n
		}
	}
}

// NewCooldownLimiter creates an empty limiter.
func NewCooldownLimiter(opts ...CooldownOption) *CooldownLimiter {
	l := &CooldownLimiter{
		entries:    cmap.New[string, cooldownEntry](),
		maxEntries: DefaultMaxCooldownEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allowed reports whether caller may proceed. When it may not, wait is the
// remaining time until the previous call leaves the window.
func (l *CooldownLimiter) Allowed(caller string, cooldown time.Duration) (ok bool, wait time.Duration) {
	now := l.now()
	inserted := false

	l.entries.Compute(caller, func(old cooldownEntry, exists bool) (cooldownEntry, bool) {
		if exists {
			elapsed := max(now.Sub(old.last), 0)
			if elapsed < cooldown {
				wait = cooldown - elapsed
				return old, true
			}
		}
		ok = true
		inserted = !exists
		return cooldownEntry{last: now, cooldown: cooldown}, true
	})

	if inserted && l.entries.Len() > l.maxEntries {
		l.sweep(now)
	}
	return ok, wait
}

// Len returns the number of tracked callers.
func (l *CooldownLimiter) Len() int {
	return l.entries.Len()
}

func (l *CooldownLimiter) sweep(now time.Time) int {
	return l.entries.DeleteIf(func(_ string, e cooldownEntry) bool {
		return e.stale(now)
	})
}

// RetryAfterSeconds converts a cooldown wait to a Retry-After value.
func RetryAfterSeconds(wait time.Duration) int {
	if wait <= 0 {
		return 1
	}
	return int(math.Ceil(wait.Seconds()))
}

// IssueCooldownKey is the limiter key for token issuance by owner.
func IssueCooldownKey(ownerID int64) string {
	return "token:" + strconv.FormatInt(ownerID, 10)
}

// CollectCooldownKey is the limiter key for report submission.
func CollectCooldownKey(tokenID, clientIP string) string {
	return "collect:" + tokenID + ":" + clientIP
}
