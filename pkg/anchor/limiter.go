package anchor

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const DefaultLimiterIdleTTL = 10 * time.Minute

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	// set through SetLimiter, never evicted
	custom bool
}

// RateLimiterStore keeps one upload limiter per user. Default limiters that sat idle for
// IdleTTL with a full bucket are dropped, user ids come straight from request paths.
type RateLimiterStore struct {
	limiters     map[string]*userLimiter
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
	lastPrune    time.Time

	IdleTTL time.Duration
	Clock   func() time.Time
}

func NewRateLimiterStore(defaultRate rate.Limit, defaultBurst int) *RateLimiterStore {
	return &RateLimiterStore{
		limiters:     make(map[string]*userLimiter),
		defaultRate:  defaultRate,
		defaultBurst: defaultBurst,
		IdleTTL:      DefaultLimiterIdleTTL,
	}
}

func (s *RateLimiterStore) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *RateLimiterStore) GetLimiter(userID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)

	entry, exists := s.limiters[userID]
	if !exists {
		entry = &userLimiter{limiter: rate.NewLimiter(s.defaultRate, s.defaultBurst)}
		s.limiters[userID] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

func (s *RateLimiterStore) SetLimiter(userID string, userRate rate.Limit, userBurst int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limiters[userID] = &userLimiter{
		limiter:  rate.NewLimiter(userRate, userBurst),
		lastSeen: s.now(),
		custom:   true,
	}
}

// Allow is true when no store is configured.
func (s *RateLimiterStore) Allow(userID string) bool {
	if s == nil {
		return true
	}
	return s.GetLimiter(userID).Allow()
}

// Len is the number of users currently tracked.
func (s *RateLimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// pruneLocked runs at most once per IdleTTL. A dropped limiter had a full bucket, so
// recreating it later gives the user the same allowance.
func (s *RateLimiterStore) pruneLocked(now time.Time) {
	if s.IdleTTL <= 0 || now.Sub(s.lastPrune) < s.IdleTTL {
		return
	}
	s.lastPrune = now

	for userID, entry := range s.limiters {
		if entry.custom || now.Sub(entry.lastSeen) < s.IdleTTL {
			continue
		}
		if entry.limiter.TokensAt(now) >= float64(entry.limiter.Burst()) {
			delete(s.limiters, userID)
		}
	}
}
