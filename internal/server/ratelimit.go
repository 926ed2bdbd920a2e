package server

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/osse101/playerledger/internal/auth"
	"github.com/osse101/playerledger/internal/logger"
	"github.com/osse101/playerledger/internal/metrics"
)

// AccountLimiter is a token bucket per account. Idle buckets age out of the LRU.
type AccountLimiter struct {
	limit rate.Limit
	burst int

	// mu makes get-or-create atomic; the LRU has no PeekOrAdd.
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
}

// NewAccountLimiter allows perSecond sustained requests per account with the given burst.
func NewAccountLimiter(perSecond float64, burst, size int, idle time.Duration) *AccountLimiter {
	if size <= 0 {
		size = DefaultLimiterCacheSize
	}
	if idle <= 0 {
		idle = DefaultLimiterIdleTTL
	}
	return &AccountLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: expirable.NewLRU[string, *rate.Limiter](size, nil, idle),
	}
}

func (l *AccountLimiter) limiter(accountID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.limiters.Get(accountID); ok {
		return lim
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.limiters.Add(accountID, lim)
	return lim
}

// Reserve takes a token for accountID. It returns zero when the request may proceed,
// otherwise how long the caller should wait.
func (l *AccountLimiter) Reserve(accountID string, now time.Time) time.Duration {
	lim := l.limiter(accountID)
	if lim.AllowN(now, 1) {
		return 0
	}
	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return time.Second
	}
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	if delay <= 0 {
		delay = time.Millisecond
	}
	return delay
}

// Middleware throttles authenticated requests per account. Requests without a
// session pass through; the session middleware has already rejected them.
func (l *AccountLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := auth.SessionFrom(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		if wait := l.Reserve(session.AccountID, time.Now()); wait > 0 {
			metrics.RateLimitedTotal.Inc()
			logger.FromContext(r.Context()).Warn(LogMsgAccountThrottled, "account_id", session.AccountID, "retry_after", wait)
			w.Header().Set(HeaderRetryAfter, strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			http.Error(w, ErrMsgTooManyRequests, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
