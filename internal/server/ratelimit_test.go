package server

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/osse101/playerledger/internal/auth"
)

func TestAccountLimiter_Reserve(t *testing.T) {
	l := NewAccountLimiter(1, 2, 0, 0)
	now := time.Now()

	assert.Zero(t, l.Reserve("acc-1", now))
	assert.Zero(t, l.Reserve("acc-1", now))
	assert.Positive(t, l.Reserve("acc-1", now))

	// Buckets are per account.
	assert.Zero(t, l.Reserve("acc-2", now))

	// Refills at the sustained rate.
	assert.Zero(t, l.Reserve("acc-1", now.Add(1100*time.Millisecond)))
}

func TestAccountLimiter_ConcurrentFirstRequestsShareBucket(t *testing.T) {
	l := NewAccountLimiter(0.001, 1, 0, 0)
	now := time.Now()

	const workers = 32
	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		allowed atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if l.Reserve("acc-1", now) == 0 {
				allowed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), allowed.Load())
}

func TestAccountLimiter_Middleware(t *testing.T) {
	l := NewAccountLimiter(0.001, 1, 0, 0)
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(withSession bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/v2/rpc/ledger_fetch_snapshot", nil)
		if withSession {
			req = req.WithContext(auth.WithSession(req.Context(), auth.Session{AccountID: "acc-1"}))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send(true).Code)
	rec := send(true)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Unauthenticated requests are not counted here.
	assert.Equal(t, http.StatusOK, send(false).Code)
}
