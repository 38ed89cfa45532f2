package denly

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// AdmissionConfig configures the admission policy applied before a request
// is decoded. Zero values disable the corresponding limit.
type AdmissionConfig struct {
	MaxInFlight     int64                        // concurrent requests in the pipeline
	QueueTimeout    time.Duration                // how long a request waits for a slot (default: 5s)
	Rate            float64                      // requests per second per client
	Burst           int                          // max burst per client (default: 1)
	KeyFunc         func(r *http.Request) string // default: remote IP
	CleanupInterval time.Duration                // how often to prune idle limiters (default: 1m)
	MaxIdle         time.Duration                // remove limiters idle longer than this (default: 5m)
}

// rejection describes why a request was not admitted.
type rejection struct {
	status     int
	retryAfter string
	reason     string
}

type admission struct {
	cfg AdmissionConfig
	sem *semaphore.Weighted

	mu          sync.Mutex
	limiters    map[string]*limiterEntry
	lastCleanup time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newAdmission(cfg AdmissionConfig) *admission {
	if cfg.QueueTimeout <= 0 {
		cfg.QueueTimeout = 5 * time.Second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = remoteIP
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	if cfg.MaxIdle <= 0 {
		cfg.MaxIdle = 5 * time.Minute
	}

	a := &admission{
		cfg:      cfg,
		limiters: make(map[string]*limiterEntry),
	}
	if cfg.MaxInFlight > 0 {
		a.sem = semaphore.NewWeighted(cfg.MaxInFlight)
	}
	return a
}

// admit applies the rate limit, then waits for an in-flight slot. On
// success the returned func releases the slot.
func (a *admission) admit(r *http.Request) (func(), *rejection) {
	if a.cfg.Rate > 0 && !a.limiter(a.cfg.KeyFunc(r)).Allow() {
		return nil, &rejection{
			status:     http.StatusTooManyRequests,
			retryAfter: strconv.FormatFloat(max(1/a.cfg.Rate, 1), 'f', 0, 64),
			reason:     "rate limited",
		}
	}

	if a.sem == nil {
		return func() {}, nil
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.cfg.QueueTimeout)
	defer cancel()
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return nil, &rejection{
			status:     http.StatusServiceUnavailable,
			retryAfter: strconv.Itoa(int(a.cfg.QueueTimeout.Seconds()) + 1),
			reason:     "too many requests in flight",
		}
	}
	return func() { a.sem.Release(1) }, nil
}

func (a *admission) limiter(key string) *rate.Limiter {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()

	// Lazy cleanup of expired limiters.
	if now.Sub(a.lastCleanup) >= a.cfg.CleanupInterval {
		for k, e := range a.limiters {
			if now.Sub(e.lastSeen) > a.cfg.MaxIdle {
				delete(a.limiters, k)
			}
		}
		a.lastCleanup = now
	}

	entry, ok := a.limiters[key]
	if !ok {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(a.cfg.Rate), a.cfg.Burst),
		}
		a.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
