package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"storefront-be/internal/apperror"
	"storefront-be/internal/auth"
	"storefront-be/internal/utils"

	"golang.org/x/time/rate"
)

// Checkout touches stock and orders, so it gets its own tighter bucket.
const (
	limitStrict = rate.Limit(2)
	burstStrict = 5

	visitorIdle     = 3 * time.Minute
	cleanupInterval = time.Minute
)

// visitor holds the rate limiter and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type Limiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	visitors map[string]*visitor
}

func NewLimiter(perSecond float64, burst int) *Limiter {
	return &Limiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		visitors: make(map[string]*visitor),
	}
}

// getVisitor retrieves or creates the bucket for key.
func (l *Limiter) getVisitor(key string, r rate.Limit, b int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.visitors[key]
	if !exists {
		limiter := rate.NewLimiter(r, b)
		l.visitors[key] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// Cleanup drops idle buckets until ctx is done.
func (l *Limiter) Cleanup(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep(time.Now())
		}
	}
}

func (l *Limiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > visitorIdle {
			delete(l.visitors, key)
		}
	}
}

// Middleware must run after IdentityMiddleware so buckets are per owner.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, burst, tier := l.resolveRateTier(r)

		// A freshly minted session is new on every cookieless request, so
		// those callers share a bucket per client IP.
		id, ok := auth.IdentityFrom(r.Context())
		identity := id.OwnerID
		if !ok || identity == "" || id.NewSession {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			identity = "ip:" + ip
		}

		// e.g. "user:1:strict"; strict and general quotas are separate
		key := fmt.Sprintf("%s:%s", identity, tier)

		if !l.getVisitor(key, limit, burst).Allow() {
			utils.WriteError(r.Context(), w, apperror.New(apperror.CodeRateLimited, "too many requests"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *Limiter) resolveRateTier(r *http.Request) (rate.Limit, int, string) {
	if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/checkout") {
		return limitStrict, burstStrict, "strict"
	}
	return l.limit, l.burst, "general"
}
