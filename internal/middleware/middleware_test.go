package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront-be/internal/auth"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var secret = []byte("test-secret")

func TestIdentityMiddleware(t *testing.T) {
	var seen auth.Identity
	var logOwner string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.IdentityFrom(r.Context())
		logOwner = logger.OwnerIDFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := IdentityMiddleware(secret)(next)

	t.Run("Valid Token", func(t *testing.T) {
		token, err := auth.IssueToken("7", secret, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user:7", seen.OwnerID)
		assert.Equal(t, "user:7", logOwner)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("Anonymous gets a session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		require.True(t, seen.NewSession)
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, auth.SessionCookie, cookies[0].Name)
		assert.Equal(t, seen.SessionID, cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, seen.SessionID, w.Header().Get(auth.SessionHeader))
	})

	t.Run("Known session is reused", func(t *testing.T) {
		const sid = "5f0c7f0e-8f7a-4d8e-9d43-62e1f5c2b9aa"
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(auth.SessionHeader, sid)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, "anon:"+sid, seen.OwnerID)
		assert.Empty(t, w.Result().Cookies())
	})
}

func TestLimiter(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	serve := func(h http.Handler, method, path, owner string) int {
		req := httptest.NewRequest(method, path, nil)
		req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{OwnerID: owner}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("Burst then reject", func(t *testing.T) {
		l := NewLimiter(0.001, 2)
		h := l.Middleware(ok)

		assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/v1/cart/snapshot", "anon:a"))
		assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/v1/cart/snapshot", "anon:a"))
		assert.Equal(t, http.StatusTooManyRequests, serve(h, http.MethodGet, "/api/v1/cart/snapshot", "anon:a"))

		// other owners have their own bucket
		assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/v1/cart/snapshot", "anon:b"))
	})

	t.Run("Checkout uses the strict tier", func(t *testing.T) {
		l := NewLimiter(1000, 1000)
		h := l.Middleware(ok)

		for i := 0; i < burstStrict; i++ {
			require.Equal(t, http.StatusOK, serve(h, http.MethodPost, "/api/v1/checkout", "user:1"))
		}
		assert.Equal(t, http.StatusTooManyRequests, serve(h, http.MethodPost, "/api/v1/checkout", "user:1"))
		assert.Equal(t, http.StatusOK, serve(h, http.MethodPost, "/api/v1/cart/actions", "user:1"))
	})

	t.Run("Cookieless callers share a bucket per IP", func(t *testing.T) {
		l := NewLimiter(0.001, 1)
		h := IdentityMiddleware(secret)(l.Middleware(ok))

		codes := make([]int, 0, 5)
		for i := 0; i < 5; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/snapshot", nil)
			req.RemoteAddr = "203.0.113.7:5555"
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			codes = append(codes, w.Code)
		}

		assert.Equal(t, []int{200, 429, 429, 429, 429}, codes)
		assert.Len(t, l.visitors, 1)
		assert.Contains(t, l.visitors, "ip:203.0.113.7:general")
	})

	t.Run("Sweep drops idle visitors", func(t *testing.T) {
		l := NewLimiter(1, 1)
		l.getVisitor("user:1:general", 1, 1)

		l.sweep(time.Now().Add(visitorIdle + time.Second))

		assert.Empty(t, l.visitors)
	})
}

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger.Set(zap.New(core))
	defer logger.Set(nil)

	r := chi.NewRouter()
	r.Use(logger.RequestIDMiddleware, LoggingMiddleware)
	r.Get("/api/v1/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("/api/v1/items/{id}", "418"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/123", nil)
	req.Header.Set(logger.RequestIDHeader, "rid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("/api/v1/items/{id}", "418")))

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "rid-1", fields["request_id"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.True(t, strings.HasSuffix(fields["path"].(string), "/123"))
}
