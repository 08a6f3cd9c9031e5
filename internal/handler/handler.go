package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"storefront-be/internal/apperror"
	"storefront-be/internal/cart"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/middleware"
	"storefront-be/internal/order"
	"storefront-be/internal/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 20

type Checkouter interface {
	Checkout(ctx context.Context, in order.CheckoutInput) (*order.CheckoutResult, error)
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	carts    cart.Service
	checkout Checkouter
	db       Pinger
}

func New(carts cart.Service, checkout Checkouter, db Pinger) *Handler {
	return &Handler{carts: carts, checkout: checkout, db: db}
}

type RouterConfig struct {
	JWTSecret      []byte
	RequestTimeout time.Duration
	Limiter        *middleware.Limiter
}

// Router mounts the public API. Every request runs with its own deadline so
// a stuck lock wait surfaces as an error instead of a hung connection.
func (h *Handler) Router(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(logger.RequestIDMiddleware)
	r.Use(middleware.IdentityMiddleware(cfg.JWTSecret))
	r.Use(middleware.LoggingMiddleware)

	r.Get("/health", h.health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Limiter != nil {
			r.Use(cfg.Limiter.Middleware)
		}
		if cfg.RequestTimeout > 0 {
			r.Use(withTimeout(cfg.RequestTimeout))
		}

		r.Post("/cart", h.openCart)
		r.Post("/cart/actions", h.applyActions)
		r.Get("/cart/snapshot", h.snapshot)
		r.Post("/checkout", h.placeOrder)
	})

	return r
}

func withTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			logger.FromCtx(ctx).Warn("health check failed")
			utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeBody rejects unknown fields and trailing data.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.Wrap(apperror.CodeInvalidRequest, "malformed request body", err)
	}
	if dec.More() {
		return apperror.New(apperror.CodeInvalidRequest, "malformed request body")
	}
	return nil
}

// writeServiceError maps deadline errors to CONFLICT: the transaction was
// cancelled while waiting on a lock and nothing was committed.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		err = apperror.Wrap(apperror.CodeConflict, "request timed out, retry", err)
	}
	utils.WriteError(ctx, w, err)
}
