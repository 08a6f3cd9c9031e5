package middleware

import (
	"net/http"

	"storefront-be/internal/auth"
	"storefront-be/internal/logger"
)

const sessionCookieMaxAge = 30 * 24 * 60 * 60

// IdentityMiddleware resolves the cart owner of every request. It never
// rejects: a request without credentials gets a fresh anonymous session,
// which is handed back as a cookie and a response header.
func IdentityMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := auth.ResolveOwner(r, secret)

			if id.NewSession {
				http.SetCookie(w, &http.Cookie{
					Name:     auth.SessionCookie,
					Value:    id.SessionID,
					Path:     "/",
					MaxAge:   sessionCookieMaxAge,
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			if id.SessionID != "" {
				w.Header().Set(auth.SessionHeader, id.SessionID)
			}

			ctx := auth.WithIdentity(r.Context(), id)
			ctx = logger.WithOwnerID(ctx, id.OwnerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
