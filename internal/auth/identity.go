package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "session_id"

	userPrefix = "user:"
	anonPrefix = "anon:"
)

// Identity is who owns the cart of a request.
type Identity struct {
	OwnerID   string
	UserID    string
	SessionID string
	// NewSession is set when an anonymous session id was just minted and has
	// to be handed back to the client.
	NewSession bool
}

func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// ResolveOwner prefers a valid access token, then a client supplied session
// id, and finally mints a fresh anonymous session.
func ResolveOwner(r *http.Request, secret []byte) Identity {
	if tokenStr := ExtractAccessToken(r); tokenStr != "" && len(secret) > 0 {
		if claims, err := ParseToken(tokenStr, secret); err == nil {
			return Identity{OwnerID: userPrefix + claims.UserID, UserID: claims.UserID}
		}
	}

	if sid := sessionID(r); sid != "" {
		return Identity{OwnerID: anonPrefix + sid, SessionID: sid}
	}

	sid := uuid.NewString()
	return Identity{OwnerID: anonPrefix + sid, SessionID: sid, NewSession: true}
}

func sessionID(r *http.Request) string {
	sid := strings.TrimSpace(r.Header.Get(SessionHeader))
	if sid == "" {
		if c, err := r.Cookie(SessionCookie); err == nil {
			sid = c.Value
		}
	}
	if _, err := uuid.Parse(sid); err != nil {
		return ""
	}
	return sid
}

type ctxKey string

const identityKey ctxKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// OwnerFrom returns "" when the request went through no identity middleware.
func OwnerFrom(ctx context.Context) string {
	id, _ := IdentityFrom(ctx)
	return id.OwnerID
}
