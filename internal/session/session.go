// Package session exposes the current user's identity and role to handlers.
package session

import (
	"context"
	"net/http"
	"strings"

	"tradeAdmin/internal/models"
)

// Provider is a read-only view of who is making the request.
type Provider interface {
	Role() models.Role
	UserID() string
}

type Session struct {
	ID       string
	UserRole models.Role
}

func (s Session) Role() models.Role { return s.UserRole }

func (s Session) UserID() string { return s.ID }

// Anonymous is used when no valid session token accompanies the request.
var Anonymous = Session{}

// TokenParser validates a session token and returns its claims.
type TokenParser interface {
	Parse(token string) (*models.Claims, error)
}

type ctxKey struct{}

func WithContext(ctx context.Context, p Provider) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the session stored by the middleware, or Anonymous.
func FromContext(ctx context.Context) Provider {
	if p, ok := ctx.Value(ctxKey{}).(Provider); ok && p != nil {
		return p
	}
	return Anonymous
}

func FromRequest(r *http.Request) Provider {
	return FromContext(r.Context())
}

// Resolve reads the bearer token (or the named cookie) from r. Missing and
// invalid tokens resolve to Anonymous; the error is returned for logging.
func Resolve(r *http.Request, parser TokenParser, cookieName string) (Provider, error) {
	token := ""
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if token == "" && cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil {
			token = c.Value
		}
	}
	if token == "" {
		return Anonymous, nil
	}
	claims, err := parser.Parse(token)
	if err != nil {
		return Anonymous, err
	}
	return Session{ID: claims.UserID, UserRole: claims.Role}, nil
}
