package auth

import (
	"context"
	"net/http"
	"strings"

	"gamepanel/internal/constants"
	"gamepanel/internal/logger"
)

// contextKey is an unexported type for context keys in this package.
type contextKey int

const (
	identityContextKey contextKey = iota
)

// Middleware resolves bearer access tokens into an Identity on the request context.
type Middleware struct {
	tokens *TokenService
	logger *logger.Logger
}

// NewMiddleware creates the auth middleware.
func NewMiddleware(tokens *TokenService, log *logger.Logger) *Middleware {
	return &Middleware{tokens: tokens, logger: log}
}

// Authenticate sets the Identity on the context when the request carries a
// valid access token. It always calls next; handlers decide whether
// authentication is required via RequireAuth.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity := m.resolveIdentity(r); identity != nil {
			r = r.WithContext(WithIdentity(r.Context(), identity))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) resolveIdentity(r *http.Request) *Identity {
	header := r.Header.Get(constants.HeaderAuthorization)
	if header == "" || !strings.HasPrefix(header, constants.AuthBearerPrefix) {
		return nil
	}
	token := strings.TrimPrefix(header, constants.AuthBearerPrefix)

	identity, err := m.tokens.Validate(r.Context(), token, constants.TokenKindAccess)
	if err != nil {
		return nil
	}
	return identity
}

// WithIdentity returns a context carrying identity.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// GetIdentity retrieves the authenticated identity from the request context.
// Returns nil if no identity is present (unauthenticated request).
func GetIdentity(r *http.Request) *Identity {
	identity, _ := r.Context().Value(identityContextKey).(*Identity)
	return identity
}

// RequireAuth is a helper that extracts the identity and returns false if not present.
//
//	identity, ok := auth.RequireAuth(r)
//	if !ok { WriteError(w, 401, ...); return }
func RequireAuth(r *http.Request) (*Identity, bool) {
	identity := GetIdentity(r)
	if identity == nil || identity.Username == "" {
		return nil, false
	}
	return identity, true
}
