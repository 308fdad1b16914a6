package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"gamepanel/internal/constants"
	"gamepanel/internal/logger"
)

func TestAuthenticateMiddleware(t *testing.T) {
	svc, _ := setupTokenService(t)
	pair, err := svc.IssuePair(context.Background(), "alice")
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}
	mw := NewMiddleware(svc, logger.NewDiscard())

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no header", "", ""},
		{"access token", constants.AuthBearerPrefix + pair.AccessToken, "alice"},
		{"refresh token", constants.AuthBearerPrefix + pair.RefreshToken, ""},
		{"missing prefix", pair.AccessToken, ""},
		{"garbage", constants.AuthBearerPrefix + "xyz", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			var got string
			h := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				if identity, ok := RequireAuth(r); ok {
					got = identity.Username
				}
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(constants.HeaderAuthorization, tt.header)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if !called {
				t.Fatal("middleware did not call next")
			}
			if got != tt.want {
				t.Errorf("identity = %q, want %q", got, tt.want)
			}
		})
	}
}
