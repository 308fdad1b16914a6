package server

import (
	"net/http"

	"gamepanel/internal/auth"
	"gamepanel/internal/constants"
)

// =============================================================================
// Auth Helpers
// =============================================================================

// requireAuth extracts the authenticated identity from the request.
// Returns nil and writes a 401 response if not authenticated.
func (s *Server) requireAuth(w http.ResponseWriter, r *http.Request) *auth.Identity {
	identity, ok := auth.RequireAuth(r)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Authentication required", constants.ErrCodeAuthRequired)
		return nil
	}
	return identity
}

// requirePermission authenticates the request and checks permission against
// the caller's current role. Returns nil after writing 401 or 403.
func (s *Server) requirePermission(w http.ResponseWriter, r *http.Request, permission string) *auth.Identity {
	identity := s.requireAuth(w, r)
	if identity == nil {
		return nil
	}
	if err := s.svc.Auth.Authorize(r.Context(), actorFor(r, identity), permission, r.URL.Path); err != nil {
		s.handleServiceError(w, r, err)
		return nil
	}
	return identity
}

// =============================================================================
// Public Auth Endpoints
// =============================================================================

// POST /api/auth/login - Authenticate and receive an access/refresh token pair
func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "Username and password are required", constants.ErrCodeInvalidRequest)
		return
	}

	res, err := s.svc.Auth.Login(r.Context(), req.Username, req.Password, actorFor(r, nil))
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, res)
}

// POST /api/auth/refresh - Exchange a refresh token for a new pair
func (s *Server) handleAuthRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		WriteError(w, http.StatusBadRequest, "refreshToken is required", constants.ErrCodeInvalidRequest)
		return
	}

	pair, err := s.svc.Auth.Refresh(r.Context(), req.RefreshToken, actorFor(r, nil))
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, pair)
}

// =============================================================================
// Authenticated Auth Endpoints
// =============================================================================

// POST /api/auth/logout - Revoke every token of the caller
func (s *Server) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	identity := s.requireAuth(w, r)
	if identity == nil {
		return
	}
	if err := s.svc.Auth.Logout(r.Context(), actorFor(r, identity)); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]interface{}{"success": true})
}

// GET /api/auth/me - Current user, role and effective permissions
func (s *Server) handleAuthMe(w http.ResponseWriter, r *http.Request) {
	identity := s.requireAuth(w, r)
	if identity == nil {
		return
	}
	profile, err := s.svc.Auth.Me(r.Context(), identity.Username)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, profile)
}

// POST /api/auth/password - Change own password
func (s *Server) handleAuthPassword(w http.ResponseWriter, r *http.Request) {
	identity := s.requireAuth(w, r)
	if identity == nil {
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	pair, err := s.svc.Auth.ChangeOwnPassword(r.Context(), actorFor(r, identity), req.CurrentPassword, req.NewPassword)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, pair)
}

// POST /api/ws-ticket - Single-use ticket for the streaming console
func (s *Server) handleWSTicket(w http.ResponseWriter, r *http.Request) {
	identity := s.requirePermission(w, r, constants.PermConsoleView)
	if identity == nil {
		return
	}

	res, err := s.svc.Auth.IssueTicket(r.Context(), actorFor(r, identity))
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, res)
}
