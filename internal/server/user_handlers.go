package server

import (
	"net/http"

	"gamepanel/internal/auth"
	"gamepanel/internal/constants"
)

// =============================================================================
// Users
// =============================================================================

// GET /api/users - List accounts
func (s *Server) handleUsersList(w http.ResponseWriter, r *http.Request) {
	if s.requirePermission(w, r, constants.PermUsersView) == nil {
		return
	}
	users, err := s.svc.Users.List(r.Context())
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]interface{}{"users": users})
}

// POST /api/users - Create an account
func (s *Server) handleUsersCreate(w http.ResponseWriter, r *http.Request) {
	identity := s.requirePermission(w, r, constants.PermUsersManage)
	if identity == nil {
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		RoleID   string `json:"role_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.svc.Users.Create(r.Context(), actorFor(r, identity), req.Username, req.Password, req.RoleID)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, user)
}

// PUT /api/users/{name}/role - Move a user to another role
func (s *Server) handleUsersSetRole(w http.ResponseWriter, r *http.Request) {
	identity := s.requirePermission(w, r, constants.PermUsersManage)
	if identity == nil {
		return
	}

	var req struct {
		RoleID string `json:"role_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.svc.Users.SetRole(r.Context(), actorFor(r, identity), r.PathValue("name"), req.RoleID); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]interface{}{"success": true})
}

// PUT /api/users/{name}/password - Reset another user's password
func (s *Server) handleUsersSetPassword(w http.ResponseWriter, r *http.Request) {
	identity := s.requirePermission(w, r, constants.PermUsersManage)
	if identity == nil {
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.svc.Users.SetPassword(r.Context(), actorFor(r, identity), r.PathValue("name"), req.Password); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]interface{}{"success": true})
}

// DELETE /api/users/{name} - Delete an account
func (s *Server) handleUsersDelete(w http.ResponseWriter, r *http.Request) {
	identity := s.requirePermission(w, r, constants.PermUsersManage)
	if identity == nil {
		return
	}
	if err := s.svc.Users.Delete(r.Context(), actorFor(r, identity), r.PathValue("name")); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]interface{}{"success": true})
}

// =============================================================================
// Roles
// =============================================================================

// GET /api/roles - List roles
func (s *Server) handleRolesList(w http.ResponseWriter, r *http.Request) {
	if s.requirePermission(w, r, constants.PermRolesManage) == nil {
		return
	}
	roles, err := s.svc.Roles.List(r.Context())
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]interface{}{"roles": roles})
}

// GET /api/roles/permissions - Permission catalogue
func (s *Server) handleRolesCatalogue(w http.ResponseWriter, r *http.Request) {
	if s.requirePermission(w, r, constants.PermRolesManage) == nil {
		return
	}
	WriteSuccess(w, map[string]interface{}{"permissions": s.svc.Roles.Catalogue()})
}

// POST /api/roles - Create a role
func (s *Server) handleRolesCreate(w http.ResponseWriter, r *http.Request) {
	identity := s.requirePermission(w, r, constants.PermRolesManage)
	if identity == nil {
		return
	}

	var in auth.RoleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	role, err := s.svc.Roles.Create(r.Context(), actorFor(r, identity), in)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, role)
}

// PUT /api/roles/{id} - Replace a role's fields
func (s *Server) handleRolesUpdate(w http.ResponseWriter, r *http.Request) {
	identity := s.requirePermission(w, r, constants.PermRolesManage)
	if identity == nil {
		return
	}

	var in auth.RoleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	role, err := s.svc.Roles.Update(r.Context(), actorFor(r, identity), r.PathValue("id"), in)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, role)
}

// DELETE /api/roles/{id} - Delete an unused custom role
func (s *Server) handleRolesDelete(w http.ResponseWriter, r *http.Request) {
	identity := s.requirePermission(w, r, constants.PermRolesManage)
	if identity == nil {
		return
	}
	if err := s.svc.Roles.Delete(r.Context(), actorFor(r, identity), r.PathValue("id")); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]interface{}{"success": true})
}
