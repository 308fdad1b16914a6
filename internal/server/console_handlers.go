package server

import (
	"net/http"

	"gamepanel/internal/constants"
)

// streamConsole names the console stream in the audit trail.
const streamConsole = "console"

// GET /ws/console?ticket= - Redeem the ticket, then upgrade. Failed
// redemptions are answered with 401 before any upgrade happens.
func (s *Server) handleConsoleStream(w http.ResponseWriter, r *http.Request) {
	ticket := r.URL.Query().Get(constants.AuthQueryParamTicket)
	if ticket == "" {
		WriteError(w, http.StatusUnauthorized, "Ticket required", constants.ErrCodeAuthInvalidTicket)
		return
	}

	username, err := s.svc.Auth.RedeemTicket(r.Context(), ticket, streamConsole, actorFor(r, nil))
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		s.logger.Debug("Console: websocket upgrade failed for %s: %v", username, err)
		return
	}
	s.app.Hub.Serve(conn, username)
}

// GET /api/console - Retained console lines and the verb allow-list
func (s *Server) handleConsoleInfo(w http.ResponseWriter, r *http.Request) {
	if s.requirePermission(w, r, constants.PermConsoleView) == nil {
		return
	}
	WriteSuccess(w, map[string]interface{}{
		"history": s.svc.Console.History(),
		"verbs":   s.svc.Console.Verbs(),
		"viewers": s.app.Hub.Count(),
	})
}

// POST /api/console/command - Validate and run a console command
func (s *Server) handleConsoleCommand(w http.ResponseWriter, r *http.Request) {
	identity := s.requirePermission(w, r, constants.PermConsoleExecute)
	if identity == nil {
		return
	}

	var req struct {
		Command string `json:"command"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.svc.Console.Execute(r.Context(), actorFor(r, identity), req.Command)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, res)
}
