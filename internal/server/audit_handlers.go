package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"gamepanel/internal/audit"
	"gamepanel/internal/constants"
)

// streamEvent is one Server-Sent Event on the audit stream.
type streamEvent struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// sseWriter writes events to a flushing response.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeSSE)
	w.Header().Set(constants.HeaderCacheControl, constants.SSECacheControl)
	w.Header().Set(constants.HeaderConnection, constants.SSEConnection)
	w.Header().Set(constants.HeaderXAccelBuffering, constants.SSEXAccelBuffering) // Disable nginx buffering

	return &sseWriter{w: w, flusher: flusher}, nil
}

func (s *sseWriter) send(eventType string, data interface{}) error {
	jsonData, err := json.Marshal(streamEvent{Type: eventType, Timestamp: time.Now().Unix(), Data: data})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// parseAuditQuery reads the shared audit filters. It writes a 400 and
// returns false on invalid input.
func parseAuditQuery(w http.ResponseWriter, r *http.Request, username string) (audit.QueryOptions, bool) {
	q := r.URL.Query()
	opts := audit.QueryOptions{RequestingUsername: username}

	for name, dst := range map[string]*int{"limit": &opts.Limit, "offset": &opts.Offset} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				WriteError(w, http.StatusBadRequest, "Invalid "+name, constants.ErrCodeInvalidRequest)
				return opts, false
			}
			*dst = n
		}
	}
	for name, dst := range map[string]*int64{"since": &opts.Since, "until": &opts.Until} {
		if v := q.Get(name); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "Invalid "+name, constants.ErrCodeInvalidRequest)
				return opts, false
			}
			*dst = n
		}
	}

	if action := q.Get("action"); action != "" {
		if !audit.IsValidAction(action) {
			WriteError(w, http.StatusBadRequest, "Invalid action type", constants.ErrCodeInvalidRequest)
			return opts, false
		}
		opts.Action = action
	}
	opts.IPAddress = q.Get("ip")
	opts.Username = q.Get("username")

	// Parse filter parameter for ME/OTHERS filtering
	if filter := q.Get("filter"); filter != "" {
		if !audit.IsValidFilter(filter) {
			WriteError(w, http.StatusBadRequest, "Invalid filter. Must be: me, others, or empty",
				constants.ErrCodeAuditBadFilter)
			return opts, false
		}
		opts.Filter = filter
	}
	return opts, true
}

// handleAuditQuery handles GET /api/audit - Query audit logs
func (s *Server) handleAuditQuery(w http.ResponseWriter, r *http.Request) {
	identity := s.requirePermission(w, r, constants.PermAuditView)
	if identity == nil {
		return
	}

	opts, ok := parseAuditQuery(w, r, identity.Username)
	if !ok {
		return
	}

	db := s.app.AuditLogger.DB()
	entries, err := audit.Query(db, opts)
	if err != nil {
		s.logger.Error("Audit: query failed: %v", err)
		WriteError(w, http.StatusInternalServerError, "Failed to query audit log", constants.ErrCodeAuditLogError)
		return
	}
	total, err := audit.Count(db, opts)
	if err != nil {
		s.logger.Warn("Audit: count failed: %v", err)
	}

	// Default limit if not specified
	limit := opts.Limit
	if limit <= 0 {
		limit = constants.AuditDefaultQueryLimit
	}
	if limit > constants.AuditMaxQueryLimit {
		limit = constants.AuditMaxQueryLimit
	}

	WriteSuccess(w, map[string]interface{}{
		"entries": entries,
		"total":   total,
		"limit":   limit,
		"offset":  opts.Offset,
	})
}

// handleAuditStream handles GET /api/audit/stream - SSE stream of new audit entries
func (s *Server) handleAuditStream(w http.ResponseWriter, r *http.Request) {
	identity := s.requirePermission(w, r, constants.PermAuditView)
	if identity == nil {
		return
	}

	filter := r.URL.Query().Get("filter")
	if filter != "" && !audit.IsValidFilter(filter) {
		WriteError(w, http.StatusBadRequest, "Invalid filter. Must be: me, others, or empty",
			constants.ErrCodeAuditBadFilter)
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Streaming not supported", constants.ErrCodeInternalError)
		return
	}

	// Subscribe to audit events
	ch := s.app.AuditLogger.Subscribe()
	defer s.app.AuditLogger.Unsubscribe(ch)

	username := identity.Username
	if err := sse.send("connected", map[string]interface{}{
		"message":  "Audit stream connected",
		"username": username,
	}); err != nil {
		return
	}

	keepAlive := time.NewTicker(constants.SSEKeepAlive)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			sse.flusher.Flush()
		case entry, ok := <-ch:
			if !ok {
				return
			}

			// Apply filter to SSE entries using username
			switch filter {
			case constants.AuditFilterMe:
				if entry.Username != username {
					continue
				}
			case constants.AuditFilterOthers:
				if entry.Username == username {
					continue
				}
			}

			if err := sse.send("audit_entry", entry); err != nil {
				return
			}
		}
	}
}

// handleAuditActions handles GET /api/audit/actions - List valid action types
func (s *Server) handleAuditActions(w http.ResponseWriter, r *http.Request) {
	if s.requirePermission(w, r, constants.PermAuditView) == nil {
		return
	}
	WriteSuccess(w, map[string]interface{}{
		"actions": audit.ValidActions(),
	})
}
