package server

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"gamepanel/internal/auth"
	"gamepanel/internal/constants"
	"gamepanel/internal/services"
)

// getClientIP returns the peer address of the request. Forwarding headers
// are ignored since any client can set them and the rate limiters key on
// this value.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// actorFor describes the caller for services and the audit trail.
func actorFor(r *http.Request, identity *auth.Identity) services.Actor {
	a := services.Actor{
		IP:        getClientIP(r),
		UserAgent: r.Header.Get(constants.HeaderUserAgent),
	}
	if identity != nil {
		a.Username = identity.Username
	}
	return a
}

// decodeJSON reads a JSON request body into v. It writes the error response
// and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large", constants.ErrCodeInvalidRequest)
			return false
		}
		WriteError(w, http.StatusBadRequest, "Invalid JSON", constants.ErrCodeInvalidRequest)
		return false
	}
	return true
}
