package server

import (
	"encoding/json"
	"net/http"

	"gamepanel/internal/constants"
	"gamepanel/internal/services"
)

// APIError represents a standard error response
type APIError struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error response
func WriteError(w http.ResponseWriter, status int, message string, code string) {
	WriteJSON(w, status, APIError{
		Error:   true,
		Message: message,
		Code:    code,
	})
}

// WriteSuccess writes a simple success response
func WriteSuccess(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, data)
}

// statusForCode maps service error codes to HTTP status codes.
func statusForCode(code string) int {
	switch code {
	case constants.ErrCodeInvalidRequest, constants.ErrCodeInputRejected,
		constants.ErrCodeUsernameInvalid, constants.ErrCodePasswordWeak,
		constants.ErrCodeRoleInvalid, constants.ErrCodeSelfDelete,
		constants.ErrCodeAuditBadFilter:
		return http.StatusBadRequest
	case constants.ErrCodeAuthRequired, constants.ErrCodeAuthInvalidCredentials,
		constants.ErrCodeAuthInvalidToken, constants.ErrCodeAuthInvalidTicket:
		return http.StatusUnauthorized
	case constants.ErrCodeAuthForbidden, constants.ErrCodeSystemRole:
		return http.StatusForbidden
	case constants.ErrCodeNotFound, constants.ErrCodeUserNotFound,
		constants.ErrCodeRoleNotFound, constants.ErrCodeFileNotFound:
		return http.StatusNotFound
	case constants.ErrCodeUserExists, constants.ErrCodeRoleExists, constants.ErrCodeRoleInUse:
		return http.StatusConflict
	case constants.ErrCodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case constants.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case constants.ErrCodeTicketCapacity, constants.ErrCodeConfigInsecure:
		return http.StatusServiceUnavailable
	case constants.ErrCodeConsoleError:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// handleServiceError maps service errors to HTTP responses. Only the
// client-safe message is written; wrapped causes go to the log.
func (s *Server) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	svcErr, ok := services.AsServiceError(err)
	if !ok {
		svcErr = services.WrapInternalError(err)
	}

	status := statusForCode(svcErr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s failed: %v", r.Method, r.URL.Path, err)
	}
	if svcErr.Code == constants.ErrCodeInternalError {
		WriteError(w, status, services.ErrInternal.Message, svcErr.Code)
		return
	}
	WriteError(w, status, svcErr.Message, svcErr.Code)
}
