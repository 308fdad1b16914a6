package services

import (
	"errors"
	"fmt"

	"gamepanel/internal/auth"
	"gamepanel/internal/constants"
	"gamepanel/internal/guard"
)

// ServiceError represents a service-level error with an error code.
// Message is safe to show to clients; Err is for server-side logs only.
type ServiceError struct {
	Code    string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new service error
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{Code: code, Message: message}
}

// WrapServiceError wraps an existing error with a service error
func WrapServiceError(code, message string, err error) *ServiceError {
	return &ServiceError{Code: code, Message: message, Err: err}
}

// IsServiceError checks if an error is a ServiceError and returns its code
func IsServiceError(err error) (string, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Code, true
	}
	return "", false
}

// AsServiceError returns the ServiceError in err's chain, if any.
func AsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}

// Pre-defined service errors for common cases
var (
	// Auth errors
	ErrAuthRequired           = NewServiceError(constants.ErrCodeAuthRequired, "authentication required")
	ErrAuthInvalidCredentials = NewServiceError(constants.ErrCodeAuthInvalidCredentials, "invalid credentials")
	ErrAuthInvalidToken       = NewServiceError(constants.ErrCodeAuthInvalidToken, "invalid token")
	ErrAuthInvalidTicket      = NewServiceError(constants.ErrCodeAuthInvalidTicket, "invalid ticket")
	ErrAuthForbidden          = NewServiceError(constants.ErrCodeAuthForbidden, "access denied")
	ErrTicketCapacity         = NewServiceError(constants.ErrCodeTicketCapacity, "too many outstanding tickets, retry shortly")

	// User errors
	ErrUserNotFound    = NewServiceError(constants.ErrCodeUserNotFound, "user not found")
	ErrUserExists      = NewServiceError(constants.ErrCodeUserExists, "user already exists")
	ErrUsernameInvalid = NewServiceError(constants.ErrCodeUsernameInvalid, "username must be 3-32 characters of letters, digits, _ or -")
	ErrPasswordWeak    = NewServiceError(constants.ErrCodePasswordWeak, "password does not meet requirements")
	ErrSelfDelete      = NewServiceError(constants.ErrCodeSelfDelete, "cannot delete your own account")

	// Role errors
	ErrRoleNotFound = NewServiceError(constants.ErrCodeRoleNotFound, "role not found")
	ErrRoleExists   = NewServiceError(constants.ErrCodeRoleExists, "role name already taken")
	ErrRoleInvalid  = NewServiceError(constants.ErrCodeRoleInvalid, "invalid role")
	ErrRoleInUse    = NewServiceError(constants.ErrCodeRoleInUse, "role is assigned to users")
	ErrSystemRole   = NewServiceError(constants.ErrCodeSystemRole, "system roles cannot be renamed, deleted or stripped of full access")

	// File and console errors
	ErrFileNotFound  = NewServiceError(constants.ErrCodeFileNotFound, "file not found")
	ErrFileTooLarge  = NewServiceError(constants.ErrCodeFileTooLarge, "file exceeds maximum size")
	ErrInvalidInput  = NewServiceError(constants.ErrCodeInvalidRequest, "invalid request")
	ErrConsoleFailed = NewServiceError(constants.ErrCodeConsoleError, "command could not be executed")

	// Internal errors
	ErrInternal = NewServiceError(constants.ErrCodeInternalError, "internal server error")
)

// authErrorMap pairs auth sentinel errors with their client-facing service errors.
var authErrorMap = []struct {
	err error
	svc *ServiceError
}{
	{auth.ErrInvalidCredentials, ErrAuthInvalidCredentials},
	{auth.ErrInvalidToken, ErrAuthInvalidToken},
	{auth.ErrInvalidTicket, ErrAuthInvalidTicket},
	{auth.ErrPermissionDenied, ErrAuthForbidden},
	{auth.ErrTicketCapacity, ErrTicketCapacity},
	{auth.ErrUserNotFound, ErrUserNotFound},
	{auth.ErrUserExists, ErrUserExists},
	{auth.ErrUsernameInvalid, ErrUsernameInvalid},
	{auth.ErrPasswordWeak, ErrPasswordWeak},
	{auth.ErrSelfDelete, ErrSelfDelete},
	{auth.ErrRoleNotFound, ErrRoleNotFound},
	{auth.ErrRoleExists, ErrRoleExists},
	{auth.ErrRoleInvalid, ErrRoleInvalid},
	{auth.ErrRoleInUse, ErrRoleInUse},
	{auth.ErrSystemRole, ErrSystemRole},
}

// FromAuthError translates auth package errors into service errors. Role and
// password validation messages are kept since they describe the input.
// Unknown errors become internal errors.
func FromAuthError(err error) *ServiceError {
	if err == nil {
		return nil
	}
	if svcErr, ok := AsServiceError(err); ok {
		return svcErr
	}
	for _, m := range authErrorMap {
		if errors.Is(err, m.err) {
			if m.err == auth.ErrRoleInvalid || m.err == auth.ErrPasswordWeak {
				return WrapServiceError(m.svc.Code, err.Error(), err)
			}
			return WrapServiceError(m.svc.Code, m.svc.Message, err)
		}
	}
	return WrapInternalError(err)
}

// RejectedInput converts a guard rejection into an INPUT_REJECTED error.
// The reason describes the violated rule and never the payload.
func RejectedInput(rej *guard.Rejection) *ServiceError {
	return WrapServiceError(constants.ErrCodeInputRejected, rej.Error(), rej)
}

// Wrap internal errors
func WrapInternalError(err error) *ServiceError {
	return WrapServiceError(constants.ErrCodeInternalError, "internal error", err)
}
