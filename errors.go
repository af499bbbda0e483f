package oauth

import (
	"fmt"
	"net/http"
)

// OAuth error codes as constants
const (
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeInvalidGrant   = "invalid_grant"
	ErrorCodeInvalidClient  = "invalid_client"
	ErrorCodeInvalidScope   = "invalid_scope"
	ErrorCodeInvalidToken   = "invalid_token"
	ErrorCodeAccessDenied   = "access_denied"
	ErrorCodeServerError    = "server_error"
)

// Error represents an error reported by the authorization backend.
//
// Code is only populated when the backend supplied a structured error code or
// when its message matched one of the fixed, known backend strings; all other
// backend errors pass through with status and message only.
type Error struct {
	Code        string // OAuth error code (e.g. "invalid_grant"), may be empty
	Description string // Human-readable error description
	Status      int    // HTTP status code, zero when not applicable
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Code == "" {
		if e.Status != 0 {
			return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Description)
		}
		return e.Description
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// NewError creates a new backend error
func NewError(code, description string, status int) *Error {
	return &Error{
		Code:        code,
		Description: description,
		Status:      status,
	}
}

// Common errors as reusable constructors
var (
	// ErrInvalidGrant indicates the authorization code or refresh token is invalid or expired
	ErrInvalidGrant = func(desc string) *Error {
		return NewError(ErrorCodeInvalidGrant, desc, http.StatusBadRequest)
	}

	// ErrInvalidScope indicates the granted scopes do not cover the required scopes
	ErrInvalidScope = func(desc string) *Error {
		return NewError(ErrorCodeInvalidScope, desc, http.StatusForbidden)
	}

	// ErrInvalidToken indicates the access token is invalid or expired
	ErrInvalidToken = func(desc string) *Error {
		return NewError(ErrorCodeInvalidToken, desc, http.StatusUnauthorized)
	}
)
