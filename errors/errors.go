// Package errors models expected OAuth failures as values, never panics.
// Every protocol-visible failure is a Response carrying an RFC6749 (or
// OID4VCI profile) error code; sentinel errors identify the condition and the
// Descriptions/StatusCodes maps supply the wire-level defaults.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Protocol errors, https://tools.ietf.org/html/rfc6749#section-5.2 plus the
// OID4VCI pre-authorized code profile.
var (
	ErrInvalidRequest          = errors.New("invalid_request")
	ErrInvalidClient           = errors.New("invalid_client")
	ErrInvalidGrant            = errors.New("invalid_grant")
	ErrInvalidScope            = errors.New("invalid_scope")
	ErrUnauthorizedClient      = errors.New("unauthorized_client")
	ErrAccessDenied            = errors.New("access_denied")
	ErrUnsupportedGrantType    = errors.New("unsupported_grant_type")
	ErrUnsupportedResponseType = errors.New("unsupported_response_type")
	ErrServerError             = errors.New("server_error")
)

// State errors surfaced by repositories and handlers. They never reach the
// wire directly; handlers translate them into protocol errors.
var (
	ErrAuthorizationCodeNotFound = errors.New("authorization code not found")
	ErrPreAuthorizedCodeNotFound = errors.New("pre-authorized code not found")
	ErrClientNotFound            = errors.New("client not found")
	ErrSessionSubjectRequired    = errors.New("session subject is required")
	ErrInvalidUserPIN            = errors.New("invalid user pin")
)

// Configuration errors. These abort provider construction and are never
// returned to a request.
var (
	ErrHandlerAlreadyRegistered = errors.New("handler already registered for key")
)

// Descriptions error description
var Descriptions = map[error]string{
	ErrInvalidRequest:          "The request is missing a required parameter, includes an invalid parameter value, or is otherwise malformed",
	ErrInvalidClient:           "Client authentication failed",
	ErrInvalidGrant:            "The provided authorization grant is invalid, expired, revoked, or was issued to another client",
	ErrInvalidScope:            "The requested scope is invalid, unknown, or malformed",
	ErrUnauthorizedClient:      "The client is not authorized to request a token using this method",
	ErrAccessDenied:            "The resource owner or authorization server denied the request",
	ErrUnsupportedGrantType:    "The authorization grant type is not supported by the authorization server",
	ErrUnsupportedResponseType: "The authorization server does not support obtaining a token using this method",
	ErrServerError:             "The authorization server encountered an unexpected condition",
}

// StatusCodes response error HTTP status code
var StatusCodes = map[error]int{
	ErrInvalidRequest:          http.StatusBadRequest,
	ErrInvalidClient:           http.StatusUnauthorized,
	ErrInvalidGrant:            http.StatusBadRequest,
	ErrInvalidScope:            http.StatusBadRequest,
	ErrUnauthorizedClient:      http.StatusUnauthorized,
	ErrAccessDenied:            http.StatusForbidden,
	ErrUnsupportedGrantType:    http.StatusBadRequest,
	ErrUnsupportedResponseType: http.StatusBadRequest,
	ErrServerError:             http.StatusInternalServerError,
}

// Response the failure branch of every provider operation. The zero
// Description falls back to the RFC text for the code.
type Response struct {
	Err         error
	Description string
	StatusCode  int
}

// NewResponse create the response pointer for a protocol error, filling in
// the default description and status code.
func NewResponse(err error) *Response {
	re := &Response{
		Err:        err,
		StatusCode: http.StatusBadRequest,
	}
	if d, ok := Descriptions[err]; ok {
		re.Description = d
	}
	if sc, ok := StatusCodes[err]; ok {
		re.StatusCode = sc
	}
	return re
}

// NewResponseWithDescription create the response pointer with an
// operation-specific description. Internal failure details belong here, never
// in the error code.
func NewResponseWithDescription(err error, description string) *Response {
	re := NewResponse(err)
	re.Description = description
	return re
}

// Error conforms to the error interface
func (r *Response) Error() string {
	if r.Description != "" {
		return fmt.Sprintf("%s: %s", r.Err.Error(), r.Description)
	}
	return r.Err.Error()
}

// ErrorCode the RFC6749 error code string for the wire
func (r *Response) ErrorCode() string {
	return r.Err.Error()
}

// Data the `{"error": ..., "error_description": ...}` payload for the caller
// to translate into an HTTP error response.
func (r *Response) Data() map[string]interface{} {
	data := map[string]interface{}{
		"error": r.ErrorCode(),
	}
	if r.Description != "" {
		data["error_description"] = r.Description
	}
	return data
}
