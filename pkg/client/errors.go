package client

import (
	"errors"
	"fmt"
	"net/http"

	"livaulislam/internal/models"
)

// ErrToggleInFlight is returned when a like or follow toggle on the same
// subject is still waiting for its response.
var ErrToggleInFlight = errors.New("client: toggle already in flight")

// AuthError covers invalid credentials, taken usernames, unknown users and
// missing or rejected sessions.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth: %s: %s", e.Code, e.Message)
}

// ValidationError is a rejected input. Fields is keyed by JSON field name.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Message
}

// NetworkError is any failed round trip: transport errors, undecodable
// bodies and 5xx responses.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("network: %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("network: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a 4xx outside the auth and validation families, e.g. NOT_FOUND
// or FORBIDDEN.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %s (%d): %s", e.Code, e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusNotFound
	}
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.Code == models.CodeUserNotFound
}

func newNotAuthenticated() *AuthError {
	return &AuthError{Code: models.CodeNotAuthenticated, Message: "Not authenticated"}
}

// errorFromResponse maps a decoded error body to the client taxonomy.
func errorFromResponse(op string, status int, body models.ErrorResponse) error {
	msg := body.Error
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch {
	case status >= http.StatusInternalServerError:
		return &NetworkError{Op: op, Status: status, Err: errors.New(msg)}
	case (&models.AppError{Code: body.Code}).IsAuth():
		return &AuthError{Code: body.Code, Message: msg}
	case body.Code == models.CodeValidation || status == http.StatusBadRequest:
		return &ValidationError{Message: msg, Fields: body.Fields}
	case status == http.StatusUnauthorized:
		return &AuthError{Code: models.CodeUnauthorized, Message: msg}
	default:
		return &APIError{Status: status, Code: body.Code, Message: msg}
	}
}
