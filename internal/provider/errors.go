package provider

import (
	"errors"
	"fmt"
)

// AuthError indicates the provider rejected the bearer token or the
// credentials used to mint one (HTTP 401). Always session-fatal: the
// caller must rotate the session rather than retry with the same token.
type AuthError struct {
	Operation string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("unauthorized (401) on %s", e.Operation)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// ConflictError indicates account creation was rejected because the
// address is invalid or already taken (HTTP 422).
type ConflictError struct {
	Address string
	Detail  string
}

func (e *ConflictError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("address %s rejected: %s", e.Address, e.Detail)
	}
	return fmt.Sprintf("address %s rejected (422)", e.Address)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var conflictErr *ConflictError
	return errors.As(err, &conflictErr)
}

// NotFoundError indicates the requested resource does not exist (HTTP 404).
type NotFoundError struct {
	Operation string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found (404) on %s", e.Operation)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nfErr *NotFoundError
	return errors.As(err, &nfErr)
}

// APIError is any other non-2xx provider response, carrying the
// human-readable message from the response body when one was present.
type APIError struct {
	StatusCode int
	Operation  string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf(
			"provider error (%d) on %s: %s",
			e.StatusCode, e.Operation, e.Message,
		)
	}
	return fmt.Sprintf("provider error (%d) on %s", e.StatusCode, e.Operation)
}
