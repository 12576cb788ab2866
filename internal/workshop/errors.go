package workshop

import (
	"errors"
	"fmt"
)

// ClientErrorType represents the type of workshop API error.
type ClientErrorType int

const (
	// ClientFetchFailed indicates the request could not be completed.
	ClientFetchFailed ClientErrorType = iota
	// ClientBadStatus indicates the API answered with a non-success status.
	ClientBadStatus
	// ClientDecodeFailed indicates the response body was not the expected JSON.
	ClientDecodeFailed
	// ClientNotFound indicates the response carried no details for the id.
	ClientNotFound
	// ClientRejected indicates the circuit breaker refused the request.
	ClientRejected
)

// String returns the string representation of the error type.
func (t ClientErrorType) String() string {
	switch t {
	case ClientFetchFailed:
		return "FetchFailed"
	case ClientBadStatus:
		return "BadStatus"
	case ClientDecodeFailed:
		return "DecodeFailed"
	case ClientNotFound:
		return "NotFound"
	case ClientRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// ClientError represents a failed workshop API lookup.
type ClientError struct {
	// Type is the error type classification.
	Type ClientErrorType
	// Message is the human-readable error message.
	Message string
	// Endpoint is the API method that was called.
	Endpoint string
	// ID is the item or collection id the request was about.
	ID string
	// StatusCode is the HTTP status, when one was received.
	StatusCode int
	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("workshop %s [%s] for id '%s': %s (caused by: %v)",
			e.Endpoint, e.Type.String(), e.ID, e.Message, e.Cause)
	}
	return fmt.Sprintf("workshop %s [%s] for id '%s': %s",
		e.Endpoint, e.Type.String(), e.ID, e.Message)
}

// Unwrap returns the underlying cause for error wrapping.
func (e *ClientError) Unwrap() error {
	return e.Cause
}

// NewClientError creates a new ClientError.
func NewClientError(typ ClientErrorType, endpoint, id, message string, cause error) *ClientError {
	return &ClientError{
		Type:     typ,
		Message:  message,
		Endpoint: endpoint,
		ID:       id,
		Cause:    cause,
	}
}

// NewFetchError creates a fetch failed error.
func NewFetchError(endpoint, id string, cause error) *ClientError {
	return NewClientError(ClientFetchFailed, endpoint, id, "request failed", cause)
}

// NewBadStatusError creates an error for a non-success HTTP status.
func NewBadStatusError(endpoint, id string, status int) *ClientError {
	e := NewClientError(ClientBadStatus, endpoint, id, fmt.Sprintf("unexpected status code: %d", status), nil)
	e.StatusCode = status
	return e
}

// NewDecodeError creates an error for an undecodable response.
func NewDecodeError(endpoint, id string, cause error) *ClientError {
	return NewClientError(ClientDecodeFailed, endpoint, id, "invalid response body", cause)
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(endpoint, id string) *ClientError {
	return NewClientError(ClientNotFound, endpoint, id, "no details returned", nil)
}

// NewRejectedError creates an error for a request refused by the circuit breaker.
func NewRejectedError(endpoint, id string, cause error) *ClientError {
	return NewClientError(ClientRejected, endpoint, id, "request rejected, API circuit open", cause)
}

// IsType reports whether err is a ClientError of the given type.
func IsType(err error, typ ClientErrorType) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Type == typ
}
