package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the backend's failure taxonomy. Callers branch with
// errors.Is; the concrete *APIError keeps the status and server message.
var (
	ErrConflict      = errors.New("operation conflicts with current session state")
	ErrNotFound      = errors.New("resource no longer exists")
	ErrLimitExceeded = errors.New("limit exceeded")
	ErrUnauthorized  = errors.New("credential expired or invalid")
	ErrNetwork       = errors.New("network failure")
	ErrProtocol      = errors.New("malformed stream frame")
)

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// Unwrap maps HTTP status codes onto the taxonomy sentinels.
func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	switch e.StatusCode {
	case http.StatusConflict:
		return ErrConflict
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrLimitExceeded
	case http.StatusUnauthorized:
		return ErrUnauthorized
	}
	return nil
}

func asAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

// wrapTransportErr classifies a transport-level failure as ErrNetwork.
// Context cancellation is passed through untouched so callers can tell an
// aborted request from a broken one.
func wrapTransportErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

// IsResyncable reports whether the failure means local session state has
// diverged from the backend and a refetch is the correct reaction.
func IsResyncable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound)
}
