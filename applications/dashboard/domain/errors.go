package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrEmptyFileCode    = errors.New("empty file code")
	ErrEmptyFolderToken = errors.New("empty folder token")
	ErrInvalidFolder    = errors.New("invalid folder id")
	ErrEmptyName        = errors.New("empty name")
	ErrResponseTooLong  = errors.New("response body exceeded limit")
)

// TransportError is a network, timeout, non-2xx or undecodable response failure.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: unexpected status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServiceError is a well-formed response whose application-level status
// does not indicate success.
type ServiceError struct {
	Endpoint string
	Status   int
	Msg      string
}

func (e *ServiceError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Sprintf("%s: service status %d: %s", e.Endpoint, e.Status, msg)
}

func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
