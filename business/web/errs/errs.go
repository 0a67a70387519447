// Package errs provides types and support related to web v1 functionality.
package errs

import (
	"errors"
	"net/http"

	"github.com/ardanlabs/ballot/business/core/action"
	"github.com/ardanlabs/ballot/business/core/session"
	"github.com/ardanlabs/ballot/business/sys/metrics"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (te *Trusted) Error() string {
	return te.Err.Error()
}

// Unwrap returns the wrapped error.
func (te *Trusted) Unwrap() error {
	return te.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var te *Trusted
	return errors.As(err, &te)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var te *Trusted
	if !errors.As(err, &te) {
		return nil
	}
	return te
}

// FromAction converts an error returned by a dashboard action into a
// trusted error carrying the matching status. A busy control is a
// conflict, a missing connection a failed precondition and a failed call a
// bad gateway. Other errors are returned untouched.
func FromAction(err error) error {
	switch {
	case errors.Is(err, action.ErrBusy):
		metrics.AddCall("busy")
		return NewTrusted(err, http.StatusConflict)

	case errors.Is(err, action.ErrNotConnected), errors.Is(err, session.ErrNotConnected):
		metrics.AddCall("not_connected")
		return NewTrusted(err, http.StatusPreconditionFailed)

	case errors.Is(err, action.ErrCallFailed):
		metrics.AddCall("failed")
		return NewTrusted(err, http.StatusBadGateway)
	}

	return err
}
