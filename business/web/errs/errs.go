// Package errs provides types and support related to web v1 functionality.
package errs

import (
	"context"
	"errors"
	"net/http"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
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

// NewLedger wraps an error returned by the blockchain with the status code
// that matches its kind.
func NewLedger(err error) error {
	return &Trusted{err, StatusOf(err)}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (re *Trusted) Error() string {
	return re.Err.Error()
}

// Unwrap provides access to the wrapped error.
func (re *Trusted) Unwrap() error {
	return re.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var re *Trusted
	return errors.As(err, &re)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var re *Trusted
	if !errors.As(err, &re) {
		return nil
	}
	return re
}

// StatusOf maps the kind of a blockchain error to an HTTP status code.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, database.ErrStructural), errors.Is(err, database.ErrResource):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrConsensus):
		return http.StatusNotAcceptable
	case errors.Is(err, database.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, context.Canceled):
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}
