// Package afip is a client for the AFIP electronic invoicing web services:
// WSAA (authentication, access tickets) and WSFEv1 (CAE authorization for
// domestic market invoices).
package afip

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTicket marks an operation that requires a valid access ticket.
	ErrNoTicket = errors.New("no valid access ticket")
	// ErrEmptyBatch marks an authorization request with no invoices.
	ErrEmptyBatch = errors.New("empty invoice batch")
)

// AuthError reports a rejection from the WSAA authentication endpoint,
// for example a malformed or already-consumed signed request.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("wsaa rejected login: %s: %s", e.Code, e.Message)
}

// QueryError reports a failed lookup against the authority, such as the
// last-authorized-number query used for voucher sequencing.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
