package soap

import (
	"errors"
	"fmt"
)

var ErrEmptyEnvelope = errors.New("response has no SOAP body element")

// RequestError covers network failures, timeouts and non-2xx responses that
// did not carry a parseable SOAP fault.
type RequestError struct {
	Endpoint   string
	StatusCode int
	Body       string
	Err        error
}

func (r *RequestError) Error() string {
	return fmt.Sprintf("soap call %s: status: %d err: %v", r.Endpoint, r.StatusCode, r.Err)
}

func (r *RequestError) Unwrap() error { return r.Err }

// Fault is a SOAP fault reported by the service itself.
type Fault struct {
	Code    string
	Message string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("soap fault %s: %s", f.Code, f.Message)
}
