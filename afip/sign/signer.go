// Package sign provides the cryptographic capability required by WSAA: a
// CMS (PKCS#7) signature over the access ticket request. The Signer
// interface keeps the primitive pluggable; CMSSigner is the local
// certificate-and-key implementation.
package sign

import "fmt"

// Signer produces a signed CMS envelope over the given document bytes,
// base64 is applied by the caller where the wire format requires it.
type Signer interface {
	Sign(document []byte) ([]byte, error)
}

// SigningError reports a refusal from the signing backend, typically an
// expired certificate or a key that does not match it.
type SigningError struct {
	Reason string
	Err    error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing failed: %s: %v", e.Reason, e.Err)
}

func (e *SigningError) Unwrap() error { return e.Err }
