package model

import (
	"fmt"
	"strings"
)

// ValidationError lists the invariants an invoice violates. It is always a
// local, pre-submission failure; nothing reaches the wire.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invoice validation failed: " + strings.Join(e.Violations, "; ")
}

type violations []string

func (v *violations) add(msg string)                  { *v = append(*v, msg) }
func (v *violations) addf(format string, args ...any) { *v = append(*v, fmt.Sprintf(format, args...)) }

func (v violations) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Violations: v}
}

func singleViolation(msg string) error {
	return &ValidationError{Violations: []string{msg}}
}
