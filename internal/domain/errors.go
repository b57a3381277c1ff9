package domain

import (
	"errors"
	"strings"
)

// Conflict-class errors. Detected before any mutation and surfaced to the
// caller as client-correctable failures.
var (
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrDuplicateDNI        = errors.New("dni already registered")
	ErrDuplicateTokenHash  = errors.New("session token already registered")
	ErrGenerationExhausted = errors.New("identifier generation attempts exhausted")
)

// FieldError is a single field-level rule violation.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports every failing field of a request, not just the
// first one found.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Reason
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
