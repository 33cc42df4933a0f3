// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package validate provides accumulating field validation for mediagate configuration.
package validate

import (
	"fmt"
	"mime"
	"net"
	"strings"
)

// Error represents a validation error
type Error struct {
	Field   string // Field name that failed validation
	Value   any    // The invalid value
	Message string // Human-readable error message
}

func (e Error) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Validator accumulates validation errors and can produce a ValidationError when invalid.
type Validator struct {
	errors []Error
}

// ValidationError bundles multiple validation errors into a single error value.
type ValidationError struct {
	errors []Error
}

// New creates a new validator
func New() *Validator {
	return &Validator{errors: make([]Error, 0)}
}

// AddError adds a validation error
func (v *Validator) AddError(field, message string, value any) {
	v.errors = append(v.errors, Error{Field: field, Value: value, Message: message})
}

// IsValid returns true if no errors have been accumulated
func (v *Validator) IsValid() bool {
	return len(v.errors) == 0
}

// Errors returns all accumulated validation errors
func (v *Validator) Errors() []Error {
	return v.errors
}

// Err converts the accumulated validation errors into an error value.
func (v *Validator) Err() error {
	if len(v.errors) == 0 {
		return nil
	}
	copied := make([]Error, len(v.errors))
	copy(copied, v.errors)
	return ValidationError{errors: copied}
}

// Errors returns the individual validation errors making up the validation failure.
func (e ValidationError) Errors() []Error {
	return e.errors
}

func (e ValidationError) Error() string {
	switch len(e.errors) {
	case 0:
		return ""
	case 1:
		return e.errors[0].Error()
	}
	msgs := make([]string, len(e.errors))
	for i, err := range e.errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Range validates that value lies within [minVal, maxVal].
func (v *Validator) Range(field string, value, minVal, maxVal int) {
	if value < minVal || value > maxVal {
		v.AddError(field, fmt.Sprintf("must be between %d and %d, got %d", minVal, maxVal, value), value)
	}
}

// NotEmpty validates that a trimmed string is not empty.
func (v *Validator) NotEmpty(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "cannot be empty", value)
	}
}

// OneOf validates that value is one of allowed (case-insensitive).
func (v *Validator) OneOf(field, value string, allowed []string) {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return
		}
	}
	v.AddError(field, fmt.Sprintf("must be one of %v", allowed), value)
}

// Positive validates that value is greater than zero.
func (v *Validator) Positive(field string, value int) {
	if value <= 0 {
		v.AddError(field, fmt.Sprintf("must be positive, got %d", value), value)
	}
}

// ListenAddr validates a host:port listen address. An empty host binds all
// interfaces.
func (v *Validator) ListenAddr(field, addr string) {
	if addr == "" {
		v.AddError(field, "listen address cannot be empty", addr)
		return
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		v.AddError(field, fmt.Sprintf("invalid listen address: %v", err), addr)
		return
	}
	if port == "" {
		v.AddError(field, "listen address must include a port", addr)
	}
}

// MimeType validates a type/subtype media type with optional parameters.
func (v *Validator) MimeType(field, value string) {
	mt, _, err := mime.ParseMediaType(value)
	if err != nil {
		v.AddError(field, fmt.Sprintf("invalid media type: %v", err), value)
		return
	}
	if !strings.Contains(mt, "/") {
		v.AddError(field, "media type must be of the form type/subtype", value)
	}
}

// Fraction validates a ratio in [0, 1], such as a sampling rate.
func (v *Validator) Fraction(field string, value float64) {
	if value < 0 || value > 1 {
		v.AddError(field, fmt.Sprintf("must be between 0.0 and 1.0, got %g", value), value)
	}
}

// HostPort validates a dial address; unlike ListenAddr the host is required.
func (v *Validator) HostPort(field, addr string) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		v.AddError(field, fmt.Sprintf("invalid address: %v", err), addr)
		return
	}
	if host == "" || port == "" {
		v.AddError(field, "address must be host:port", addr)
	}
}
