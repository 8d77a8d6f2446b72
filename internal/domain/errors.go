package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCatalogFetch signals that the catalog source could not be reached or answered with a failure.
	ErrCatalogFetch = errors.New("catalog fetch failed")
	// ErrCatalogParse signals a malformed catalog body.
	ErrCatalogParse = errors.New("catalog parse failed")
	// ErrTransport signals a chat platform transport failure.
	ErrTransport = errors.New("transport failure")
	// ErrMissingQuery signals a search command issued without an argument.
	ErrMissingQuery = errors.New("missing query")
	// ErrInvalidConfig signals an unusable configuration value.
	ErrInvalidConfig = errors.New("invalid config")
)

// StatusError wraps ErrCatalogFetch with the HTTP status returned by the catalog source.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %s", ErrCatalogFetch.Error(), e.Status)
}

func (e *StatusError) Unwrap() error { return ErrCatalogFetch }
