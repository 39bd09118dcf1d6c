package types

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrInvalidProviderID    = errors.New("invalid provider ID")
	ErrInvalidProviderName  = errors.New("invalid provider name")
	ErrInvalidAPIHost       = errors.New("invalid API host")
	ErrMissingAPIKey        = errors.New("missing API key")
	ErrInvalidMaxResults    = errors.New("max results must be >= 0")
	ErrInvalidFailurePolicy = errors.New("invalid failure policy")

	// Request errors
	ErrEmptyQuery = errors.New("empty search query")

	// Provider errors
	ErrProviderNotFound = errors.New("provider not found")

	// Response classification, matched with errors.Is
	ErrSearchAPI        = errors.New("search API error")
	ErrUnexpectedFormat = errors.New("unexpected response format")
	ErrRequestFailed    = errors.New("request failed")
)

// ProviderError wraps provider-specific errors. Err carries one of the
// classification sentinels above.
type ProviderError struct {
	Provider ProviderID
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Provider, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Provider, e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
