package civic

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when a user message is empty or whitespace-only
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when an operation references a session that no longer exists
	ErrNotFound = errors.New("not found")

	// ErrUpstreamUnavailable marks a collaborator whose configuration is missing
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// UpstreamError describes a transient failure talking to search, generation or translation.
// It never travels past the orchestrator
type UpstreamError struct {
	Service    string // "search", "generation", "translation"
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed with status %d: %v", e.Service, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Service, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Unavailable builds an ErrUpstreamUnavailable error for a named component
func Unavailable(component string, missing ...string) error {
	if len(missing) == 0 {
		return fmt.Errorf("%s: %w", component, ErrUpstreamUnavailable)
	}
	return fmt.Errorf("%s: %w (missing %v)", component, ErrUpstreamUnavailable, missing)
}
