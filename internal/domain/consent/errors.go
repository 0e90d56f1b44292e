package consent

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrMissingDataRange      = errors.New("missing fiDataRange from consent - cannot create data session")
	ErrTimeout               = errors.New("data fetch timeout")
	ErrSessionFailed         = errors.New("data fetch session failed")
	ErrSessionExpired        = errors.New("data fetch session expired")
	ErrConsentNotActive      = errors.New("consent is not active")
	ErrProviderNotConfigured = errors.New("consent provider is not configured")
	ErrProvider              = errors.New("consent provider error")
)

// ProviderError wraps a non-2xx or non-JSON response from the provider or relay.
type ProviderError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("consent provider error: %s", e.Message)
	}
	return fmt.Sprintf("consent provider error (status %d): %s", e.StatusCode, e.Message)
}

func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

// invalidInput formats a validation failure that matches ErrInvalidInput.
func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// TerminalSessionError maps a terminal session status to its sentinel.
func TerminalSessionError(s SessionStatus) error {
	switch s {
	case SessionFailed:
		return ErrSessionFailed
	case SessionExpired:
		return ErrSessionExpired
	}
	return nil
}
