package consent

import "context"

// Client is the protocol capability used by the rest of the application.
// Implementations either call the provider directly or forward to the relay.
type Client interface {
	// CreateConsent requests a one-month consent for a ten-digit mobile number.
	CreateConsent(ctx context.Context, mobileNumber, redirectURL string) (*Handle, error)

	// GetConsentStatus fetches expanded consent detail and resolves its data range.
	GetConsentStatus(ctx context.Context, consentID string) (*Details, error)

	// CreateDataSession opens a fetch session for exactly the given range.
	CreateDataSession(ctx context.Context, consentID string, dataRange DataRange) (*DataSession, error)

	// FetchSessionData waits for the session to become usable and extracts ready accounts.
	FetchSessionData(ctx context.Context, sessionID string) (*SessionData, error)

	// RevokeConsent revokes a consent at the provider.
	RevokeConsent(ctx context.Context, consentID string) (*RevokeResult, error)
}
