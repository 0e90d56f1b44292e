package consent

// EventType names an asynchronous notification pushed by the provider.
type EventType string

const (
	EventConsentApproved  EventType = "CONSENT_APPROVED"
	EventConsentActive    EventType = "CONSENT_ACTIVE"
	EventConsentRejected  EventType = "CONSENT_REJECTED"
	EventConsentRevoked   EventType = "CONSENT_REVOKED"
	EventConsentExpired   EventType = "CONSENT_EXPIRED"
	EventFIReady          EventType = "FI_READY"
	EventSessionCompleted EventType = "SESSION_COMPLETED"
	EventSessionFailed    EventType = "SESSION_FAILED"
)

// WebhookData is the optional nested payload of a webhook.
type WebhookData struct {
	ConsentID string `json:"consentId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// WebhookPayload is the body of both the public and the internal webhook.
type WebhookPayload struct {
	Type      EventType    `json:"type"`
	ConsentID string       `json:"consentId,omitempty"`
	Data      *WebhookData `json:"data,omitempty"`
}

// EffectiveConsentID prefers the top-level id over the nested one.
func (p WebhookPayload) EffectiveConsentID() string {
	if p.ConsentID != "" {
		return p.ConsentID
	}
	if p.Data != nil {
		return p.Data.ConsentID
	}
	return ""
}

// SessionID returns the nested session id, if any.
func (p WebhookPayload) SessionID() string {
	if p.Data != nil {
		return p.Data.SessionID
	}
	return ""
}
