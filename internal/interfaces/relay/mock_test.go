package relay

import (
	"context"

	"finlink/internal/domain/consent"
)

// MockProvider implements Provider for testing
type MockProvider struct {
	CreateConsentFunc     func(ctx context.Context, mobile, redirectURL string) (*consent.Handle, error)
	GetConsentStatusFunc  func(ctx context.Context, consentID string) (*consent.Details, error)
	CreateDataSessionFunc func(ctx context.Context, consentID string, r consent.DataRange) (*consent.DataSession, error)
	GetSessionFunc        func(ctx context.Context, sessionID string) (*consent.Session, error)
	PollSessionFunc       func(ctx context.Context, sessionID string, p *consent.Poller) (*consent.SessionData, error)
	RevokeConsentFunc     func(ctx context.Context, consentID string) (*consent.RevokeResult, error)
}

func (m *MockProvider) CreateConsent(ctx context.Context, mobile, redirectURL string) (*consent.Handle, error) {
	if m.CreateConsentFunc != nil {
		return m.CreateConsentFunc(ctx, mobile, redirectURL)
	}
	return nil, consent.ErrProviderNotConfigured
}

func (m *MockProvider) GetConsentStatus(ctx context.Context, consentID string) (*consent.Details, error) {
	if m.GetConsentStatusFunc != nil {
		return m.GetConsentStatusFunc(ctx, consentID)
	}
	return nil, consent.ErrProviderNotConfigured
}

func (m *MockProvider) CreateDataSession(ctx context.Context, consentID string, r consent.DataRange) (*consent.DataSession, error) {
	if m.CreateDataSessionFunc != nil {
		return m.CreateDataSessionFunc(ctx, consentID, r)
	}
	return nil, consent.ErrProviderNotConfigured
}

func (m *MockProvider) GetSession(ctx context.Context, sessionID string) (*consent.Session, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return nil, consent.ErrProviderNotConfigured
}

// PollSession runs the given poller over GetSessionFunc unless overridden.
func (m *MockProvider) PollSession(ctx context.Context, sessionID string, p *consent.Poller) (*consent.SessionData, error) {
	if m.PollSessionFunc != nil {
		return m.PollSessionFunc(ctx, sessionID, p)
	}
	return p.Poll(ctx, sessionID, m.GetSession)
}

func (m *MockProvider) RevokeConsent(ctx context.Context, consentID string) (*consent.RevokeResult, error) {
	if m.RevokeConsentFunc != nil {
		return m.RevokeConsentFunc(ctx, consentID)
	}
	return nil, consent.ErrProviderNotConfigured
}
