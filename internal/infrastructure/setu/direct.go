package setu

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"finlink/internal/domain/consent"
)

// DirectClient talks to the provider API with the configured credentials.
type DirectClient struct {
	httpClient *http.Client
	creds      Credentials
	poller     *consent.Poller
	now        func() time.Time
}

var _ consent.Client = (*DirectClient)(nil)

// Option customizes a client.
type Option func(*options)

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	poller     *consent.Poller
	now        func() time.Time
}

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithPoller sets the poller used by FetchSessionData.
func WithPoller(p *consent.Poller) Option {
	return func(o *options) { o.poller = p }
}

// WithClock overrides time.Now for requested ranges.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = newHTTPClient(o.timeout)
	}
	if o.poller == nil {
		o.poller = consent.NewPoller(consent.DefaultPollAttempts, consent.DefaultPollInterval)
	}
	return o
}

// NewDirectClient creates a client. Credentials are checked on first use.
func NewDirectClient(creds Credentials, opts ...Option) *DirectClient {
	o := buildOptions(opts)
	return &DirectClient{
		httpClient: o.httpClient,
		creds:      creds,
		poller:     o.poller,
		now:        o.now,
	}
}

func (c *DirectClient) headers() map[string]string {
	return map[string]string{
		"x-client-id":           c.creds.ClientID,
		"x-client-secret":       c.creds.ClientSecret,
		"x-product-instance-id": c.creds.ProductInstanceID,
	}
}

func (c *DirectClient) do(ctx context.Context, op, method, path string, body, out any) error {
	if err := c.creds.Validate(); err != nil {
		return err
	}
	_, err := doJSON(ctx, c.httpClient, call{
		op:      op,
		method:  method,
		url:     c.creds.URL() + path,
		headers: c.headers(),
		body:    body,
	}, out)
	return err
}

// CreateConsent requests a one-month consent covering the last year.
func (c *DirectClient) CreateConsent(ctx context.Context, mobileNumber, redirectURL string) (*consent.Handle, error) {
	digits, err := consent.NormalizeMobile(mobileNumber)
	if err != nil {
		return nil, err
	}
	if redirectURL == "" {
		return nil, fmt.Errorf("%w: redirectUrl is required", consent.ErrInvalidInput)
	}

	reqBody := consentRequest{
		ConsentDuration: consentDuration{Unit: "MONTH", Value: 1},
		VUA:             consent.VirtualAddress(digits),
		DataRange:       consent.RequestedRange(c.now()),
		Context:         []contextEntry{},
		RedirectURL:     redirectURL,
	}
	if !c.creds.IsProduction() {
		reqBody.Context = append(reqBody.Context, contextEntry{Key: "fipId", Value: sandboxFIP})
	}

	var resp consentResponse
	if err := c.do(ctx, "setu.CreateConsent", http.MethodPost, "/v2/consents", reqBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to create consent: %w", err)
	}

	log.Printf("[Setu] consent %s created for %s (%s)", resp.ID, consent.MaskMobile(digits), resp.Status)
	return &consent.Handle{
		ConsentID:   resp.ID,
		RedirectURL: resp.URL,
		Status:      resp.Status,
	}, nil
}

// GetConsentStatus fetches the expanded consent and resolves its data range.
func (c *DirectClient) GetConsentStatus(ctx context.Context, consentID string) (*consent.Details, error) {
	if consentID == "" {
		return nil, fmt.Errorf("%w: consentId is required", consent.ErrInvalidInput)
	}

	var resp consentStatusResponse
	path := "/v2/consents/" + url.PathEscape(consentID) + "?expanded=true"
	if err := c.do(ctx, "setu.GetConsentStatus", http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get consent status: %w", err)
	}

	details := resp.toDetails()
	if details.ConsentID == "" {
		details.ConsentID = consentID
	}
	return details, nil
}

// CreateDataSession opens a session for exactly the consent's range.
func (c *DirectClient) CreateDataSession(ctx context.Context, consentID string, dataRange consent.DataRange) (*consent.DataSession, error) {
	if consentID == "" {
		return nil, fmt.Errorf("%w: consentId is required", consent.ErrInvalidInput)
	}
	if !dataRange.IsComplete() {
		return nil, consent.ErrMissingDataRange
	}

	var resp sessionResponse
	reqBody := sessionRequest{ConsentID: consentID, Format: "json", DataRange: dataRange}
	if err := c.do(ctx, "setu.CreateDataSession", http.MethodPost, "/v2/sessions", reqBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to create data session: %w", err)
	}

	log.Printf("[Setu] session %s created for consent %s (%s)", resp.ID, consentID, resp.Status)
	return &consent.DataSession{SessionID: resp.ID, Status: resp.Status}, nil
}

// GetSession reads the session once without waiting.
func (c *DirectClient) GetSession(ctx context.Context, sessionID string) (*consent.Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: sessionId is required", consent.ErrInvalidInput)
	}

	var session consent.Session
	if err := c.do(ctx, "setu.GetSession", http.MethodGet, "/v2/sessions/"+url.PathEscape(sessionID), nil, &session); err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// FetchSessionData polls the session until it carries data.
func (c *DirectClient) FetchSessionData(ctx context.Context, sessionID string) (*consent.SessionData, error) {
	return c.PollSession(ctx, sessionID, c.poller)
}

// PollSession polls with a caller-supplied poller.
func (c *DirectClient) PollSession(ctx context.Context, sessionID string, p *consent.Poller) (*consent.SessionData, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: sessionId is required", consent.ErrInvalidInput)
	}
	if err := c.creds.Validate(); err != nil {
		return nil, err
	}
	return p.Poll(ctx, sessionID, c.GetSession)
}

// RevokeConsent revokes the consent. A response without a status counts as REVOKED.
func (c *DirectClient) RevokeConsent(ctx context.Context, consentID string) (*consent.RevokeResult, error) {
	if consentID == "" {
		return nil, fmt.Errorf("%w: consentId is required", consent.ErrInvalidInput)
	}

	var resp revokeResponse
	if err := c.do(ctx, "setu.RevokeConsent", http.MethodDelete, "/v2/consents/"+url.PathEscape(consentID), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to revoke consent: %w", err)
	}

	status := resp.Status
	if status == "" {
		status = consent.StatusRevoked
	}
	return &consent.RevokeResult{Success: true, Status: status}, nil
}
