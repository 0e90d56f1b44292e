package setu

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"finlink/internal/domain/consent"
)

// RelayClient forwards every call to the relay service, which holds the
// provider credentials and a whitelisted egress address.
type RelayClient struct {
	httpClient *http.Client
	baseURL    string
	poller     *consent.Poller
}

var _ consent.Client = (*RelayClient)(nil)

// NewRelayClient creates a relay client for baseURL.
func NewRelayClient(baseURL string, opts ...Option) *RelayClient {
	o := buildOptions(opts)
	return &RelayClient{
		httpClient: o.httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		poller:     o.poller,
	}
}

func (c *RelayClient) do(ctx context.Context, op, method, path string, body, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("%w: relay url is not set", consent.ErrProviderNotConfigured)
	}
	_, err := doJSON(ctx, c.httpClient, call{
		op:     op,
		method: method,
		url:    c.baseURL + path,
		body:   body,
		relay:  true,
	}, out)
	return err
}

type relayConsentRequest struct {
	MobileNumber string `json:"mobileNumber"`
	RedirectURL  string `json:"redirectUrl"`
}

type relaySessionRequest struct {
	ConsentID   string            `json:"consentId"`
	FIDataRange consent.DataRange `json:"fiDataRange"`
}

func (c *RelayClient) CreateConsent(ctx context.Context, mobileNumber, redirectURL string) (*consent.Handle, error) {
	digits, err := consent.NormalizeMobile(mobileNumber)
	if err != nil {
		return nil, err
	}
	if redirectURL == "" {
		return nil, fmt.Errorf("%w: redirectUrl is required", consent.ErrInvalidInput)
	}

	var handle consent.Handle
	reqBody := relayConsentRequest{MobileNumber: digits, RedirectURL: redirectURL}
	if err := c.do(ctx, "relay.CreateConsent", http.MethodPost, "/api/consent/create", reqBody, &handle); err != nil {
		return nil, fmt.Errorf("failed to create consent: %w", err)
	}
	return &handle, nil
}

func (c *RelayClient) GetConsentStatus(ctx context.Context, consentID string) (*consent.Details, error) {
	if consentID == "" {
		return nil, fmt.Errorf("%w: consentId is required", consent.ErrInvalidInput)
	}

	var details consent.Details
	if err := c.do(ctx, "relay.GetConsentStatus", http.MethodGet, "/api/consent/"+url.PathEscape(consentID), nil, &details); err != nil {
		return nil, fmt.Errorf("failed to get consent status: %w", err)
	}
	if details.Accounts == nil {
		details.Accounts = []consent.LinkedAccount{}
	}
	if details.ConsentID == "" {
		details.ConsentID = consentID
	}
	return &details, nil
}

func (c *RelayClient) CreateDataSession(ctx context.Context, consentID string, dataRange consent.DataRange) (*consent.DataSession, error) {
	if consentID == "" {
		return nil, fmt.Errorf("%w: consentId is required", consent.ErrInvalidInput)
	}
	if !dataRange.IsComplete() {
		return nil, consent.ErrMissingDataRange
	}

	var session consent.DataSession
	reqBody := relaySessionRequest{ConsentID: consentID, FIDataRange: dataRange}
	if err := c.do(ctx, "relay.CreateDataSession", http.MethodPost, "/api/session/create", reqBody, &session); err != nil {
		return nil, fmt.Errorf("failed to create data session: %w", err)
	}
	return &session, nil
}

// FetchSessionData delegates polling to the relay and maps its failure codes
// back onto the session sentinels.
func (c *RelayClient) FetchSessionData(ctx context.Context, sessionID string) (*consent.SessionData, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: sessionId is required", consent.ErrInvalidInput)
	}

	var data consent.SessionData
	q := url.Values{}
	q.Set("maxAttempts", strconv.Itoa(c.poller.MaxAttempts))
	q.Set("delayMs", strconv.FormatInt(c.poller.Interval.Milliseconds(), 10))
	path := "/api/session/" + url.PathEscape(sessionID) + "/poll?" + q.Encode()
	err := c.do(ctx, "relay.FetchSessionData", http.MethodGet, path, nil, &data)
	if err != nil {
		var pe *consent.ProviderError
		if errors.As(err, &pe) {
			switch {
			case pe.StatusCode == http.StatusBadRequest && pe.Code == codeSessionExpired:
				return nil, fmt.Errorf("%w: %s", consent.ErrSessionExpired, pe.Message)
			case pe.StatusCode == http.StatusBadRequest && pe.Code == codeSessionFailed:
				return nil, fmt.Errorf("%w: %s", consent.ErrSessionFailed, pe.Message)
			case pe.StatusCode == http.StatusRequestTimeout:
				return nil, fmt.Errorf("%w: %s", consent.ErrTimeout, pe.Message)
			}
		}
		return nil, fmt.Errorf("failed to fetch session data: %w", err)
	}

	if data.Data == nil {
		data.Data = []consent.AccountData{}
	}
	if data.FIPs == nil {
		data.FIPs = []consent.FIP{}
	}
	return &data, nil
}

func (c *RelayClient) RevokeConsent(ctx context.Context, consentID string) (*consent.RevokeResult, error) {
	if consentID == "" {
		return nil, fmt.Errorf("%w: consentId is required", consent.ErrInvalidInput)
	}

	var result consent.RevokeResult
	if err := c.do(ctx, "relay.RevokeConsent", http.MethodDelete, "/api/consent/"+url.PathEscape(consentID), nil, &result); err != nil {
		return nil, fmt.Errorf("failed to revoke consent: %w", err)
	}
	if result.Status == "" {
		result.Status = consent.StatusRevoked
	}
	result.Success = true
	return &result, nil
}
