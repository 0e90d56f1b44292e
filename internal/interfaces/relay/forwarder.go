package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"finlink/internal/shared/middleware"
)

const internalWebhookPath = "/api/internal/webhook"

var ErrForwardingDisabled = errors.New("webhook forwarding is not configured")

// Forwarder re-posts provider webhooks to the backend's internal endpoint,
// authenticated by the shared internal key.
type Forwarder struct {
	client *http.Client
	url    string
	key    string
}

// NewForwarder creates a forwarder for backendURL. An empty backendURL or key
// disables forwarding.
func NewForwarder(backendURL, key string, client *http.Client) *Forwarder {
	if client == nil {
		client = &http.Client{
			Timeout:   forwardTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	f := &Forwarder{client: client, key: key}
	if backendURL = strings.TrimRight(backendURL, "/"); backendURL != "" {
		f.url = backendURL + internalWebhookPath
	}
	return f
}

// Configured reports whether forwarding is enabled.
func (f *Forwarder) Configured() bool {
	return f != nil && f.url != "" && f.key != ""
}

// Forward posts body unchanged. Any non-2xx answer is an error.
func (f *Forwarder) Forward(ctx context.Context, body []byte) error {
	if !f.Configured() {
		return ErrForwardingDisabled
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build forward request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.InternalKeyHeader, f.key)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to forward webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("backend answered %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
