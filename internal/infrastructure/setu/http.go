package setu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"finlink/internal/domain/consent"
)

const DefaultTimeout = 30 * time.Second

var tracer = otel.Tracer("finlink/setu")

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// call describes one JSON request against the provider or the relay.
type call struct {
	op      string
	method  string
	url     string
	headers map[string]string
	body    any
	relay   bool
}

// doJSON sends c and decodes a 2xx body into out. Non-JSON and non-2xx responses
// become *consent.ProviderError.
func doJSON(ctx context.Context, client *http.Client, c call, out any) (status int, err error) {
	ctx, span := tracer.Start(ctx, c.op, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", c.method),
		),
	)
	defer func() {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var reader io.Reader
	if c.body != nil {
		payload, err := json.Marshal(c.body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, c.method, c.url, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("failed to execute request: %w", ctx.Err())
		}
		return 0, &consent.ProviderError{Message: "request failed: " + err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if ok && len(bytes.TrimSpace(data)) == 0 {
		return resp.StatusCode, nil
	}
	if !json.Valid(data) {
		return resp.StatusCode, &consent.ProviderError{
			StatusCode: resp.StatusCode,
			Message:    "non-JSON response: " + truncate(string(data), 200),
		}
	}
	if !ok {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		msg := eb.message(data)
		if c.relay {
			msg = eb.relayMessage(data)
		}
		return resp.StatusCode, &consent.ProviderError{
			StatusCode: resp.StatusCode,
			Code:       eb.Code,
			Message:    msg,
		}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
