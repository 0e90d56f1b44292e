package telemetry

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "finlink"

// Pipeline records the consent pipeline's business metrics. Instruments come
// from the global meter provider, so they are no-ops until Init enables export.
type Pipeline struct {
	syncs      metric.Int64Counter
	imported   metric.Int64Counter
	webhooks   metric.Int64Counter
	consents   metric.Int64Counter
	providerMs metric.Float64Histogram
}

// NewPipeline creates the pipeline instruments. Instrument errors are logged
// and leave a no-op in place.
func NewPipeline() *Pipeline {
	m := otel.Meter(meterName)
	p := &Pipeline{}
	var err error

	if p.syncs, err = m.Int64Counter("finlink.sync.runs",
		metric.WithDescription("Account sync runs by outcome")); err != nil {
		log.Printf("[Telemetry] sync counter: %v", err)
	}
	if p.imported, err = m.Int64Counter("finlink.sync.transactions",
		metric.WithDescription("Transactions inserted by sync")); err != nil {
		log.Printf("[Telemetry] transaction counter: %v", err)
	}
	if p.webhooks, err = m.Int64Counter("finlink.webhook.events",
		metric.WithDescription("Provider webhook events by type and source")); err != nil {
		log.Printf("[Telemetry] webhook counter: %v", err)
	}
	if p.consents, err = m.Int64Counter("finlink.consent.callbacks",
		metric.WithDescription("Consent approval callbacks by outcome")); err != nil {
		log.Printf("[Telemetry] consent counter: %v", err)
	}
	if p.providerMs, err = m.Float64Histogram("finlink.relay.request.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Relay request latency by route")); err != nil {
		log.Printf("[Telemetry] relay histogram: %v", err)
	}
	return p
}

// Sync counts one sync run and, on success, the rows it inserted.
func (p *Pipeline) Sync(ctx context.Context, outcome string, inserted int) {
	if p == nil {
		return
	}
	if p.syncs != nil {
		p.syncs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
	if p.imported != nil && inserted > 0 {
		p.imported.Add(ctx, int64(inserted))
	}
}

// Webhook counts one received event. source is "public" or "internal".
func (p *Pipeline) Webhook(ctx context.Context, eventType, source string) {
	if p == nil || p.webhooks == nil {
		return
	}
	p.webhooks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", eventType),
		attribute.String("source", source),
	))
}

// Callback counts one approval callback by the error code it redirected with,
// or "ok".
func (p *Pipeline) Callback(ctx context.Context, outcome string) {
	if p == nil || p.consents == nil {
		return
	}
	p.consents.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RelayRequest records the latency of one relay route.
func (p *Pipeline) RelayRequest(ctx context.Context, route string, status int, ms float64) {
	if p == nil || p.providerMs == nil {
		return
	}
	p.providerMs.Record(ctx, ms, metric.WithAttributes(
		attribute.String("route", route),
		attribute.Int("status", status),
	))
}
