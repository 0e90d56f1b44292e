package consent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	DefaultPollAttempts = 10
	DefaultPollInterval = 2 * time.Second
)

var (
	pollMeter       = otel.Meter("finlink/consent")
	pollAttempts, _ = pollMeter.Int64Histogram("consent.session.poll.attempts",
		metric.WithDescription("Status checks made before a session resolved"),
	)
	pollOutcomes, _ = pollMeter.Int64Counter("consent.session.poll.outcome",
		metric.WithDescription("Session poll results by outcome"),
	)
)

// SessionFetcher performs a single status read of a data session.
type SessionFetcher func(ctx context.Context, sessionID string) (*Session, error)

// Poller checks a session on a fixed interval for a bounded number of attempts.
type Poller struct {
	MaxAttempts int
	Interval    time.Duration
	// Sleep waits between attempts. Tests replace it to avoid real delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewPoller returns a poller, falling back to defaults for non-positive values.
func NewPoller(maxAttempts int, interval time.Duration) *Poller {
	if maxAttempts <= 0 {
		maxAttempts = DefaultPollAttempts
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		MaxAttempts: maxAttempts,
		Interval:    interval,
		Sleep:       sleepContext,
	}
}

// Poll returns as soon as the session is COMPLETED or PARTIAL. FAILED and
// EXPIRED abort immediately. Provider errors consume an attempt and are
// retried; running out of attempts yields ErrTimeout.
func (p *Poller) Poll(ctx context.Context, sessionID string, fetch SessionFetcher) (*SessionData, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		session, err := fetch(ctx, sessionID)
		switch {
		case err != nil && errors.Is(err, ErrProvider):
			log.Printf("[Poller] session %s attempt %d: %v", sessionID, attempt, err)
			lastErr = err
		case err != nil:
			p.record(ctx, attempt, "error")
			return nil, fmt.Errorf("failed to fetch session %s: %w", sessionID, err)
		case session.Status.HasData():
			p.record(ctx, attempt, string(session.Status))
			data := NewSessionData(session)
			data.Attempts = attempt
			log.Printf("[Poller] session %s %s after %d attempt(s), %d ready account(s)",
				sessionID, session.Status, attempt, len(data.Data))
			return data, nil
		default:
			if terminal := TerminalSessionError(session.Status); terminal != nil {
				p.record(ctx, attempt, string(session.Status))
				return nil, &PollError{Err: terminal, Attempts: attempt}
			}
			log.Printf("[Poller] session %s attempt %d status %s", sessionID, attempt, session.Status)
			lastErr = nil
		}

		if attempt == p.MaxAttempts {
			break
		}
		if err := sleep(ctx, p.Interval); err != nil {
			p.record(ctx, attempt, "cancelled")
			return nil, err
		}
	}

	p.record(ctx, p.MaxAttempts, "timeout")
	if lastErr != nil {
		return nil, &PollError{Err: ErrTimeout, Attempts: p.MaxAttempts, Last: lastErr}
	}
	return nil, &PollError{Err: ErrTimeout, Attempts: p.MaxAttempts}
}

func (p *Poller) record(ctx context.Context, attempts int, outcome string) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	pollAttempts.Record(ctx, int64(attempts), attrs)
	pollOutcomes.Add(ctx, 1, attrs)
}

// PollError reports a poll that ended without usable data.
type PollError struct {
	Err      error
	Attempts int
	Last     error
}

func (e *PollError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("%v after %d attempt(s): %v", e.Err, e.Attempts, e.Last)
	}
	return fmt.Sprintf("%v after %d attempt(s)", e.Err, e.Attempts)
}

func (e *PollError) Unwrap() error {
	return e.Err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
