package relay

import (
	"context"
	"net/http"
	"time"

	"finlink/internal/domain/consent"
	"finlink/internal/infrastructure/setu"
	"finlink/internal/shared/middleware"
	"finlink/internal/shared/telemetry"
)

// Provider is the direct provider client the relay exposes.
// Implemented by setu.DirectClient.
type Provider interface {
	CreateConsent(ctx context.Context, mobileNumber, redirectURL string) (*consent.Handle, error)
	GetConsentStatus(ctx context.Context, consentID string) (*consent.Details, error)
	CreateDataSession(ctx context.Context, consentID string, dataRange consent.DataRange) (*consent.DataSession, error)
	GetSession(ctx context.Context, sessionID string) (*consent.Session, error)
	PollSession(ctx context.Context, sessionID string, p *consent.Poller) (*consent.SessionData, error)
	RevokeConsent(ctx context.Context, consentID string) (*consent.RevokeResult, error)
}

var _ Provider = (*setu.DirectClient)(nil)

// Config describes the relay deployment.
type Config struct {
	Region      string
	Credentials setu.Credentials
	// AllowedOrigins are exact scheme://host[:port] origins allowed to call the relay from a browser.
	AllowedOrigins []string
	PollAttempts   int
	PollInterval   time.Duration
}

// Server is the relay's HTTP surface.
type Server struct {
	provider  Provider
	forwarder *Forwarder
	cfg       Config
	metrics   *telemetry.Pipeline
	// sleep is handed to per-request pollers. nil means a real timer.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewServer creates a relay server. forwarder may be nil, in which case
// webhooks are acknowledged without forwarding.
func NewServer(provider Provider, forwarder *Forwarder, cfg Config, metrics *telemetry.Pipeline) *Server {
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = consent.DefaultPollAttempts
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = consent.DefaultPollInterval
	}
	return &Server{
		provider:  provider,
		forwarder: forwarder,
		cfg:       cfg,
		metrics:   metrics,
	}
}

// Handler returns the routed handler wrapped in the relay's middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleInfo)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/consent/create", s.route("create_consent", s.handleCreateConsent))
	mux.HandleFunc("GET /api/consent/{id}", s.route("consent_status", s.handleConsentStatus))
	mux.HandleFunc("DELETE /api/consent/{id}", s.route("revoke_consent", s.handleRevokeConsent))

	mux.HandleFunc("POST /api/session/create", s.route("create_session", s.handleCreateSession))
	mux.HandleFunc("GET /api/session/{id}", s.route("get_session", s.handleGetSession))
	mux.HandleFunc("GET /api/session/{id}/poll", s.route("poll_session", s.handlePollSession))

	mux.HandleFunc("POST /api/webhook", s.route("webhook", s.handleWebhook))
	mux.HandleFunc("GET /api/webhook", s.handleWebhookHealth)

	var handler http.Handler = mux
	handler = middleware.OriginListCORS(s.cfg.AllowedOrigins)(handler)
	handler = middleware.Logging(handler)
	handler = middleware.Telemetry(serviceName)(handler)
	return handler
}

// route records the latency and status of one relay route.
func (s *Server) route(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.RelayRequest(r.Context(), name, rec.status, float64(time.Since(start).Microseconds())/1000)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
