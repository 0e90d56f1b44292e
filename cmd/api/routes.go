package main

import (
	"log"
	"net/http"

	"finlink/internal/shared/config"
	"finlink/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", deps.HealthHandler.HandleHealth)

	// Provider webhook, public and always acknowledged
	mux.HandleFunc("POST /api/webhook", deps.WebhookHandler.HandlePublic)
	mux.HandleFunc("GET /api/webhook", deps.WebhookHandler.HandleHealth)

	// Webhooks forwarded by the relay
	internalKey := middleware.InternalKey(cfg.Webhook.InternalAPIKey)
	mux.Handle("POST /api/internal/webhook", internalKey(http.HandlerFunc(deps.WebhookHandler.HandleInternal)))

	// Consent approval redirect. A missing session sends the browser to sign in.
	optionalAuth := middleware.OptionalAuth(deps.JWT)
	mux.Handle("GET /api/consent/callback", optionalAuth(http.HandlerFunc(deps.ConsentHandler.HandleCallback)))

	// Protected routes
	authMiddleware := middleware.Auth(deps.JWT)

	mux.Handle("POST /api/consent/create", authMiddleware(http.HandlerFunc(deps.ConsentHandler.HandleCreateConsent)))
	mux.Handle("POST /api/consent/sync", authMiddleware(http.HandlerFunc(deps.ConsentHandler.HandleSync)))
	mux.Handle("POST /api/consent/revoke", authMiddleware(http.HandlerFunc(deps.ConsentHandler.HandleRevoke)))
	mux.Handle("GET /api/accounts/linked", authMiddleware(http.HandlerFunc(deps.AccountHandler.HandleListLinked)))

	if cfg.Webhook.InternalAPIKey == "" {
		log.Println("Warning: INTERNAL_API_KEY not set, relayed webhooks will be rejected")
	}

	// Apply global middleware
	handler := middleware.Logging(middleware.CORS(cfg.Server.AllowedHosts)(mux))
	handler = middleware.Telemetry(cfg.Telemetry.ServiceName)(handler)

	if cfg.Provider.IsProduction() {
		handler = middleware.HSTS(handler)
		log.Println("HSTS enabled")
	}

	return handler
}
