package http

import (
	"errors"
	"log"
	"net/http"

	"finlink/internal/domain/account"
	"finlink/internal/domain/consent"
	"finlink/internal/shared/telemetry"
)

// WebhookHandler receives provider events, either directly or forwarded by
// the relay.
type WebhookHandler struct {
	accountService *account.Service
	metrics        *telemetry.Pipeline
}

func NewWebhookHandler(accountService *account.Service, metrics *telemetry.Pipeline) *WebhookHandler {
	return &WebhookHandler{accountService: accountService, metrics: metrics}
}

type WebhookResponse struct {
	Success bool   `json:"success"`
	Updated int64  `json:"updated,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HandlePublic handles POST /api/webhook. The provider retries anything but a
// 200, so every outcome is acknowledged and failures are only logged.
func (h *WebhookHandler) HandlePublic(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.HandleHealth(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload consent.WebhookPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		log.Printf("[Webhook] invalid payload: %v", err)
		writeJSON(w, http.StatusOK, WebhookResponse{Error: "Invalid payload"})
		return
	}
	if payload.Type == "" {
		log.Printf("[Webhook] payload without type")
		writeJSON(w, http.StatusOK, WebhookResponse{Error: "Missing webhook type"})
		return
	}
	h.metrics.Webhook(r.Context(), string(payload.Type), "public")

	consentID := payload.EffectiveConsentID()
	log.Printf("[Webhook] %s consent=%s session=%s", payload.Type, consentID, payload.SessionID())

	n, err := h.accountService.ApplyEvent(r.Context(), payload.Type, consentID)
	if err != nil {
		log.Printf("[Webhook] failed to process %s for consent %s: %v", payload.Type, consentID, err)
	}

	writeJSON(w, http.StatusOK, WebhookResponse{Success: true, Updated: n})
}

// HandleInternal handles POST /api/internal/webhook, the relay's forwarded
// copy. It sits behind the internal key middleware and reports failures so the
// relay can log them.
func (h *WebhookHandler) HandleInternal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload consent.WebhookPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, WebhookResponse{Error: "Invalid payload"})
		return
	}
	if payload.Type == "" {
		writeJSON(w, http.StatusBadRequest, WebhookResponse{Error: "Missing webhook type"})
		return
	}
	h.metrics.Webhook(r.Context(), string(payload.Type), "internal")

	consentID := payload.EffectiveConsentID()
	n, err := h.accountService.ApplyEvent(r.Context(), payload.Type, consentID)
	if err != nil {
		log.Printf("[Webhook] internal %s for consent %s failed: %v", payload.Type, consentID, err)
		if errors.Is(err, account.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, WebhookResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, WebhookResponse{Error: "Failed to process webhook"})
		return
	}

	writeJSON(w, http.StatusOK, WebhookResponse{Success: true, Updated: n})
}

// HandleHealth handles GET /api/webhook so the provider dashboard can verify
// the endpoint.
func (h *WebhookHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
