package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"finlink/internal/domain/consent"
)

const forwardTimeout = 10 * time.Second

type webhookAck struct {
	Success   bool   `json:"success"`
	Forwarded bool   `json:"forwarded"`
	Error     string `json:"error,omitempty"`
}

// handleWebhook acknowledges every provider event with 200 and forwards it to
// the backend. Forwarding failures are logged only.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		log.Printf("[Webhook] failed to read body: %v", err)
		writeJSON(w, http.StatusOK, webhookAck{Error: "Invalid payload"})
		return
	}

	var payload consent.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[Webhook] invalid payload: %v", err)
		writeJSON(w, http.StatusOK, webhookAck{Error: "Invalid payload"})
		return
	}
	if payload.Type == "" {
		writeJSON(w, http.StatusOK, webhookAck{Error: "Missing webhook type"})
		return
	}
	log.Printf("[Webhook] %s consent=%s session=%s", payload.Type, payload.EffectiveConsentID(), payload.SessionID())

	// The provider may hang up once it has the ack; forwarding must still finish.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), forwardTimeout)
	defer cancel()

	forwarded := false
	switch err := s.forwarder.Forward(ctx, body); {
	case errors.Is(err, ErrForwardingDisabled):
		log.Printf("[Webhook] forwarding disabled, %s not forwarded", payload.Type)
	case err != nil:
		log.Printf("[Webhook] forward of %s failed: %v", payload.Type, err)
	default:
		forwarded = true
	}

	writeJSON(w, http.StatusOK, webhookAck{Success: true, Forwarded: forwarded})
}

func (s *Server) handleWebhookHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"forwarding": s.forwarder.Configured(),
	})
}
