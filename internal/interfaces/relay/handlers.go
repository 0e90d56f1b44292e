package relay

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"finlink/internal/domain/consent"
	"finlink/internal/infrastructure/setu"
)

const (
	maxBodySize = 1 << 20 // 1 MiB

	maxPollAttempts = 30
	minPollDelay    = 100 * time.Millisecond
	maxPollDelay    = 10 * time.Second
)

const (
	serviceName  = "finlink-relay"
	relayVersion = "1"
)

// Error codes returned in relay error bodies.
const (
	codeInvalidRequest = "INVALID_REQUEST"
	codeConsentCreate  = "CONSENT_CREATION_FAILED"
	codeConsentStatus  = "CONSENT_STATUS_FAILED"
	codeConsentRevoke  = "CONSENT_REVOKE_FAILED"
	codeSessionCreate  = "SESSION_CREATION_FAILED"
	codeDataFetch      = "DATA_FETCH_FAILED"
	codePollFailed     = "POLL_FAILED"
)

type errorResponse struct {
	Error    string `json:"error"`
	Code     string `json:"code,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
}

type createConsentRequest struct {
	MobileNumber string `json:"mobileNumber"`
	RedirectURL  string `json:"redirectUrl"`
}

type createSessionRequest struct {
	ConsentID   string             `json:"consentId"`
	FIDataRange *consent.DataRange `json:"fiDataRange"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Relay] error encoding response: %v", err)
	}
}

// writeFailure answers 400 for invalid input and 500 otherwise.
func writeFailure(w http.ResponseWriter, err error, code string) {
	status := http.StatusInternalServerError
	if errors.Is(err, consent.ErrInvalidInput) || errors.Is(err, consent.ErrMissingDataRange) {
		status = http.StatusBadRequest
	}
	log.Printf("[Relay] %s: %v", code, err)
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":     serviceName,
		"version":     relayVersion,
		"region":      s.cfg.Region,
		"environment": s.cfg.Credentials.Environment,
		"endpoints": []string{
			"GET /health",
			"POST /api/consent/create",
			"GET /api/consent/{id}",
			"DELETE /api/consent/{id}",
			"POST /api/session/create",
			"GET /api/session/{id}",
			"GET /api/session/{id}/poll",
			"POST /api/webhook",
		},
	})
}

// handleHealth reports which credentials are present, never their values.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	creds := s.cfg.Credentials
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"region":      s.cfg.Region,
		"environment": creds.Environment,
		"baseUrl":     creds.URL(),
		"config": map[string]bool{
			"clientId":          creds.ClientID != "",
			"clientSecret":      creds.ClientSecret != "",
			"productInstanceId": creds.ProductInstanceID != "",
			"backendUrl":        s.forwarder.Configured(),
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCreateConsent(w http.ResponseWriter, r *http.Request) {
	var req createConsentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body", Code: codeInvalidRequest})
		return
	}
	if req.MobileNumber == "" || req.RedirectURL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "mobileNumber and redirectUrl are required", Code: codeInvalidRequest})
		return
	}

	handle, err := s.provider.CreateConsent(r.Context(), req.MobileNumber, req.RedirectURL)
	if err != nil {
		writeFailure(w, err, codeConsentCreate)
		return
	}
	writeJSON(w, http.StatusOK, handle)
}

func (s *Server) handleConsentStatus(w http.ResponseWriter, r *http.Request) {
	details, err := s.provider.GetConsentStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, err, codeConsentStatus)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *Server) handleRevokeConsent(w http.ResponseWriter, r *http.Request) {
	result, err := s.provider.RevokeConsent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, err, codeConsentRevoke)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body", Code: codeInvalidRequest})
		return
	}
	if req.ConsentID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "consentId is required", Code: codeInvalidRequest})
		return
	}
	if req.FIDataRange == nil || !req.FIDataRange.IsComplete() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: consent.ErrMissingDataRange.Error(), Code: codeInvalidRequest})
		return
	}

	session, err := s.provider.CreateDataSession(r.Context(), req.ConsentID, *req.FIDataRange)
	if err != nil {
		writeFailure(w, err, codeSessionCreate)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handleGetSession reads the session once and extracts what is ready.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.provider.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, err, codeDataFetch)
		return
	}
	writeJSON(w, http.StatusOK, consent.NewSessionData(session))
}

// handlePollSession polls on the caller's behalf. Terminal sessions answer 400
// with the session code and exhaustion answers 408.
func (s *Server) handlePollSession(w http.ResponseWriter, r *http.Request) {
	poller := s.pollerFor(r)

	data, err := s.provider.PollSession(r.Context(), r.PathValue("id"), poller)
	if err == nil {
		writeJSON(w, http.StatusOK, data)
		return
	}

	attempts := 0
	var pollErr *consent.PollError
	if errors.As(err, &pollErr) {
		attempts = pollErr.Attempts
	}

	switch {
	case errors.Is(err, consent.ErrSessionExpired):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: setu.SessionFailureCode(consent.SessionExpired), Attempts: attempts})
	case errors.Is(err, consent.ErrSessionFailed):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: setu.SessionFailureCode(consent.SessionFailed), Attempts: attempts})
	case errors.Is(err, consent.ErrTimeout):
		writeJSON(w, http.StatusRequestTimeout, errorResponse{Error: err.Error(), Code: setu.SessionTimeoutCode, Attempts: attempts})
	default:
		log.Printf("[Relay] poll of session %s failed: %v", r.PathValue("id"), err)
		status := http.StatusInternalServerError
		if errors.Is(err, consent.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Error: err.Error(), Code: codePollFailed, Attempts: attempts})
	}
}

// pollerFor builds a poller from maxAttempts and delayMs, clamped to sane bounds.
func (s *Server) pollerFor(r *http.Request) *consent.Poller {
	attempts := s.cfg.PollAttempts
	if v, err := strconv.Atoi(r.URL.Query().Get("maxAttempts")); err == nil && v > 0 {
		attempts = min(v, maxPollAttempts)
	}

	delay := s.cfg.PollInterval
	if v, err := strconv.Atoi(r.URL.Query().Get("delayMs")); err == nil && v > 0 {
		delay = min(max(time.Duration(v)*time.Millisecond, minPollDelay), maxPollDelay)
	}

	p := consent.NewPoller(attempts, delay)
	if s.sleep != nil {
		p.Sleep = s.sleep
	}
	return p
}
