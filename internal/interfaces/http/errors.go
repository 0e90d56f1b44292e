package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"finlink/internal/domain/account"
	"finlink/internal/domain/consent"
)

const maxBodySize = 1 << 20 // 1 MiB

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// statusFor maps a domain error to its HTTP status. Accounts owned by someone
// else are reported as not found.
func statusFor(err error) int {
	var provErr *consent.ProviderError
	switch {
	case errors.Is(err, consent.ErrInvalidInput),
		errors.Is(err, account.ErrInvalidInput),
		errors.Is(err, consent.ErrMissingDataRange),
		errors.Is(err, consent.ErrConsentNotActive),
		errors.Is(err, account.ErrNoConsent),
		errors.Is(err, account.ErrNotLinked):
		return http.StatusBadRequest
	case errors.Is(err, account.ErrAccountNotFound),
		errors.Is(err, account.ErrForbidden):
		return http.StatusNotFound
	case errors.Is(err, consent.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, consent.ErrSessionFailed),
		errors.Is(err, consent.ErrSessionExpired),
		errors.As(err, &provErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError answers with the mapped status. Server-side failures are logged
// and get fallback as their message.
func writeError(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusNotFound:
		msg = "Account not found"
	case http.StatusInternalServerError:
		log.Printf("%s: %v", fallback, err)
		msg = fallback
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}
