package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"
)

const InternalKeyHeader = "x-internal-api-key"

// InternalKey guards service-to-service routes with a shared key. An unset key
// is a server misconfiguration and answers 500.
func InternalKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				log.Printf("[Auth] internal key not configured, rejecting %s", r.URL.Path)
				writeJSONError(w, http.StatusInternalServerError, "Server misconfiguration")
				return
			}

			got := r.Header.Get(InternalKeyHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
