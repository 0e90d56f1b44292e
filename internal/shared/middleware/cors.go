package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	corsMethods = "GET, POST, DELETE, OPTIONS"
	corsHeaders = "Content-Type, Authorization, x-internal-api-key"
)

// corsExempt paths are hit by the provider or by its approval redirect, never
// by our own frontend, so they skip the origin check.
var corsExempt = []string{
	"/api/consent/callback",
	"/api/webhook",
}

// CORS allows browser requests from allowedHosts. An empty list allows any
// origin without credentials.
func CORS(allowedHosts []string) func(http.Handler) http.Handler {
	if len(allowedHosts) == 0 {
		return cors(nil)
	}
	return cors(func(origin string) bool {
		return isOriginAllowed(origin, allowedHosts)
	})
}

// OriginListCORS allows origins whose scheme://host[:port] equals one of
// origins, plus requests that carry no Origin at all.
func OriginListCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if c, ok := canonicalOrigin(strings.TrimRight(o, "/")); ok {
			allowed[c] = true
		}
	}
	return cors(func(origin string) bool {
		c, ok := canonicalOrigin(origin)
		return ok && allowed[c]
	})
}

// canonicalOrigin lower-cases scheme and host. Anything beyond
// scheme://host[:port] is not a valid Origin.
func canonicalOrigin(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	if u.User != nil || u.Opaque != "" || (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" {
		return "", false
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), true
}

// cors with a nil allow func answers with a wildcard.
func cors(allow func(origin string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()

			switch {
			case allow == nil || isCORSExempt(r.URL.Path):
				h.Set("Access-Control-Allow-Origin", "*")
			case origin == "":
			case allow(origin):
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
			default:
				http.Error(w, "Origin not allowed", http.StatusForbidden)
				return
			}

			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", corsMethods)
				h.Set("Access-Control-Allow-Headers", corsHeaders)
				h.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isCORSExempt(path string) bool {
	for _, p := range corsExempt {
		if path == p {
			return true
		}
	}
	return false
}

// isOriginAllowed compares the origin's host against allowedHosts.
func isOriginAllowed(origin string, allowedHosts []string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return IsHostAllowed(u.Host, allowedHosts)
}
