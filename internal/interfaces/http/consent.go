package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"finlink/internal/domain/aggregator"
	"finlink/internal/domain/consent"
	"finlink/internal/shared/middleware"
	"finlink/internal/shared/telemetry"
)

const callbackPath = "/api/consent/callback"

// ConsentHandler serves the browser-facing consent flow
type ConsentHandler struct {
	client  consent.Client
	link    *aggregator.LinkService
	sync    *aggregator.SyncService
	unlink  *aggregator.UnlinkService
	appURL  string
	metrics *telemetry.Pipeline
}

// NewConsentHandler creates a new consent handler. appURL is the public origin
// the provider redirects back to.
func NewConsentHandler(
	client consent.Client,
	link *aggregator.LinkService,
	sync *aggregator.SyncService,
	unlink *aggregator.UnlinkService,
	appURL string,
	metrics *telemetry.Pipeline,
) *ConsentHandler {
	return &ConsentHandler{
		client:  client,
		link:    link,
		sync:    sync,
		unlink:  unlink,
		appURL:  strings.TrimRight(appURL, "/"),
		metrics: metrics,
	}
}

type CreateConsentRequest struct {
	MobileNumber string `json:"mobileNumber"`
}

type SyncRequest struct {
	AccountID string `json:"accountId"`
}

type SyncResponse struct {
	Success          bool            `json:"success"`
	Message          string          `json:"message"`
	TransactionCount int             `json:"transactionCount"`
	NewBalance       decimal.Decimal `json:"newBalance"`
}

type RevokeRequest struct {
	AccountID          string `json:"accountId"`
	DeleteTransactions bool   `json:"deleteTransactions"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// HandleCreateConsent handles POST /api/consent/create
func (h *ConsentHandler) HandleCreateConsent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CreateConsentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	if req.MobileNumber == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Mobile number is required"})
		return
	}

	handle, err := h.client.CreateConsent(r.Context(), req.MobileNumber, h.appURL+callbackPath)
	if err != nil {
		writeError(w, err, "Failed to create consent")
		return
	}

	writeJSON(w, http.StatusOK, handle)
}

// HandleCallback handles GET /api/consent/callback, the provider's approval
// redirect. It always answers with a redirect to the dashboard.
func (h *ConsentHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params := aggregator.ParseCallback(r.URL.Query())
	outcome := h.link.HandleCallback(r.Context(), middleware.UserID(r.Context()), params)
	h.metrics.Callback(r.Context(), callbackOutcome(outcome.Redirect))

	http.Redirect(w, r, h.appURL+outcome.Redirect, http.StatusFound)
}

// HandleSync handles POST /api/consent/sync
func (h *ConsentHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req SyncRequest
	if err := decodeJSON(w, r, &req); err != nil || req.AccountID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Account ID is required"})
		return
	}

	result, err := h.sync.SyncAccount(r.Context(), userID, req.AccountID)
	if err != nil {
		h.metrics.Sync(r.Context(), "error", 0)
		writeError(w, err, "Failed to sync account")
		return
	}
	h.metrics.Sync(r.Context(), "ok", result.TransactionCount)

	writeJSON(w, http.StatusOK, SyncResponse{
		Success:          true,
		Message:          "Account synced",
		TransactionCount: result.TransactionCount,
		NewBalance:       result.NewBalance,
	})
}

// HandleRevoke handles POST /api/consent/revoke
func (h *ConsentHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req RevokeRequest
	if err := decodeJSON(w, r, &req); err != nil || req.AccountID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Account ID is required"})
		return
	}

	if err := h.unlink.Unlink(r.Context(), userID, req.AccountID, req.DeleteTransactions); err != nil {
		writeError(w, err, "Failed to unlink account")
		return
	}

	msg := "Bank account unlinked"
	if req.DeleteTransactions {
		msg = "Bank account and its transactions deleted"
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: msg})
}

// callbackOutcome reduces a redirect target to its error code, or "ok".
func callbackOutcome(redirect string) string {
	u, err := url.Parse(redirect)
	if err != nil {
		return "unknown"
	}
	if code := u.Query().Get("error"); code != "" {
		return code
	}
	if u.Query().Get("warning") != "" {
		return "sync_failed"
	}
	if u.Path != "/dashboard" {
		return "sign_in"
	}
	return "ok"
}
