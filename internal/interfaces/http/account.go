package http

import (
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"finlink/internal/domain/account"
	"finlink/internal/shared/middleware"
)

// AccountHandler serves the caller's linked accounts
type AccountHandler struct {
	accountService *account.Service
}

// NewAccountHandler creates a new account handler with service layer
func NewAccountHandler(accountService *account.Service) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// LinkedAccountResponse carries the consent and sync badges shown per account
type LinkedAccountResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	Balance         decimal.Decimal `json:"balance"`
	InstitutionName string          `json:"institutionName"`
	MaskedAccNumber string          `json:"maskedAccNumber"`
	ConsentStatus   string          `json:"consentStatus"`
	SyncStatus      string          `json:"syncStatus"`
	LastSyncedAt    *string         `json:"lastSyncedAt"`
	CreatedAt       string          `json:"createdAt"`
}

// HandleListLinked handles GET /api/accounts/linked
func (h *AccountHandler) HandleListLinked(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accounts, err := h.accountService.ListLinkedAccounts(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing linked accounts for user %d: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to list accounts"})
		return
	}

	response := make([]LinkedAccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		response = append(response, toLinkedAccountResponse(acc))
	}

	writeJSON(w, http.StatusOK, response)
}

func toLinkedAccountResponse(acc *account.Account) LinkedAccountResponse {
	var lastSynced *string
	if acc.LastSyncedAt != nil {
		formatted := acc.LastSyncedAt.Format(time.RFC3339)
		lastSynced = &formatted
	}

	return LinkedAccountResponse{
		ID:              acc.ID,
		Name:            acc.Name,
		Type:            string(acc.Type),
		Balance:         acc.Balance,
		InstitutionName: acc.InstitutionName,
		MaskedAccNumber: acc.MaskedAccNumber,
		ConsentStatus:   string(acc.ConsentStatus),
		SyncStatus:      string(acc.SyncStatus),
		LastSyncedAt:    lastSynced,
		CreatedAt:       acc.CreatedAt.Format(time.RFC3339),
	}
}
