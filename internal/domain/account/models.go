package account

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finlink/internal/domain/consent"
)

// SyncStatus tracks the data-sync lifecycle of a linked account.
type SyncStatus string

const (
	SyncNever   SyncStatus = "NEVER"
	SyncSyncing SyncStatus = "SYNCING"
	SyncSynced  SyncStatus = "SYNCED"
	SyncError   SyncStatus = "ERROR"
)

// Type is the bank account type reported by the provider.
type Type string

const (
	TypeSavings Type = "SAVINGS"
	TypeCurrent Type = "CURRENT"
)

// TypeFromProvider maps the provider's accType; anything but CURRENT is savings.
func TypeFromProvider(accType string) Type {
	if strings.EqualFold(accType, string(TypeCurrent)) {
		return TypeCurrent
	}
	return TypeSavings
}

// Domain errors
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrForbidden       = errors.New("access forbidden")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotLinked       = errors.New("this is not a linked bank account")
	ErrNoConsent       = errors.New("no consent ID found for this account")
)

const (
	defaultInstitution = "Bank"
	defaultMasked      = "Linked"
)

// Account is a bank account whose data arrives through a consent.
type Account struct {
	ID              string          `json:"id"`
	UserID          int64           `json:"userId"`
	Name            string          `json:"name"`
	Type            Type            `json:"type"`
	Balance         decimal.Decimal `json:"balance"`
	IsLinked        bool            `json:"isLinked"`
	ConsentID       string          `json:"consentId,omitempty"`
	ConsentStatus   consent.Status  `json:"consentStatus,omitempty"`
	InstitutionName string          `json:"institutionName,omitempty"`
	MaskedAccNumber string          `json:"maskedAccNumber,omitempty"`
	SyncStatus      SyncStatus      `json:"syncStatus"`
	LastSyncedAt    *time.Time      `json:"lastSyncedAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OwnedBy reports whether userID owns the account.
func (a *Account) OwnedBy(userID int64) bool {
	return a != nil && a.UserID == userID
}

// CreateParams contains parameters for creating a linked account
type CreateParams struct {
	ID              string
	UserID          int64
	Name            string
	Type            Type
	ConsentID       string
	InstitutionName string
	MaskedAccNumber string
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.ID == "" {
		return errors.New("account ID is required")
	}
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.Name == "" {
		return errors.New("account name is required")
	}
	if p.ConsentID == "" {
		return errors.New("consent ID is required")
	}
	if p.Type != TypeSavings && p.Type != TypeCurrent {
		return ErrInvalidInput
	}
	return nil
}

// LinkParams refreshes consent details on an existing account.
type LinkParams struct {
	ConsentID       string
	InstitutionName string
	MaskedAccNumber string
}

// LinkedName is the display name given to accounts created from a consent.
func LinkedName(fipID, masked string) string {
	if fipID == "" {
		fipID = defaultInstitution
	}
	if masked == "" {
		masked = defaultMasked
	}
	return fipID + " - " + masked
}

// InstitutionName falls back to a generic label when the provider omits the FIP.
func InstitutionName(fipID string) string {
	if fipID == "" {
		return defaultInstitution
	}
	return fipID
}
