package account

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository defines the interface for linked account data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// Create creates a new linked account
	Create(ctx context.Context, params CreateParams) (*Account, error)

	// GetByID retrieves an account by its ID
	GetByID(ctx context.Context, id string) (*Account, error)

	// ListLinkedByUserID retrieves the linked accounts of a user
	ListLinkedByUserID(ctx context.Context, userID int64) ([]*Account, error)

	// ListLinked retrieves every linked account with a consent
	ListLinked(ctx context.Context) ([]*Account, error)

	// ListByConsentID retrieves all accounts sharing a consent
	ListByConsentID(ctx context.Context, consentID string) ([]*Account, error)

	// FindByConsent finds a user's account by consent and masked number.
	// Returns nil, nil when nothing matches.
	FindByConsent(ctx context.Context, userID int64, consentID, maskedAccNumber string) (*Account, error)

	// FindByName finds a user's account by name. Returns nil, nil when nothing matches.
	FindByName(ctx context.Context, userID int64, name string) (*Account, error)

	// MarkLinked sets isLinked and an ACTIVE consent on an existing account
	MarkLinked(ctx context.Context, id string, params LinkParams) (*Account, error)

	// UpdateSyncStatus overwrites the sync status
	UpdateSyncStatus(ctx context.Context, id string, status SyncStatus) error

	// CompleteSync writes balance, lastSyncedAt and SYNCED in one update
	CompleteSync(ctx context.Context, id string, balance decimal.Decimal, syncedAt time.Time) error

	// ApplyTransition updates every account sharing consentID and returns the row count
	ApplyTransition(ctx context.Context, consentID string, t Transition) (int64, error)

	// Unlink demotes an account to unlinked, keeping its history
	Unlink(ctx context.Context, id string) error

	// Delete removes an account
	Delete(ctx context.Context, id string) error
}
