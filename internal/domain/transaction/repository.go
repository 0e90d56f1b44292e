package transaction

import "context"

// Repository defines the interface for transaction data access
type Repository interface {
	// ExistsByExternalID reports whether the account already holds a transaction with this key
	ExistsByExternalID(ctx context.Context, accountID, externalID string) (bool, error)

	// Create inserts a transaction. A unique violation on (accountId, externalId) returns ErrDuplicate.
	Create(ctx context.Context, tx *Transaction) error

	// CountByAccountID returns how many transactions an account holds
	CountByAccountID(ctx context.Context, accountID string) (int64, error)

	// DeleteByAccountID removes every transaction of an account
	DeleteByAccountID(ctx context.Context, accountID string) (int64, error)
}
