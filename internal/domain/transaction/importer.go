package transaction

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"finlink/internal/domain/consent"
)

// ImportResult contains the results of importing one account's statement lines
type ImportResult struct {
	AccountID string
	Found     int
	Inserted  int
	Skipped   int // already imported
	Errors    []string
	// BalanceDelta is the signed sum of newly inserted transactions only.
	BalanceDelta decimal.Decimal
}

// Importer deduplicates and persists provider transactions
type Importer struct {
	repo Repository
	now  func() time.Time
}

// NewImporter creates a new transaction importer
func NewImporter(repo Repository) *Importer {
	return &Importer{repo: repo, now: time.Now}
}

// Import inserts lines that are not yet known by externalId. A failing line is
// logged and recorded; the remaining lines are still processed.
func (i *Importer) Import(ctx context.Context, userID int64, accountID string, lines []consent.ProviderTransaction) *ImportResult {
	result := &ImportResult{
		AccountID:    accountID,
		Found:        len(lines),
		Errors:       []string{},
		BalanceDelta: decimal.Zero,
	}

	now := i.now()
	for idx, line := range lines {
		if err := i.importLine(ctx, userID, accountID, line, now, result); err != nil {
			errMsg := fmt.Sprintf("failed to import transaction %d (%s): %v", idx, line.TxnID, err)
			result.Errors = append(result.Errors, errMsg)
			log.Printf("[Import] Error: %s", errMsg)
		}
	}

	log.Printf("[Import] account %s: found=%d, inserted=%d, skipped=%d, errors=%d, delta=%s",
		accountID, result.Found, result.Inserted, result.Skipped, len(result.Errors), result.BalanceDelta)

	return result
}

func (i *Importer) importLine(
	ctx context.Context,
	userID int64,
	accountID string,
	line consent.ProviderTransaction,
	now time.Time,
	result *ImportResult,
) error {
	tx, err := FromProvider(line, userID, accountID, now)
	if err != nil {
		return err
	}

	exists, err := i.repo.ExistsByExternalID(ctx, accountID, tx.ExternalID)
	if err != nil {
		return fmt.Errorf("failed to check existing transaction: %w", err)
	}
	if exists {
		result.Skipped++
		return nil
	}

	if err := i.repo.Create(ctx, tx); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// a concurrent sync inserted it between the check and the insert
			result.Skipped++
			return nil
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	result.Inserted++
	result.BalanceDelta = result.BalanceDelta.Add(tx.SignedAmount())
	return nil
}
