package transaction

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finlink/internal/domain/consent"
)

const defaultDescription = "Bank Transaction"

// FromProvider maps one provider statement line to a ledger entry.
func FromProvider(line consent.ProviderTransaction, userID int64, accountID string, now time.Time) (*Transaction, error) {
	amount, err := parseAmount(line.Amount.String())
	if err != nil {
		return nil, err
	}

	txType := TypeExpense
	if strings.EqualFold(line.Type, "CREDIT") {
		txType = TypeIncome
	}

	description := firstNonEmpty(line.Narration, line.Description)
	category := Categorize(description)
	if description == "" {
		description = defaultDescription
	}

	return &Transaction{
		ID:           uuid.NewString(),
		UserID:       userID,
		AccountID:    accountID,
		Type:         txType,
		Amount:       amount,
		Description:  description,
		Date:         transactionDate(line, now),
		Category:     category,
		Status:       StatusCompleted,
		ExternalID:   ExternalID(line, accountID, amount),
		IsAutoSynced: true,
	}, nil
}

// ExternalID uses the provider's transaction id. Without one it derives a key
// from the account, raw timestamp and amount so re-importing a window yields the
// same key. Keys are unique per account, not globally.
func ExternalID(line consent.ProviderTransaction, accountID string, amount decimal.Decimal) string {
	if id := strings.TrimSpace(line.TxnID); id != "" {
		return id
	}
	ts := firstNonEmpty(line.TransactionTimestamp, line.ValueDate)
	return fmt.Sprintf("aa-%s-%s-%s", accountID, ts, amount.StringFixed(2))
}

func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w %q: %v", ErrInvalidAmount, raw, err)
	}
	return d.Abs(), nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func transactionDate(line consent.ProviderTransaction, now time.Time) time.Time {
	for _, raw := range []string{line.TransactionTimestamp, line.ValueDate} {
		if raw == "" {
			continue
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
	}
	return now
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
