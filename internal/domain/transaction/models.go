package transaction

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Type is the direction of money movement.
type Type string

const (
	TypeIncome  Type = "INCOME"
	TypeExpense Type = "EXPENSE"
)

const StatusCompleted = "COMPLETED"

// Domain errors
var (
	// ErrDuplicate is returned when externalId already exists. Callers treat it as a skip.
	ErrDuplicate     = errors.New("transaction already imported")
	ErrInvalidAmount = errors.New("invalid transaction amount")
)

// Transaction is an append-only ledger entry imported from a linked account.
type Transaction struct {
	ID           string          `json:"id"`
	UserID       int64           `json:"userId"`
	AccountID    string          `json:"accountId"`
	Type         Type            `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	Date         time.Time       `json:"date"`
	Category     string          `json:"category"`
	Status       string          `json:"status"`
	ExternalID   string          `json:"externalId"`
	IsAutoSynced bool            `json:"isAutoSynced"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// SignedAmount is +amount for income and -amount for expense.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TypeIncome {
		return t.Amount
	}
	return t.Amount.Neg()
}
