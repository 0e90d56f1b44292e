package transaction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finlink/internal/domain/consent"
)

// MockRepository is a mock implementation of Repository interface
type MockRepository struct {
	ExistsByExternalIDFunc func(ctx context.Context, accountID, externalID string) (bool, error)
	CreateFunc             func(ctx context.Context, tx *Transaction) error
	CountByAccountIDFunc   func(ctx context.Context, accountID string) (int64, error)
	DeleteByAccountIDFunc  func(ctx context.Context, accountID string) (int64, error)
}

func (m *MockRepository) ExistsByExternalID(ctx context.Context, accountID, externalID string) (bool, error) {
	if m.ExistsByExternalIDFunc != nil {
		return m.ExistsByExternalIDFunc(ctx, accountID, externalID)
	}
	return false, nil
}

func (m *MockRepository) Create(ctx context.Context, tx *Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx)
	}
	return nil
}

func (m *MockRepository) CountByAccountID(ctx context.Context, accountID string) (int64, error) {
	if m.CountByAccountIDFunc != nil {
		return m.CountByAccountIDFunc(ctx, accountID)
	}
	return 0, nil
}

func (m *MockRepository) DeleteByAccountID(ctx context.Context, accountID string) (int64, error) {
	if m.DeleteByAccountIDFunc != nil {
		return m.DeleteByAccountIDFunc(ctx, accountID)
	}
	return 0, nil
}

// newLedgerRepo enforces (account, externalId) uniqueness in memory. Rows are
// keyed "<accountID>/<externalID>".
func newLedgerRepo() (*MockRepository, map[string]*Transaction) {
	stored := map[string]*Transaction{}
	return &MockRepository{
		ExistsByExternalIDFunc: func(ctx context.Context, accountID, externalID string) (bool, error) {
			_, ok := stored[accountID+"/"+externalID]
			return ok, nil
		},
		CreateFunc: func(ctx context.Context, tx *Transaction) error {
			key := tx.AccountID + "/" + tx.ExternalID
			if _, ok := stored[key]; ok {
				return ErrDuplicate
			}
			stored[key] = tx
			return nil
		},
	}, stored
}

var sampleLines = []consent.ProviderTransaction{
	{TxnID: "T1", Type: "DEBIT", Amount: "250.00", Narration: "SWIGGY ORDER", TransactionTimestamp: "2025-01-10T10:00:00+05:30"},
	{TxnID: "T2", Type: "DEBIT", Amount: "-100.50", Narration: "UBER TRIP", ValueDate: "2025-01-11"},
	{TxnID: "T3", Type: "CREDIT", Amount: "5000", Narration: "SALARY JAN", TransactionTimestamp: "2025-01-01T09:00:00Z"},
}

func TestImporter_Import(t *testing.T) {
	repo, stored := newLedgerRepo()
	imp := NewImporter(repo)

	result := imp.Import(context.Background(), 7, "acc-1", sampleLines)

	if result.Inserted != 3 || result.Skipped != 0 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	// 5000 - 250 - 100.50
	if want := decimal.RequireFromString("4649.50"); !result.BalanceDelta.Equal(want) {
		t.Errorf("BalanceDelta = %s, want %s", result.BalanceDelta, want)
	}

	t2 := stored["acc-1/T2"]
	if t2.Type != TypeExpense || !t2.Amount.Equal(decimal.RequireFromString("100.50")) {
		t.Errorf("T2 = %+v, want EXPENSE 100.50", t2)
	}
	if t2.Category != "transportation" || !t2.IsAutoSynced || t2.AccountID != "acc-1" || t2.UserID != 7 {
		t.Errorf("T2 fields = %+v", t2)
	}
	if got := stored["acc-1/T3"]; got.Type != TypeIncome || got.Category != "salary" {
		t.Errorf("T3 = %+v, want INCOME salary", got)
	}
}

func TestImporter_ReimportIsNoop(t *testing.T) {
	repo, stored := newLedgerRepo()
	imp := NewImporter(repo)

	first := imp.Import(context.Background(), 7, "acc-1", sampleLines)
	second := imp.Import(context.Background(), 7, "acc-1", sampleLines)

	if len(stored) != 3 {
		t.Errorf("stored %d transactions, want 3", len(stored))
	}
	if second.Inserted != 0 || second.Skipped != 3 {
		t.Errorf("second import = %+v, want all skipped", second)
	}
	if !second.BalanceDelta.IsZero() {
		t.Errorf("second import delta = %s, want 0", second.BalanceDelta)
	}
	if first.BalanceDelta.Add(second.BalanceDelta).String() != first.BalanceDelta.String() {
		t.Error("re-import must not change the balance")
	}
}

func TestImporter_UniqueViolationIsBenign(t *testing.T) {
	repo := &MockRepository{
		CreateFunc: func(ctx context.Context, tx *Transaction) error {
			return ErrDuplicate
		},
	}
	imp := NewImporter(repo)

	result := imp.Import(context.Background(), 7, "acc-1", sampleLines[:1])
	if result.Skipped != 1 || len(result.Errors) != 0 || result.Inserted != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestImporter_FailuresDoNotAbortBatch(t *testing.T) {
	repo, stored := newLedgerRepo()
	create := repo.CreateFunc
	repo.CreateFunc = func(ctx context.Context, tx *Transaction) error {
		if tx.ExternalID == "T1" {
			return errors.New("connection reset")
		}
		return create(ctx, tx)
	}
	imp := NewImporter(repo)

	lines := append([]consent.ProviderTransaction{
		{TxnID: "BAD", Type: "DEBIT", Amount: "12,34"},
	}, sampleLines...)

	result := imp.Import(context.Background(), 7, "acc-1", lines)

	if len(result.Errors) != 2 {
		t.Fatalf("errors = %v, want 2 entries", result.Errors)
	}
	if result.Inserted != 2 || len(stored) != 2 {
		t.Errorf("inserted = %d, stored = %d, want 2", result.Inserted, len(stored))
	}
	if want := decimal.RequireFromString("4899.50"); !result.BalanceDelta.Equal(want) {
		t.Errorf("BalanceDelta = %s, want %s", result.BalanceDelta, want)
	}
}

func TestFromProvider_Fallbacks(t *testing.T) {
	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	tx, err := FromProvider(consent.ProviderTransaction{Type: "DEBIT", Amount: "99.9"}, 1, "acc", now)
	if err != nil {
		t.Fatalf("FromProvider() failed: %v", err)
	}
	if tx.Description != "Bank Transaction" {
		t.Errorf("Description = %q", tx.Description)
	}
	if !tx.Date.Equal(now) {
		t.Errorf("Date = %s, want now", tx.Date)
	}
	if tx.Category != "other" {
		t.Errorf("Category = %q", tx.Category)
	}

	withValueDate, _ := FromProvider(consent.ProviderTransaction{Type: "CREDIT", Amount: "1", ValueDate: "2025-01-15"}, 1, "acc", now)
	if withValueDate.Date.Format("2006-01-02") != "2025-01-15" {
		t.Errorf("Date = %s, want value date", withValueDate.Date)
	}
}

func TestExternalID_DerivedKeyIsStable(t *testing.T) {
	line := consent.ProviderTransaction{Type: "DEBIT", Amount: "10.5", TransactionTimestamp: "2025-01-10T10:00:00Z"}

	a, _ := FromProvider(line, 1, "acc", time.Now())
	b, _ := FromProvider(line, 1, "acc", time.Now().Add(time.Hour))

	if a.ExternalID != b.ExternalID {
		t.Errorf("derived keys differ: %q vs %q", a.ExternalID, b.ExternalID)
	}
	if a.ExternalID != "aa-acc-2025-01-10T10:00:00Z-10.50" {
		t.Errorf("ExternalID = %q", a.ExternalID)
	}

	line.Amount = "10.50"
	c, _ := FromProvider(line, 1, "acc", time.Now())
	if c.ExternalID != a.ExternalID {
		t.Errorf("equivalent amounts should derive the same key, got %q", c.ExternalID)
	}
}

func TestImporter_DerivedKeysAreScopedToAccount(t *testing.T) {
	repo, stored := newLedgerRepo()
	imp := NewImporter(repo)

	// Same value date and amount, no provider txn id.
	line := []consent.ProviderTransaction{{Type: "DEBIT", Amount: "500", ValueDate: "2024-03-01"}}

	tests := []struct {
		name      string
		userID    int64
		accountID string
	}{
		{"first user", 1, "acc-user1"},
		{"second user", 2, "acc-user2"},
		{"second account of first user", 1, "acc-user1-current"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := imp.Import(context.Background(), tt.userID, tt.accountID, line)
			if result.Inserted != 1 || result.Skipped != 0 {
				t.Errorf("result = %+v, want one insert", result)
			}
			if want := decimal.NewFromInt(-500); !result.BalanceDelta.Equal(want) {
				t.Errorf("BalanceDelta = %s, want %s", result.BalanceDelta, want)
			}
		})
	}

	if len(stored) != 3 {
		t.Errorf("stored %d transactions, want 3", len(stored))
	}

	again := imp.Import(context.Background(), 2, "acc-user2", line)
	if again.Inserted != 0 || again.Skipped != 1 {
		t.Errorf("re-import = %+v, want skipped", again)
	}
}

func TestImporter_ProviderTxnIDScopedToAccount(t *testing.T) {
	repo, stored := newLedgerRepo()
	imp := NewImporter(repo)

	imp.Import(context.Background(), 1, "acc-a", sampleLines[:1])
	result := imp.Import(context.Background(), 2, "acc-b", sampleLines[:1])

	if result.Inserted != 1 {
		t.Errorf("result = %+v, want the same txn id imported for another account", result)
	}
	if _, ok := stored["acc-b/T1"]; !ok {
		t.Error("acc-b/T1 not stored")
	}
}

func TestFromProvider_CategoryFollowsDescription(t *testing.T) {
	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name            string
		line            consent.ProviderTransaction
		wantDescription string
		wantCategory    string
	}{
		{
			name:            "description only",
			line:            consent.ProviderTransaction{Type: "DEBIT", Amount: "320", Description: "Swiggy order"},
			wantDescription: "Swiggy order",
			wantCategory:    "food",
		},
		{
			name:            "narration wins",
			line:            consent.ProviderTransaction{Type: "DEBIT", Amount: "80", Narration: "UBER TRIP", Description: "Swiggy order"},
			wantDescription: "UBER TRIP",
			wantCategory:    "transportation",
		},
		{
			name:            "generic label is not classified",
			line:            consent.ProviderTransaction{Type: "DEBIT", Amount: "1"},
			wantDescription: "Bank Transaction",
			wantCategory:    "other",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := FromProvider(tt.line, 1, "acc", now)
			if err != nil {
				t.Fatalf("FromProvider() failed: %v", err)
			}
			if tx.Description != tt.wantDescription || tx.Category != tt.wantCategory {
				t.Errorf("got %q/%q, want %q/%q", tx.Description, tx.Category, tt.wantDescription, tt.wantCategory)
			}
		})
	}
}
