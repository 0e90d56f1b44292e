package aggregator

import (
	"context"
	"errors"
	"testing"

	"finlink/internal/domain/account"
	"finlink/internal/domain/consent"
	"finlink/internal/domain/transaction"
)

func TestUnlinkService_Unlink(t *testing.T) {
	tests := []struct {
		name               string
		seed               *account.Account
		userID             int64
		deleteTransactions bool
		revokeErr          error
		wantErr            error
		wantRevoked        int
		wantAccount        bool
		wantLedgerRows     int64
	}{
		{
			name:           "demote keeps history",
			seed:           linkedAccount("acc-1", "c-1", "XX1"),
			userID:         7,
			wantRevoked:    1,
			wantAccount:    true,
			wantLedgerRows: 1,
		},
		{
			name:               "delete removes account and transactions",
			seed:               linkedAccount("acc-1", "c-1", "XX1"),
			userID:             7,
			deleteTransactions: true,
			wantRevoked:        1,
			wantAccount:        false,
			wantLedgerRows:     0,
		},
		{
			name:           "revoke failure does not block",
			seed:           linkedAccount("acc-1", "c-1", "XX1"),
			userID:         7,
			revokeErr:      &consent.ProviderError{StatusCode: 404, Message: "consent not found"},
			wantRevoked:    1,
			wantAccount:    true,
			wantLedgerRows: 1,
		},
		{
			name:           "manual account",
			seed:           &account.Account{ID: "acc-1", UserID: 7, Name: "Cash"},
			userID:         7,
			wantErr:        account.ErrNotLinked,
			wantAccount:    true,
			wantLedgerRows: 1,
		},
		{
			name:           "someone else's account",
			seed:           linkedAccount("acc-1", "c-1", "XX1"),
			userID:         8,
			wantErr:        account.ErrAccountNotFound,
			wantAccount:    true,
			wantLedgerRows: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &MockClient{}
			if tt.revokeErr != nil {
				client.RevokeConsentFunc = func(context.Context, string) (*consent.RevokeResult, error) {
					return nil, tt.revokeErr
				}
			}
			accounts := newMemAccounts(tt.seed)
			ledger := newMemLedger()
			ledger.Create(context.Background(), &transaction.Transaction{ID: "tx-1", AccountID: "acc-1", ExternalID: "e-1"})

			svc := NewUnlinkService(client, accounts, ledger)
			err := svc.Unlink(context.Background(), tt.userID, "acc-1", tt.deleteTransactions)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if len(client.Revoked) != tt.wantRevoked {
				t.Errorf("revocations = %d, want %d", len(client.Revoked), tt.wantRevoked)
			}

			acc := accounts.get("acc-1")
			if (acc != nil) != tt.wantAccount {
				t.Fatalf("account present = %v, want %v", acc != nil, tt.wantAccount)
			}
			if acc != nil && tt.wantErr == nil && (acc.IsLinked || acc.ConsentID != "") {
				t.Errorf("account still linked: %+v", acc)
			}
			if n, _ := ledger.CountByAccountID(context.Background(), "acc-1"); n != tt.wantLedgerRows {
				t.Errorf("ledger rows = %d, want %d", n, tt.wantLedgerRows)
			}
		})
	}
}
