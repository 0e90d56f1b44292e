package aggregator

import (
	"context"
	"fmt"
	"log"

	"finlink/internal/domain/account"
	"finlink/internal/domain/consent"
	"finlink/internal/domain/transaction"
)

// UnlinkService detaches linked accounts and revokes their consent
type UnlinkService struct {
	client       consent.Client
	accounts     account.Repository
	accountSvc   *account.Service
	transactions transaction.Repository
}

// NewUnlinkService creates a new unlink service
func NewUnlinkService(client consent.Client, accounts account.Repository, transactions transaction.Repository) *UnlinkService {
	return &UnlinkService{
		client:       client,
		accounts:     accounts,
		accountSvc:   account.NewService(accounts),
		transactions: transactions,
	}
}

// Unlink revokes the account's consent and then either deletes the account with
// its transactions or demotes it to unlinked. A failed revocation is logged and
// the local unlink still happens.
func (s *UnlinkService) Unlink(ctx context.Context, userID int64, accountID string, deleteTransactions bool) error {
	acc, err := s.accountSvc.GetOwnedAccount(ctx, accountID, userID)
	if err != nil {
		return err
	}
	if !acc.IsLinked && acc.ConsentID == "" {
		return account.ErrNotLinked
	}

	if acc.ConsentID != "" {
		if _, err := s.client.RevokeConsent(ctx, acc.ConsentID); err != nil {
			log.Printf("[Unlink] failed to revoke consent %s, continuing: %v", acc.ConsentID, err)
		}
	}

	if !deleteTransactions {
		if err := s.accounts.Unlink(ctx, acc.ID); err != nil {
			return fmt.Errorf("failed to unlink account: %w", err)
		}
		log.Printf("[Unlink] account %s unlinked, history kept", acc.ID)
		return nil
	}

	n, err := s.transactions.DeleteByAccountID(ctx, acc.ID)
	if err != nil {
		return fmt.Errorf("failed to delete transactions: %w", err)
	}
	if err := s.accounts.Delete(ctx, acc.ID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	log.Printf("[Unlink] account %s deleted with %d transaction(s)", acc.ID, n)
	return nil
}
