package aggregator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"finlink/internal/domain/account"
	"finlink/internal/domain/consent"
	"finlink/internal/domain/transaction"
)

// Notifier is told about linked accounts and finished syncs. Failures are the
// notifier's concern.
type Notifier interface {
	AccountsLinked(ctx context.Context, userID int64, count int)
	SyncCompleted(ctx context.Context, acc *account.Account, inserted int)
}

// AccountSyncResult contains the results of syncing one linked account
type AccountSyncResult struct {
	AccountID        string          `json:"accountId"`
	TransactionCount int             `json:"transactionCount"`
	Skipped          int             `json:"skipped"`
	NewBalance       decimal.Decimal `json:"newBalance"`
	Errors           []string        `json:"errors,omitempty"`
}

// SyncService runs the consent to transactions pipeline for linked accounts
type SyncService struct {
	client     consent.Client
	accounts   account.Repository
	accountSvc *account.Service
	importer   *transaction.Importer
	notifier   Notifier
	now        func() time.Time
}

// NewSyncService creates a new sync service. notifier may be nil.
func NewSyncService(client consent.Client, accounts account.Repository, importer *transaction.Importer, notifier Notifier) *SyncService {
	return &SyncService{
		client:     client,
		accounts:   accounts,
		accountSvc: account.NewService(accounts),
		importer:   importer,
		notifier:   notifier,
		now:        time.Now,
	}
}

// SyncAccount re-fetches data for one linked account the caller owns.
func (s *SyncService) SyncAccount(ctx context.Context, userID int64, accountID string) (*AccountSyncResult, error) {
	acc, err := s.accountSvc.GetLinkedAccount(ctx, accountID, userID)
	if err != nil {
		return nil, err
	}
	if acc.ConsentID == "" {
		return nil, account.ErrNoConsent
	}

	siblings, err := s.accounts.ListByConsentID(ctx, acc.ConsentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts for consent: %w", err)
	}

	results, err := s.SyncConsent(ctx, acc.ConsentID, []*account.Account{acc}, len(siblings) <= 1)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// SyncConsent creates one data session for consentID and imports its data into
// targets. With soleAccount set, data that matches no masked number still goes
// to the single target.
//
// Every target is SYNCING before the session is created and ends SYNCED or
// ERROR. The work runs detached from ctx cancellation so a disconnecting
// caller cannot leave an account stuck in SYNCING.
func (s *SyncService) SyncConsent(ctx context.Context, consentID string, targets []*account.Account, soleAccount bool) ([]*AccountSyncResult, error) {
	ctx = context.WithoutCancel(ctx)

	for _, acc := range targets {
		if err := s.accounts.UpdateSyncStatus(ctx, acc.ID, account.SyncSyncing); err != nil {
			s.markError(ctx, targets)
			return nil, fmt.Errorf("failed to mark account %s syncing: %w", acc.ID, err)
		}
	}

	data, err := s.fetch(ctx, consentID)
	if err != nil {
		log.Printf("[Sync] consent %s failed: %v", consentID, err)
		s.markError(ctx, targets)
		return nil, err
	}

	results := make([]*AccountSyncResult, 0, len(targets))
	var firstErr error
	for _, acc := range targets {
		lines := matchAccountData(data.Data, acc, soleAccount && len(targets) == 1)
		imported := s.importer.Import(ctx, acc.UserID, acc.ID, lines)

		balance := acc.Balance.Add(imported.BalanceDelta)
		if err := s.accounts.CompleteSync(ctx, acc.ID, balance, s.now()); err != nil {
			log.Printf("[Sync] failed to record sync for account %s: %v", acc.ID, err)
			s.markError(ctx, []*account.Account{acc})
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to complete sync for account %s: %w", acc.ID, err)
			}
			continue
		}
		acc.Balance = balance
		acc.SyncStatus = account.SyncSynced

		if s.notifier != nil && imported.Inserted > 0 {
			s.notifier.SyncCompleted(ctx, acc, imported.Inserted)
		}

		results = append(results, &AccountSyncResult{
			AccountID:        acc.ID,
			TransactionCount: imported.Inserted,
			Skipped:          imported.Skipped,
			NewBalance:       balance,
			Errors:           imported.Errors,
		})
	}

	if firstErr != nil && len(results) == 0 {
		return nil, firstErr
	}
	return results, nil
}

func (s *SyncService) fetch(ctx context.Context, consentID string) (*consent.SessionData, error) {
	details, err := s.client.GetConsentStatus(ctx, consentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get consent status: %w", err)
	}
	if details.Status != consent.StatusActive {
		return nil, fmt.Errorf("%w: status is %s", consent.ErrConsentNotActive, details.Status)
	}

	session, err := s.client.CreateDataSession(ctx, consentID, details.FIDataRange)
	if err != nil {
		return nil, fmt.Errorf("failed to create data session: %w", err)
	}
	log.Printf("[Sync] session %s created for consent %s", session.SessionID, consentID)

	data, err := s.client.FetchSessionData(ctx, session.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session data: %w", err)
	}
	return data, nil
}

func (s *SyncService) markError(ctx context.Context, targets []*account.Account) {
	for _, acc := range targets {
		if err := s.accounts.UpdateSyncStatus(ctx, acc.ID, account.SyncError); err != nil {
			log.Printf("[Sync] failed to mark account %s as ERROR: %v", acc.ID, err)
			continue
		}
		acc.SyncStatus = account.SyncError
	}
}

// matchAccountData picks the statement lines that belong to acc.
func matchAccountData(data []consent.AccountData, acc *account.Account, soleAccount bool) []consent.ProviderTransaction {
	var lines []consent.ProviderTransaction
	matched := false
	for _, d := range data {
		if acc.MaskedAccNumber != "" && d.MaskedAccNumber == acc.MaskedAccNumber {
			matched = true
			lines = append(lines, d.Account.TransactionLines()...)
		}
	}
	if matched || !soleAccount {
		return lines
	}

	for _, d := range data {
		lines = append(lines, d.Account.TransactionLines()...)
	}
	return lines
}
