package scheduler

import (
	"context"
	"fmt"
	"log"
	"sort"

	"finlink/internal/domain/account"
	"finlink/internal/domain/aggregator"
)

// ConsentSyncer runs the sync pipeline for accounts sharing one consent.
// Implemented by aggregator.SyncService.
type ConsentSyncer interface {
	SyncConsent(ctx context.Context, consentID string, targets []*account.Account, soleAccount bool) ([]*aggregator.AccountSyncResult, error)
}

// ConsentResyncJob re-fetches one consent's data into its linked accounts with
// a single data session.
type ConsentResyncJob struct {
	consentID string
	accounts  []*account.Account
	sole      bool
	syncer    ConsentSyncer
}

// NewConsentResyncJob creates a job for accounts on consentID. sole marks the
// consent as covering exactly these accounts and nothing else.
func NewConsentResyncJob(consentID string, accounts []*account.Account, sole bool, syncer ConsentSyncer) *ConsentResyncJob {
	return &ConsentResyncJob{
		consentID: consentID,
		accounts:  accounts,
		sole:      sole,
		syncer:    syncer,
	}
}

func (j *ConsentResyncJob) Execute(ctx context.Context) error {
	results, err := j.syncer.SyncConsent(ctx, j.consentID, j.accounts, j.sole)
	if err != nil {
		return fmt.Errorf("resync failed: %w", err)
	}

	inserted := 0
	for _, r := range results {
		inserted += r.TransactionCount
		if len(r.Errors) > 0 {
			log.Printf("[Resync] account %s: %d line(s) failed", r.AccountID, len(r.Errors))
		}
	}
	log.Printf("[Resync] consent %s: %d account(s), %d new transaction(s)", j.consentID, len(results), inserted)

	if len(results) < len(j.accounts) {
		return fmt.Errorf("resync completed for %d of %d accounts", len(results), len(j.accounts))
	}
	return nil
}

func (j *ConsentResyncJob) Key() string {
	return j.consentID
}

func (j *ConsentResyncJob) Description() string {
	return fmt.Sprintf("resync of consent %s (%d account(s))", j.consentID, len(j.accounts))
}

// ResyncJobs groups linked accounts by consent, one job per consent, ordered by
// consent id. Accounts without a consent are skipped. A consent counts as sole
// only when all of its accounts are in the batch and there is exactly one.
func ResyncJobs(accounts []*account.Account, siblings map[string]int, syncer ConsentSyncer) []Job {
	byConsent := map[string][]*account.Account{}
	for _, acc := range accounts {
		if acc == nil || !acc.IsLinked || acc.ConsentID == "" {
			continue
		}
		byConsent[acc.ConsentID] = append(byConsent[acc.ConsentID], acc)
	}

	ids := make([]string, 0, len(byConsent))
	for id := range byConsent {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	jobs := make([]Job, 0, len(ids))
	for _, id := range ids {
		group := byConsent[id]
		total, ok := siblings[id]
		if !ok {
			total = len(group)
		}
		jobs = append(jobs, NewConsentResyncJob(id, group, total <= 1 && len(group) == 1, syncer))
	}
	return jobs
}
