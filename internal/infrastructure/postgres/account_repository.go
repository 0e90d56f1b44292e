package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finlink/internal/domain/account"
	"finlink/internal/domain/consent"
)

// AccountRepository implements account.Repository for PostgreSQL
type AccountRepository struct {
	db *DB
}

var _ account.Repository = (*AccountRepository)(nil)

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `
	id, user_id, name, account_type, balance, is_linked, consent_id, consent_status,
	institution_name, masked_acc_number, sync_status, last_synced_at, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*account.Account, error) {
	var acc account.Account
	var consentID, consentStatus, institution, masked sql.NullString
	var lastSynced sql.NullTime

	err := s.Scan(
		&acc.ID, &acc.UserID, &acc.Name, &acc.Type, &acc.Balance, &acc.IsLinked,
		&consentID, &consentStatus, &institution, &masked,
		&acc.SyncStatus, &lastSynced, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	acc.ConsentID = consentID.String
	acc.ConsentStatus = consent.Status(consentStatus.String)
	acc.InstitutionName = institution.String
	acc.MaskedAccNumber = masked.String
	if lastSynced.Valid {
		t := lastSynced.Time
		acc.LastSyncedAt = &t
	}
	return &acc, nil
}

func (r *AccountRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]*account.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []*account.Account{}
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// findOne returns nil, nil when no row matches.
func (r *AccountRepository) findOne(ctx context.Context, query string, args ...any) (*account.Account, error) {
	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return acc, err
}

// Create inserts a linked account with an ACTIVE consent
func (r *AccountRepository) Create(ctx context.Context, params account.CreateParams) (*account.Account, error) {
	query := `
		INSERT INTO accounts (id, user_id, name, account_type, balance, is_linked, consent_id,
		                      consent_status, institution_name, masked_acc_number, sync_status)
		VALUES ($1, $2, $3, $4, 0, TRUE, $5, $6, $7, $8, $9)
		RETURNING` + accountColumns

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query,
		params.ID, params.UserID, params.Name, params.Type, params.ConsentID,
		consent.StatusActive, params.InstitutionName, params.MaskedAccNumber, account.SyncNever,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return acc, nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	acc, err := r.findOne(ctx, `SELECT`+accountColumns+` FROM accounts WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if acc == nil {
		return nil, account.ErrAccountNotFound
	}
	return acc, nil
}

// ListLinkedByUserID lists a user's linked accounts, newest first
func (r *AccountRepository) ListLinkedByUserID(ctx context.Context, userID int64) ([]*account.Account, error) {
	accounts, err := r.queryAccounts(ctx,
		`SELECT`+accountColumns+` FROM accounts WHERE user_id = $1 AND is_linked ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked accounts: %w", err)
	}
	return accounts, nil
}

// ListLinked lists every linked account that holds a consent
func (r *AccountRepository) ListLinked(ctx context.Context) ([]*account.Account, error) {
	accounts, err := r.queryAccounts(ctx,
		`SELECT`+accountColumns+` FROM accounts WHERE is_linked AND consent_id IS NOT NULL ORDER BY consent_id, created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked accounts: %w", err)
	}
	return accounts, nil
}

func (r *AccountRepository) ListByConsentID(ctx context.Context, consentID string) ([]*account.Account, error) {
	accounts, err := r.queryAccounts(ctx,
		`SELECT`+accountColumns+` FROM accounts WHERE consent_id = $1 ORDER BY created_at`, consentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts by consent: %w", err)
	}
	return accounts, nil
}

func (r *AccountRepository) FindByConsent(ctx context.Context, userID int64, consentID, maskedAccNumber string) (*account.Account, error) {
	acc, err := r.findOne(ctx, `SELECT`+accountColumns+`
		FROM accounts
		WHERE user_id = $1 AND consent_id = $2 AND COALESCE(masked_acc_number, '') = $3
		LIMIT 1`, userID, consentID, maskedAccNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to find account by consent: %w", err)
	}
	return acc, nil
}

func (r *AccountRepository) FindByName(ctx context.Context, userID int64, name string) (*account.Account, error) {
	acc, err := r.findOne(ctx, `SELECT`+accountColumns+`
		FROM accounts
		WHERE user_id = $1 AND name = $2
		LIMIT 1`, userID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find account by name: %w", err)
	}
	return acc, nil
}

// MarkLinked re-links an existing account under a new ACTIVE consent
func (r *AccountRepository) MarkLinked(ctx context.Context, id string, params account.LinkParams) (*account.Account, error) {
	query := `
		UPDATE accounts
		SET is_linked = TRUE, consent_id = $2, consent_status = $3,
		    institution_name = $4, masked_acc_number = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING` + accountColumns

	acc, err := r.findOne(ctx, query, id, params.ConsentID, consent.StatusActive, params.InstitutionName, params.MaskedAccNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to mark account linked: %w", err)
	}
	if acc == nil {
		return nil, account.ErrAccountNotFound
	}
	return acc, nil
}

func (r *AccountRepository) UpdateSyncStatus(ctx context.Context, id string, status account.SyncStatus) error {
	return r.execOne(ctx, "update sync status",
		`UPDATE accounts SET sync_status = $2, updated_at = NOW() WHERE id = $1`, id, status)
}

func (r *AccountRepository) CompleteSync(ctx context.Context, id string, balance decimal.Decimal, syncedAt time.Time) error {
	return r.execOne(ctx, "complete sync", `
		UPDATE accounts
		SET balance = $2, last_synced_at = $3, sync_status = $4, updated_at = NOW()
		WHERE id = $1`, id, balance, syncedAt, account.SyncSynced)
}

// ApplyTransition sets only the fields the transition names on every account of the consent
func (r *AccountRepository) ApplyTransition(ctx context.Context, consentID string, t account.Transition) (int64, error) {
	if t.IsNoop() {
		return 0, nil
	}

	var sets []string
	args := []any{consentID}
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if t.ConsentStatus != nil {
		add("consent_status", *t.ConsentStatus)
	}
	if t.SyncStatus != nil {
		add("sync_status", *t.SyncStatus)
	}
	if t.IsLinked != nil {
		add("is_linked", *t.IsLinked)
	}
	sets = append(sets, "updated_at = NOW()")

	query := `UPDATE accounts SET ` + strings.Join(sets, ", ") + ` WHERE consent_id = $1`
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to apply consent transition: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// Unlink demotes an account to a manual one; its transactions stay
func (r *AccountRepository) Unlink(ctx context.Context, id string) error {
	return r.execOne(ctx, "unlink account", `
		UPDATE accounts
		SET is_linked = FALSE, consent_id = NULL, consent_status = $2,
		    sync_status = $3, updated_at = NOW()
		WHERE id = $1`, id, consent.StatusRevoked, account.SyncNever)
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, "delete account", `DELETE FROM accounts WHERE id = $1`, id)
}

// execOne runs a single-row statement and maps zero affected rows to ErrAccountNotFound.
func (r *AccountRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return account.ErrAccountNotFound
	}
	return nil
}
