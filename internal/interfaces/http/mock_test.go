package http

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"finlink/internal/domain/account"
	"finlink/internal/domain/consent"
	"finlink/internal/domain/transaction"
)

// MockAccountRepo is a mock implementation of account.Repository
type MockAccountRepo struct {
	CreateFunc             func(ctx context.Context, params account.CreateParams) (*account.Account, error)
	GetByIDFunc            func(ctx context.Context, id string) (*account.Account, error)
	ListLinkedByUserIDFunc func(ctx context.Context, userID int64) ([]*account.Account, error)
	ListLinkedFunc         func(ctx context.Context) ([]*account.Account, error)
	ListByConsentIDFunc    func(ctx context.Context, consentID string) ([]*account.Account, error)
	FindByConsentFunc      func(ctx context.Context, userID int64, consentID, masked string) (*account.Account, error)
	FindByNameFunc         func(ctx context.Context, userID int64, name string) (*account.Account, error)
	MarkLinkedFunc         func(ctx context.Context, id string, params account.LinkParams) (*account.Account, error)
	UpdateSyncStatusFunc   func(ctx context.Context, id string, status account.SyncStatus) error
	CompleteSyncFunc       func(ctx context.Context, id string, balance decimal.Decimal, syncedAt time.Time) error
	ApplyTransitionFunc    func(ctx context.Context, consentID string, t account.Transition) (int64, error)
	UnlinkFunc             func(ctx context.Context, id string) error
	DeleteFunc             func(ctx context.Context, id string) error
}

func (m *MockAccountRepo) Create(ctx context.Context, params account.CreateParams) (*account.Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id string) (*account.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, account.ErrAccountNotFound
}

func (m *MockAccountRepo) ListLinkedByUserID(ctx context.Context, userID int64) ([]*account.Account, error) {
	if m.ListLinkedByUserIDFunc != nil {
		return m.ListLinkedByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockAccountRepo) ListLinked(ctx context.Context) ([]*account.Account, error) {
	if m.ListLinkedFunc != nil {
		return m.ListLinkedFunc(ctx)
	}
	return nil, nil
}

func (m *MockAccountRepo) ListByConsentID(ctx context.Context, consentID string) ([]*account.Account, error) {
	if m.ListByConsentIDFunc != nil {
		return m.ListByConsentIDFunc(ctx, consentID)
	}
	return nil, nil
}

func (m *MockAccountRepo) FindByConsent(ctx context.Context, userID int64, consentID, masked string) (*account.Account, error) {
	if m.FindByConsentFunc != nil {
		return m.FindByConsentFunc(ctx, userID, consentID, masked)
	}
	return nil, nil
}

func (m *MockAccountRepo) FindByName(ctx context.Context, userID int64, name string) (*account.Account, error) {
	if m.FindByNameFunc != nil {
		return m.FindByNameFunc(ctx, userID, name)
	}
	return nil, nil
}

func (m *MockAccountRepo) MarkLinked(ctx context.Context, id string, params account.LinkParams) (*account.Account, error) {
	if m.MarkLinkedFunc != nil {
		return m.MarkLinkedFunc(ctx, id, params)
	}
	return nil, nil
}

func (m *MockAccountRepo) UpdateSyncStatus(ctx context.Context, id string, status account.SyncStatus) error {
	if m.UpdateSyncStatusFunc != nil {
		return m.UpdateSyncStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *MockAccountRepo) CompleteSync(ctx context.Context, id string, balance decimal.Decimal, syncedAt time.Time) error {
	if m.CompleteSyncFunc != nil {
		return m.CompleteSyncFunc(ctx, id, balance, syncedAt)
	}
	return nil
}

func (m *MockAccountRepo) ApplyTransition(ctx context.Context, consentID string, t account.Transition) (int64, error) {
	if m.ApplyTransitionFunc != nil {
		return m.ApplyTransitionFunc(ctx, consentID, t)
	}
	return 0, nil
}

func (m *MockAccountRepo) Unlink(ctx context.Context, id string) error {
	if m.UnlinkFunc != nil {
		return m.UnlinkFunc(ctx, id)
	}
	return nil
}

func (m *MockAccountRepo) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockTransactionRepo implements transaction.Repository for testing
type MockTransactionRepo struct {
	ExistsByExternalIDFunc func(ctx context.Context, accountID, externalID string) (bool, error)
	CreateFunc             func(ctx context.Context, tx *transaction.Transaction) error
	CountByAccountIDFunc   func(ctx context.Context, accountID string) (int64, error)
	DeleteByAccountIDFunc  func(ctx context.Context, accountID string) (int64, error)
}

func (m *MockTransactionRepo) ExistsByExternalID(ctx context.Context, accountID, externalID string) (bool, error) {
	if m.ExistsByExternalIDFunc != nil {
		return m.ExistsByExternalIDFunc(ctx, accountID, externalID)
	}
	return false, nil
}

func (m *MockTransactionRepo) Create(ctx context.Context, tx *transaction.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx)
	}
	return nil
}

func (m *MockTransactionRepo) CountByAccountID(ctx context.Context, accountID string) (int64, error) {
	if m.CountByAccountIDFunc != nil {
		return m.CountByAccountIDFunc(ctx, accountID)
	}
	return 0, nil
}

func (m *MockTransactionRepo) DeleteByAccountID(ctx context.Context, accountID string) (int64, error) {
	if m.DeleteByAccountIDFunc != nil {
		return m.DeleteByAccountIDFunc(ctx, accountID)
	}
	return 0, nil
}

// MockConsentClient implements consent.Client for testing
type MockConsentClient struct {
	CreateConsentFunc     func(ctx context.Context, mobile, redirectURL string) (*consent.Handle, error)
	GetConsentStatusFunc  func(ctx context.Context, consentID string) (*consent.Details, error)
	CreateDataSessionFunc func(ctx context.Context, consentID string, r consent.DataRange) (*consent.DataSession, error)
	FetchSessionDataFunc  func(ctx context.Context, sessionID string) (*consent.SessionData, error)
	RevokeConsentFunc     func(ctx context.Context, consentID string) (*consent.RevokeResult, error)
}

func (m *MockConsentClient) CreateConsent(ctx context.Context, mobile, redirectURL string) (*consent.Handle, error) {
	if m.CreateConsentFunc != nil {
		return m.CreateConsentFunc(ctx, mobile, redirectURL)
	}
	return nil, consent.ErrProviderNotConfigured
}

func (m *MockConsentClient) GetConsentStatus(ctx context.Context, consentID string) (*consent.Details, error) {
	if m.GetConsentStatusFunc != nil {
		return m.GetConsentStatusFunc(ctx, consentID)
	}
	return nil, consent.ErrProviderNotConfigured
}

func (m *MockConsentClient) CreateDataSession(ctx context.Context, consentID string, r consent.DataRange) (*consent.DataSession, error) {
	if m.CreateDataSessionFunc != nil {
		return m.CreateDataSessionFunc(ctx, consentID, r)
	}
	return &consent.DataSession{SessionID: "s-1", Status: consent.SessionPending}, nil
}

func (m *MockConsentClient) FetchSessionData(ctx context.Context, sessionID string) (*consent.SessionData, error) {
	if m.FetchSessionDataFunc != nil {
		return m.FetchSessionDataFunc(ctx, sessionID)
	}
	return &consent.SessionData{Status: consent.SessionCompleted}, nil
}

func (m *MockConsentClient) RevokeConsent(ctx context.Context, consentID string) (*consent.RevokeResult, error) {
	if m.RevokeConsentFunc != nil {
		return m.RevokeConsentFunc(ctx, consentID)
	}
	return &consent.RevokeResult{Success: true, Status: consent.StatusRevoked}, nil
}
