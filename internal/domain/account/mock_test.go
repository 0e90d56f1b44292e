package account

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// MockRepository is a mock implementation of Repository interface
type MockRepository struct {
	CreateFunc             func(ctx context.Context, params CreateParams) (*Account, error)
	GetByIDFunc            func(ctx context.Context, id string) (*Account, error)
	ListLinkedByUserIDFunc func(ctx context.Context, userID int64) ([]*Account, error)
	ListLinkedFunc         func(ctx context.Context) ([]*Account, error)
	ListByConsentIDFunc    func(ctx context.Context, consentID string) ([]*Account, error)
	FindByConsentFunc      func(ctx context.Context, userID int64, consentID, masked string) (*Account, error)
	FindByNameFunc         func(ctx context.Context, userID int64, name string) (*Account, error)
	MarkLinkedFunc         func(ctx context.Context, id string, params LinkParams) (*Account, error)
	UpdateSyncStatusFunc   func(ctx context.Context, id string, status SyncStatus) error
	CompleteSyncFunc       func(ctx context.Context, id string, balance decimal.Decimal, syncedAt time.Time) error
	ApplyTransitionFunc    func(ctx context.Context, consentID string, t Transition) (int64, error)
	UnlinkFunc             func(ctx context.Context, id string) error
	DeleteFunc             func(ctx context.Context, id string) error
}

func (m *MockRepository) Create(ctx context.Context, params CreateParams) (*Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, ErrAccountNotFound
}

func (m *MockRepository) ListLinkedByUserID(ctx context.Context, userID int64) ([]*Account, error) {
	if m.ListLinkedByUserIDFunc != nil {
		return m.ListLinkedByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockRepository) ListLinked(ctx context.Context) ([]*Account, error) {
	if m.ListLinkedFunc != nil {
		return m.ListLinkedFunc(ctx)
	}
	return nil, nil
}

func (m *MockRepository) ListByConsentID(ctx context.Context, consentID string) ([]*Account, error) {
	if m.ListByConsentIDFunc != nil {
		return m.ListByConsentIDFunc(ctx, consentID)
	}
	return nil, nil
}

func (m *MockRepository) FindByConsent(ctx context.Context, userID int64, consentID, masked string) (*Account, error) {
	if m.FindByConsentFunc != nil {
		return m.FindByConsentFunc(ctx, userID, consentID, masked)
	}
	return nil, nil
}

func (m *MockRepository) FindByName(ctx context.Context, userID int64, name string) (*Account, error) {
	if m.FindByNameFunc != nil {
		return m.FindByNameFunc(ctx, userID, name)
	}
	return nil, nil
}

func (m *MockRepository) MarkLinked(ctx context.Context, id string, params LinkParams) (*Account, error) {
	if m.MarkLinkedFunc != nil {
		return m.MarkLinkedFunc(ctx, id, params)
	}
	return nil, nil
}

func (m *MockRepository) UpdateSyncStatus(ctx context.Context, id string, status SyncStatus) error {
	if m.UpdateSyncStatusFunc != nil {
		return m.UpdateSyncStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *MockRepository) CompleteSync(ctx context.Context, id string, balance decimal.Decimal, syncedAt time.Time) error {
	if m.CompleteSyncFunc != nil {
		return m.CompleteSyncFunc(ctx, id, balance, syncedAt)
	}
	return nil
}

func (m *MockRepository) ApplyTransition(ctx context.Context, consentID string, t Transition) (int64, error) {
	if m.ApplyTransitionFunc != nil {
		return m.ApplyTransitionFunc(ctx, consentID, t)
	}
	return 0, nil
}

func (m *MockRepository) Unlink(ctx context.Context, id string) error {
	if m.UnlinkFunc != nil {
		return m.UnlinkFunc(ctx, id)
	}
	return nil
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}
