package aggregator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"finlink/internal/domain/account"
	"finlink/internal/domain/consent"
	"finlink/internal/domain/transaction"
)

// MockClient implements consent.Client for testing
type MockClient struct {
	CreateConsentFunc     func(ctx context.Context, mobile, redirectURL string) (*consent.Handle, error)
	GetConsentStatusFunc  func(ctx context.Context, consentID string) (*consent.Details, error)
	CreateDataSessionFunc func(ctx context.Context, consentID string, r consent.DataRange) (*consent.DataSession, error)
	FetchSessionDataFunc  func(ctx context.Context, sessionID string) (*consent.SessionData, error)
	RevokeConsentFunc     func(ctx context.Context, consentID string) (*consent.RevokeResult, error)

	SessionRanges []consent.DataRange
	Revoked       []string
}

func (m *MockClient) CreateConsent(ctx context.Context, mobile, redirectURL string) (*consent.Handle, error) {
	if m.CreateConsentFunc != nil {
		return m.CreateConsentFunc(ctx, mobile, redirectURL)
	}
	return &consent.Handle{ConsentID: "c-1", Status: consent.StatusPending}, nil
}

func (m *MockClient) GetConsentStatus(ctx context.Context, consentID string) (*consent.Details, error) {
	if m.GetConsentStatusFunc != nil {
		return m.GetConsentStatusFunc(ctx, consentID)
	}
	return &consent.Details{ConsentID: consentID, Status: consent.StatusActive, FIDataRange: testRange}, nil
}

func (m *MockClient) CreateDataSession(ctx context.Context, consentID string, r consent.DataRange) (*consent.DataSession, error) {
	m.SessionRanges = append(m.SessionRanges, r)
	if m.CreateDataSessionFunc != nil {
		return m.CreateDataSessionFunc(ctx, consentID, r)
	}
	return &consent.DataSession{SessionID: "s-1", Status: consent.SessionPending}, nil
}

func (m *MockClient) FetchSessionData(ctx context.Context, sessionID string) (*consent.SessionData, error) {
	if m.FetchSessionDataFunc != nil {
		return m.FetchSessionDataFunc(ctx, sessionID)
	}
	return &consent.SessionData{Status: consent.SessionCompleted, Data: []consent.AccountData{}}, nil
}

func (m *MockClient) RevokeConsent(ctx context.Context, consentID string) (*consent.RevokeResult, error) {
	m.Revoked = append(m.Revoked, consentID)
	if m.RevokeConsentFunc != nil {
		return m.RevokeConsentFunc(ctx, consentID)
	}
	return &consent.RevokeResult{Success: true, Status: consent.StatusRevoked}, nil
}

var testRange = consent.DataRange{From: "2024-03-10T12:00:00.000Z", To: "2025-03-10T12:00:00.000Z"}

// memAccounts is an in-memory account.Repository.
type memAccounts struct {
	mu       sync.Mutex
	rows     map[string]*account.Account
	statuses map[string][]account.SyncStatus
	failSync error
}

func newMemAccounts(seed ...*account.Account) *memAccounts {
	m := &memAccounts{rows: map[string]*account.Account{}, statuses: map[string][]account.SyncStatus{}}
	for _, a := range seed {
		cp := *a
		if cp.SyncStatus == "" {
			cp.SyncStatus = account.SyncNever
		}
		m.rows[a.ID] = &cp
	}
	return m
}

func (m *memAccounts) get(id string) *account.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

func (m *memAccounts) list(keep func(*account.Account) bool) []*account.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*account.Account{}
	for _, a := range m.rows {
		if keep(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memAccounts) Create(_ context.Context, p account.CreateParams) (*account.Account, error) {
	m.mu.Lock()
	acc := &account.Account{
		ID: p.ID, UserID: p.UserID, Name: p.Name, Type: p.Type, IsLinked: true,
		ConsentID: p.ConsentID, ConsentStatus: consent.StatusActive,
		InstitutionName: p.InstitutionName, MaskedAccNumber: p.MaskedAccNumber,
		SyncStatus: account.SyncNever, Balance: decimal.Zero,
	}
	m.rows[p.ID] = acc
	m.mu.Unlock()
	return m.get(p.ID), nil
}

func (m *memAccounts) GetByID(_ context.Context, id string) (*account.Account, error) {
	if a := m.get(id); a != nil {
		return a, nil
	}
	return nil, account.ErrAccountNotFound
}

func (m *memAccounts) ListLinkedByUserID(_ context.Context, userID int64) ([]*account.Account, error) {
	return m.list(func(a *account.Account) bool { return a.UserID == userID && a.IsLinked }), nil
}

func (m *memAccounts) ListLinked(_ context.Context) ([]*account.Account, error) {
	return m.list(func(a *account.Account) bool { return a.IsLinked && a.ConsentID != "" }), nil
}

func (m *memAccounts) ListByConsentID(_ context.Context, consentID string) ([]*account.Account, error) {
	return m.list(func(a *account.Account) bool { return a.ConsentID == consentID }), nil
}

func (m *memAccounts) FindByConsent(_ context.Context, userID int64, consentID, masked string) (*account.Account, error) {
	found := m.list(func(a *account.Account) bool {
		return a.UserID == userID && a.ConsentID == consentID && a.MaskedAccNumber == masked
	})
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (m *memAccounts) FindByName(_ context.Context, userID int64, name string) (*account.Account, error) {
	found := m.list(func(a *account.Account) bool { return a.UserID == userID && a.Name == name })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (m *memAccounts) MarkLinked(_ context.Context, id string, p account.LinkParams) (*account.Account, error) {
	m.mu.Lock()
	a, ok := m.rows[id]
	if ok {
		a.IsLinked = true
		a.ConsentID = p.ConsentID
		a.ConsentStatus = consent.StatusActive
		a.InstitutionName = p.InstitutionName
		a.MaskedAccNumber = p.MaskedAccNumber
	}
	m.mu.Unlock()
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	return m.get(id), nil
}

func (m *memAccounts) UpdateSyncStatus(_ context.Context, id string, status account.SyncStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return account.ErrAccountNotFound
	}
	a.SyncStatus = status
	m.statuses[id] = append(m.statuses[id], status)
	return nil
}

func (m *memAccounts) CompleteSync(_ context.Context, id string, balance decimal.Decimal, syncedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSync != nil {
		return m.failSync
	}
	a, ok := m.rows[id]
	if !ok {
		return account.ErrAccountNotFound
	}
	a.Balance = balance
	a.LastSyncedAt = &syncedAt
	a.SyncStatus = account.SyncSynced
	m.statuses[id] = append(m.statuses[id], account.SyncSynced)
	return nil
}

func (m *memAccounts) ApplyTransition(_ context.Context, consentID string, t account.Transition) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, a := range m.rows {
		if a.ConsentID == consentID {
			t.Apply(a)
			n++
		}
	}
	return n, nil
}

func (m *memAccounts) Unlink(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return account.ErrAccountNotFound
	}
	a.IsLinked = false
	a.ConsentID = ""
	a.ConsentStatus = consent.StatusRevoked
	a.SyncStatus = account.SyncNever
	return nil
}

func (m *memAccounts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return account.ErrAccountNotFound
	}
	delete(m.rows, id)
	return nil
}

// memLedger is an in-memory transaction.Repository keyed by account and externalId.
type memLedger struct {
	mu   sync.Mutex
	rows map[string]*transaction.Transaction
}

func newMemLedger() *memLedger {
	return &memLedger{rows: map[string]*transaction.Transaction{}}
}

func ledgerKey(accountID, externalID string) string {
	return accountID + "/" + externalID
}

func (l *memLedger) ExistsByExternalID(_ context.Context, accountID, externalID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.rows[ledgerKey(accountID, externalID)]
	return ok, nil
}

func (l *memLedger) Create(_ context.Context, tx *transaction.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := ledgerKey(tx.AccountID, tx.ExternalID)
	if _, ok := l.rows[key]; ok {
		return transaction.ErrDuplicate
	}
	l.rows[key] = tx
	return nil
}

func (l *memLedger) CountByAccountID(_ context.Context, accountID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	for _, tx := range l.rows {
		if tx.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

func (l *memLedger) DeleteByAccountID(_ context.Context, accountID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	for k, tx := range l.rows {
		if tx.AccountID == accountID {
			delete(l.rows, k)
			n++
		}
	}
	return n, nil
}

// recordingNotifier captures notifications.
type recordingNotifier struct {
	linked []int
	synced map[string]int
}

func (r *recordingNotifier) AccountsLinked(_ context.Context, _ int64, count int) {
	r.linked = append(r.linked, count)
}

func (r *recordingNotifier) SyncCompleted(_ context.Context, acc *account.Account, inserted int) {
	if r.synced == nil {
		r.synced = map[string]int{}
	}
	r.synced[acc.ID] += inserted
}

// statement builds session data for one masked account.
func statement(fip, masked string, lines ...consent.ProviderTransaction) consent.AccountData {
	return consent.AccountData{
		FipID:           fip,
		MaskedAccNumber: masked,
		Account: &consent.AccountPayload{
			MaskedAccNumber: masked,
			Transactions:    &consent.TransactionList{Transaction: lines},
		},
	}
}

func line(id, typ, amount string) consent.ProviderTransaction {
	return consent.ProviderTransaction{
		TxnID:                id,
		Type:                 typ,
		Amount:               consent.FlexString(amount),
		Narration:            "UPI/" + id,
		TransactionTimestamp: "2025-02-01T10:00:00.000Z",
	}
}

func sessionWith(data ...consent.AccountData) func(context.Context, string) (*consent.SessionData, error) {
	return func(context.Context, string) (*consent.SessionData, error) {
		return &consent.SessionData{Status: consent.SessionCompleted, Data: data, FIPs: []consent.FIP{}}, nil
	}
}
