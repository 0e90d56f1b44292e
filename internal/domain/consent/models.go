package consent

import (
	"encoding/json"
	"strings"
)

// Status is the lifecycle state of a consent at the provider.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusActive   Status = "ACTIVE"
	StatusRejected Status = "REJECTED"
	StatusRevoked  Status = "REVOKED"
	StatusExpired  Status = "EXPIRED"
)

// IsTerminal reports whether no further data sessions may be created.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusRevoked, StatusExpired:
		return true
	}
	return false
}

// SessionStatus is the state of an ephemeral data session.
type SessionStatus string

const (
	SessionPending   SessionStatus = "PENDING"
	SessionCompleted SessionStatus = "COMPLETED"
	SessionPartial   SessionStatus = "PARTIAL"
	SessionFailed    SessionStatus = "FAILED"
	SessionExpired   SessionStatus = "EXPIRED"
)

// HasData reports whether at least some account data can be extracted.
func (s SessionStatus) HasData() bool {
	return s == SessionCompleted || s == SessionPartial
}

// DataRange is the exact window the provider agreed to share. Values are kept
// verbatim because the provider rejects session requests with a different range.
type DataRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// IsComplete reports whether both bounds are present.
func (r DataRange) IsComplete() bool {
	return strings.TrimSpace(r.From) != "" && strings.TrimSpace(r.To) != ""
}

// Handle is returned when a consent request is created.
type Handle struct {
	ConsentID   string `json:"consentId"`
	RedirectURL string `json:"redirectUrl"`
	Status      Status `json:"status"`
}

// LinkedAccount is an account the user selected while approving a consent.
type LinkedAccount struct {
	MaskedAccNumber string `json:"maskedAccNumber"`
	AccType         string `json:"accType"`
	FipID           string `json:"fipId"`
	LinkRefNumber   string `json:"linkRefNumber,omitempty"`
}

// Details is the normalized consent status.
type Details struct {
	ConsentID   string          `json:"id"`
	Status      Status          `json:"status"`
	Accounts    []LinkedAccount `json:"accounts"`
	FIDataRange DataRange       `json:"fiDataRange"`
}

// DataSession identifies a created fetch session.
type DataSession struct {
	SessionID string        `json:"sessionId"`
	Status    SessionStatus `json:"status"`
}

// RevokeResult is returned by a revocation call.
type RevokeResult struct {
	Success bool   `json:"success"`
	Status  Status `json:"status"`
}

// Session is the provider's view of a data session.
type Session struct {
	ID     string        `json:"id"`
	Status SessionStatus `json:"status"`
	FIPs   []FIP         `json:"fips"`
}

// FIP groups the accounts served by one financial information provider.
type FIP struct {
	FipID    string       `json:"fipID"`
	Accounts []FIPAccount `json:"accounts"`
}

// FIPAccount carries per-account readiness and, once ready, its data.
type FIPAccount struct {
	FIStatus        string          `json:"FIstatus"`
	MaskedAccNumber string          `json:"maskedAccNumber"`
	LinkRefNumber   string          `json:"linkRefNumber"`
	Data            *FIPAccountData `json:"data,omitempty"`
}

const fiStatusReady = "READY"

// IsReady reports whether the account was marked ready and carries a payload.
func (a FIPAccount) IsReady() bool {
	return a.FIStatus == fiStatusReady && a.Data != nil
}

type FIPAccountData struct {
	Account *AccountPayload `json:"account"`
}

type AccountPayload struct {
	Type            string           `json:"type,omitempty"`
	MaskedAccNumber string           `json:"maskedAccNumber,omitempty"`
	LinkedAccRef    string           `json:"linkedAccRef,omitempty"`
	Transactions    *TransactionList `json:"transactions,omitempty"`
}

type TransactionList struct {
	StartDate   string                `json:"startDate,omitempty"`
	EndDate     string                `json:"endDate,omitempty"`
	Transaction []ProviderTransaction `json:"transaction"`
}

// ProviderTransaction is one raw statement line as delivered by the provider.
type ProviderTransaction struct {
	TxnID                string     `json:"txnId,omitempty"`
	Type                 string     `json:"type"`
	Mode                 string     `json:"mode,omitempty"`
	Amount               FlexString `json:"amount"`
	CurrentBalance       FlexString `json:"currentBalance,omitempty"`
	TransactionTimestamp string     `json:"transactionTimestamp,omitempty"`
	ValueDate            string     `json:"valueDate,omitempty"`
	Narration            string     `json:"narration,omitempty"`
	Description          string     `json:"description,omitempty"`
	Reference            string     `json:"reference,omitempty"`
}

// TransactionLines returns the statement lines, tolerating missing containers.
func (p *AccountPayload) TransactionLines() []ProviderTransaction {
	if p == nil || p.Transactions == nil {
		return nil
	}
	return p.Transactions.Transaction
}

// FlexString decodes either a JSON string or a JSON number into text.
// Providers have shipped amounts in both forms.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(b)
	return nil
}

func (f FlexString) String() string {
	return string(f)
}
