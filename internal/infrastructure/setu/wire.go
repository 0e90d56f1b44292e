package setu

import (
	"encoding/json"
	"strings"

	"finlink/internal/domain/consent"
)

type consentDuration struct {
	Unit  string `json:"unit"`
	Value int    `json:"value"`
}

type contextEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type consentRequest struct {
	ConsentDuration consentDuration   `json:"consentDuration"`
	VUA             string            `json:"vua"`
	DataRange       consent.DataRange `json:"dataRange"`
	Context         []contextEntry    `json:"context"`
	RedirectURL     string            `json:"redirectUrl"`
}

type consentResponse struct {
	ID     string         `json:"id"`
	URL    string         `json:"url"`
	Status consent.Status `json:"status"`
}

type consentDetail struct {
	DataRange    *consent.DataRange `json:"dataRange"`
	ConsentStart string             `json:"consentStart"`
}

// consentStatusResponse tolerates every range and account shape seen so far.
type consentStatusResponse struct {
	ID             string                  `json:"id"`
	Status         consent.Status          `json:"status"`
	AccountsLinked []consent.LinkedAccount `json:"accountsLinked"`
	Accounts       []consent.LinkedAccount `json:"accounts"`
	Detail         *consentDetail          `json:"detail"`
	FIDataRange    *consent.DataRange      `json:"fiDataRange"`
	DataRange      *consent.DataRange      `json:"dataRange"`
}

func (r *consentStatusResponse) toDetails() *consent.Details {
	var detailRange *consent.DataRange
	var consentStart string
	if r.Detail != nil {
		detailRange = r.Detail.DataRange
		consentStart = r.Detail.ConsentStart
	}

	accounts := r.AccountsLinked
	if accounts == nil {
		accounts = r.Accounts
	}
	if accounts == nil {
		accounts = []consent.LinkedAccount{}
	}

	return &consent.Details{
		ConsentID:   r.ID,
		Status:      r.Status,
		Accounts:    accounts,
		FIDataRange: consent.ResolveDataRange([]*consent.DataRange{detailRange, r.FIDataRange, r.DataRange}, consentStart),
	}
}

type sessionRequest struct {
	ConsentID string            `json:"consentId"`
	Format    string            `json:"format"`
	DataRange consent.DataRange `json:"dataRange"`
}

type sessionResponse struct {
	ID     string                `json:"id"`
	Status consent.SessionStatus `json:"status"`
}

type revokeResponse struct {
	Status consent.Status `json:"status"`
}

// errorBody covers the provider's and the relay's error shapes.
type errorBody struct {
	ErrorMsg string          `json:"errorMsg"`
	Message  string          `json:"message"`
	Error    json.RawMessage `json:"error"`
	Code     string          `json:"code"`
}

// message picks errorMsg, then message, then error, then the raw body.
func (e *errorBody) message(raw []byte) string {
	if e.ErrorMsg != "" {
		return e.ErrorMsg
	}
	if e.Message != "" {
		return e.Message
	}
	if len(e.Error) > 0 {
		var s string
		if err := json.Unmarshal(e.Error, &s); err == nil && s != "" {
			return s
		}
		if string(e.Error) != "null" {
			return string(e.Error)
		}
	}
	return truncate(strings.TrimSpace(string(raw)), 200)
}

// relayMessage prefers the relay's summary and appends its detail.
func (e *errorBody) relayMessage(raw []byte) string {
	var summary string
	if len(e.Error) > 0 {
		_ = json.Unmarshal(e.Error, &summary)
	}
	switch {
	case summary != "" && e.Message != "" && e.Message != summary:
		return summary + ": " + e.Message
	case summary != "":
		return summary
	case e.Message != "":
		return e.Message
	}
	return truncate(strings.TrimSpace(string(raw)), 200)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
