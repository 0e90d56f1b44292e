package aggregator

import (
	"context"
	"log"
	"net/url"
	"strings"

	"finlink/internal/domain/account"
	"finlink/internal/domain/consent"
)

const (
	dashboardPath = "/dashboard"
	signInPath    = "/sign-in"

	defaultRejection = "Consent was not approved"
)

// CallbackParams are the query parameters of the approval redirect.
type CallbackParams struct {
	ConsentID string
	Success   string
	ErrorCode string
	ErrorMsg  string
}

// ParseCallback reads id (or consent_id), success, errorcode and errormsg.
func ParseCallback(q url.Values) CallbackParams {
	id := q.Get("id")
	if id == "" {
		id = q.Get("consent_id")
	}
	return CallbackParams{
		ConsentID: id,
		Success:   q.Get("success"),
		ErrorCode: q.Get("errorcode"),
		ErrorMsg:  q.Get("errormsg"),
	}
}

// CallbackOutcome tells the HTTP layer where to send the browser.
type CallbackOutcome struct {
	Redirect string
	Accounts []*account.Account
}

// LinkService handles the consent approval callback
type LinkService struct {
	client     consent.Client
	accountSvc *account.Service
	sync       *SyncService
}

// NewLinkService creates a new link service
func NewLinkService(client consent.Client, accounts account.Repository, sync *SyncService) *LinkService {
	return &LinkService{
		client:     client,
		accountSvc: account.NewService(accounts),
		sync:       sync,
	}
}

// HandleCallback verifies the consent, links each approved account and runs the
// first sync. A userID of zero means the caller is not signed in.
func (s *LinkService) HandleCallback(ctx context.Context, userID int64, p CallbackParams) CallbackOutcome {
	if p.ConsentID == "" {
		log.Printf("[Callback] missing consent id")
		return redirectError("missing_consent_id", "")
	}

	if p.Success == "false" {
		reason := p.ErrorMsg
		if reason == "" {
			reason = defaultRejection
		}
		log.Printf("[Callback] consent %s rejected: %s %s", p.ConsentID, p.ErrorCode, reason)
		return redirectError("consent_rejected", reason)
	}

	if userID <= 0 {
		log.Printf("[Callback] no user session for consent %s", p.ConsentID)
		return CallbackOutcome{Redirect: signInPath}
	}

	details, err := s.client.GetConsentStatus(ctx, p.ConsentID)
	if err != nil {
		log.Printf("[Callback] failed to get consent status for %s: %v", p.ConsentID, err)
		return redirectError("callback_failed", "")
	}

	if details.Status != consent.StatusActive {
		log.Printf("[Callback] consent %s not active: %s", p.ConsentID, details.Status)
		return redirectError("consent_"+strings.ToLower(string(details.Status)), "")
	}

	if len(details.Accounts) == 0 {
		log.Printf("[Callback] consent %s is active but lists no accounts", p.ConsentID)
		return redirectError("no_accounts", "")
	}

	linked := make([]*account.Account, 0, len(details.Accounts))
	for _, la := range details.Accounts {
		acc, err := s.accountSvc.UpsertFromConsent(ctx, userID, p.ConsentID, la)
		if err != nil {
			log.Printf("[Callback] failed to link %s for consent %s: %v", la.MaskedAccNumber, p.ConsentID, err)
			continue
		}
		linked = append(linked, acc)
	}
	if len(linked) == 0 {
		return redirectError("link_failed", "")
	}

	log.Printf("[Callback] consent %s linked %d account(s) for user %d", p.ConsentID, len(linked), userID)
	if s.sync.notifier != nil {
		s.sync.notifier.AccountsLinked(ctx, userID, len(linked))
	}

	outcome := CallbackOutcome{Accounts: linked}
	if _, err := s.sync.SyncConsent(ctx, p.ConsentID, linked, len(linked) == 1); err != nil {
		log.Printf("[Callback] initial sync for consent %s failed: %v", p.ConsentID, err)
		outcome.Redirect = dashboardPath + "?" + url.Values{
			"success": {"bank_linked"},
			"warning": {"sync_failed"},
		}.Encode()
		return outcome
	}

	outcome.Redirect = dashboardPath + "?success=bank_linked"
	return outcome
}

func redirectError(code, message string) CallbackOutcome {
	q := url.Values{"error": {code}}
	if message != "" {
		q.Set("message", message)
	}
	return CallbackOutcome{Redirect: dashboardPath + "?" + q.Encode()}
}
