package account

import "finlink/internal/domain/consent"

// Transition lists the fields a webhook event overwrites. Nil fields are left alone.
type Transition struct {
	ConsentStatus *consent.Status
	SyncStatus    *SyncStatus
	IsLinked      *bool
}

// IsNoop reports whether the transition changes nothing.
func (t Transition) IsNoop() bool {
	return t.ConsentStatus == nil && t.SyncStatus == nil && t.IsLinked == nil
}

// Apply mutates a in place. Applying the same transition twice is the same as once.
func (t Transition) Apply(a *Account) {
	if t.ConsentStatus != nil {
		a.ConsentStatus = *t.ConsentStatus
	}
	if t.SyncStatus != nil {
		a.SyncStatus = *t.SyncStatus
	}
	if t.IsLinked != nil {
		a.IsLinked = *t.IsLinked
	}
}

func setConsent(s consent.Status) *consent.Status { return &s }
func setSync(s SyncStatus) *SyncStatus            { return &s }
func setLinked(v bool) *bool                      { return &v }

var transitions = map[consent.EventType]Transition{
	consent.EventConsentApproved:  {ConsentStatus: setConsent(consent.StatusActive)},
	consent.EventConsentActive:    {ConsentStatus: setConsent(consent.StatusActive)},
	consent.EventConsentRejected:  {ConsentStatus: setConsent(consent.StatusRejected)},
	consent.EventConsentRevoked:   {ConsentStatus: setConsent(consent.StatusRevoked), SyncStatus: setSync(SyncNever), IsLinked: setLinked(false)},
	consent.EventConsentExpired:   {ConsentStatus: setConsent(consent.StatusExpired), SyncStatus: setSync(SyncError), IsLinked: setLinked(false)},
	consent.EventFIReady:          {},
	consent.EventSessionCompleted: {SyncStatus: setSync(SyncSynced)},
	consent.EventSessionFailed:    {SyncStatus: setSync(SyncError)},
}

// TransitionFor looks up the event. ok is false for unrecognized types.
func TransitionFor(event consent.EventType) (t Transition, ok bool) {
	t, ok = transitions[event]
	return t, ok
}
