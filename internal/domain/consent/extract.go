package consent

// AccountData is one ready account pulled out of a session.
type AccountData struct {
	FipID           string          `json:"fipId"`
	Account         *AccountPayload `json:"account"`
	MaskedAccNumber string          `json:"maskedAccNumber"`
	LinkRefNumber   string          `json:"linkRefNumber"`
}

// SessionData is the usable result of a completed or partial session.
type SessionData struct {
	Status   SessionStatus `json:"status"`
	Data     []AccountData `json:"data"`
	FIPs     []FIP         `json:"fips"`
	Attempts int           `json:"attempts,omitempty"`
}

// ExtractReadyAccounts walks fips[].accounts[] and keeps accounts that are
// marked ready and carry data. Others are skipped silently.
func ExtractReadyAccounts(s *Session) []AccountData {
	if s == nil {
		return nil
	}

	var out []AccountData
	for _, fip := range s.FIPs {
		for _, acc := range fip.Accounts {
			if !acc.IsReady() {
				continue
			}
			out = append(out, AccountData{
				FipID:           fip.FipID,
				Account:         acc.Data.Account,
				MaskedAccNumber: acc.MaskedAccNumber,
				LinkRefNumber:   acc.LinkRefNumber,
			})
		}
	}
	return out
}

// NewSessionData builds the extraction result for a session snapshot.
func NewSessionData(s *Session) *SessionData {
	fips := s.FIPs
	if fips == nil {
		fips = []FIP{}
	}
	data := ExtractReadyAccounts(s)
	if data == nil {
		data = []AccountData{}
	}
	return &SessionData{
		Status: s.Status,
		Data:   data,
		FIPs:   fips,
	}
}
