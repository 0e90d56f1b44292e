package setu

import (
	"fmt"
	"time"

	"finlink/internal/domain/consent"
)

const (
	ModeDirect = "direct"
	ModeRelay  = "relay"
)

// Error codes shared with the relay's poll endpoint.
const (
	codeSessionFailed  = "SESSION_FAILED"
	codeSessionExpired = "SESSION_EXPIRED"
	codeSessionTimeout = "SESSION_TIMEOUT"
)

// SessionFailureCode returns the relay code for a poll failure.
func SessionFailureCode(status consent.SessionStatus) string {
	if status == consent.SessionExpired {
		return codeSessionExpired
	}
	return codeSessionFailed
}

// SessionTimeoutCode is the relay code for an exhausted poll.
const SessionTimeoutCode = codeSessionTimeout

// Config selects and configures a consent.Client.
type Config struct {
	Mode         string
	Credentials  Credentials
	RelayURL     string
	Timeout      time.Duration
	PollAttempts int
	PollInterval time.Duration
}

// NewClient returns the client for cfg.Mode. An empty mode means direct.
func NewClient(cfg Config) (consent.Client, error) {
	switch cfg.Mode {
	case ModeRelay:
		poller := consent.NewPoller(cfg.PollAttempts, cfg.PollInterval)
		// The relay holds the poll request open for up to attempts*interval.
		timeout := cfg.Timeout
		if wait := time.Duration(poller.MaxAttempts)*poller.Interval + DefaultTimeout; timeout < wait {
			timeout = wait
		}
		return NewRelayClient(cfg.RelayURL, WithTimeout(timeout), WithPoller(poller)), nil
	case ModeDirect, "":
		return NewDirectClient(cfg.Credentials,
			WithTimeout(cfg.Timeout),
			WithPoller(consent.NewPoller(cfg.PollAttempts, cfg.PollInterval)),
		), nil
	default:
		return nil, fmt.Errorf("unknown provider mode %q", cfg.Mode)
	}
}
