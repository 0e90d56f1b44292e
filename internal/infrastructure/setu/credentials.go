package setu

import (
	"fmt"

	"finlink/internal/domain/consent"
)

const (
	SandboxURL    = "https://fiu-sandbox.setu.co"
	ProductionURL = "https://fiu.setu.co"

	EnvSandbox    = "sandbox"
	EnvProduction = "production"

	// sandboxFIP is the provider's test institution; approvals in sandbox need it pinned.
	sandboxFIP = "setu-fip-2"
)

// Credentials are the static provider credentials sent on every call.
type Credentials struct {
	ClientID          string
	ClientSecret      string
	ProductInstanceID string
	Environment       string
	// BaseURL overrides the environment's host when set.
	BaseURL string
}

// IsProduction reports whether requests target the production host.
func (c Credentials) IsProduction() bool {
	return c.Environment == EnvProduction
}

// URL returns the API host for the configured environment.
func (c Credentials) URL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	if c.IsProduction() {
		return ProductionURL
	}
	return SandboxURL
}

// Validate is called on first use rather than at startup.
func (c Credentials) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" || c.ProductInstanceID == "" {
		return fmt.Errorf("%w: missing client id, client secret or product instance id", consent.ErrProviderNotConfigured)
	}
	return nil
}
