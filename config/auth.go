package config

import (
	"fmt"
	"strings"
)

// TriggerAuthMode selects how callers of the run trigger are authenticated.
type TriggerAuthMode string

const (
	// TriggerAuthNone accepts every caller (development only).
	TriggerAuthNone TriggerAuthMode = "none"
	// TriggerAuthToken requires a static bearer token.
	TriggerAuthToken TriggerAuthMode = "token"
	// TriggerAuthOIDC requires a bearer ID token issued by the configured OIDC issuer.
	TriggerAuthOIDC TriggerAuthMode = "oidc"
)

// UnmarshalText implements encoding.TextUnmarshaler for TriggerAuthMode.
func (m *TriggerAuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "none", "token", "oidc":
		*m = TriggerAuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid TriggerAuthMode: %q (valid options: none, token, oidc)", v)
	}
}

// TriggerAuthConfig groups authentication settings for the run trigger endpoint.
// Read endpoints share the same guard.
type TriggerAuthConfig struct {
	Mode TriggerAuthMode `env:"TRIGGER_AUTH_MODE" envDefault:"none"`

	// Token is the shared secret used when Mode=token.
	Token string `env:"TRIGGER_AUTH_TOKEN"`

	// OIDC settings used when Mode=oidc.
	OIDC TriggerOIDCConfig `envPrefix:"TRIGGER_OIDC_"`
}

// TriggerOIDCConfig contains the issuer and audience expected on trigger ID tokens.
type TriggerOIDCConfig struct {
	IssuerURL string `env:"ISSUER_URL"`
	Audience  string `env:"AUDIENCE"`
	// AllowedEmails optionally restricts the token's email claim (e.g. a scheduler service account).
	AllowedEmails []string `env:"ALLOWED_EMAILS" envSeparator:";"`
}

// Sanitize normalises auth configuration values.
func (a *TriggerAuthConfig) Sanitize() {
	if a.Mode == "" {
		a.Mode = TriggerAuthNone
	}
	a.Token = strings.TrimSpace(a.Token)
	a.OIDC.IssuerURL = strings.TrimSpace(a.OIDC.IssuerURL)
	a.OIDC.Audience = strings.TrimSpace(a.OIDC.Audience)

	emails := make([]string, 0, len(a.OIDC.AllowedEmails))
	for _, e := range a.OIDC.AllowedEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			emails = append(emails, e)
		}
	}
	a.OIDC.AllowedEmails = emails
}

// Validate reports configuration that cannot authenticate any caller.
func (a *TriggerAuthConfig) Validate() error {
	switch a.Mode {
	case TriggerAuthToken:
		if a.Token == "" {
			return fmt.Errorf("TRIGGER_AUTH_TOKEN is required when TRIGGER_AUTH_MODE=%s", a.Mode)
		}
	case TriggerAuthOIDC:
		if a.OIDC.IssuerURL == "" || a.OIDC.Audience == "" {
			return fmt.Errorf(
				"TRIGGER_OIDC_ISSUER_URL and TRIGGER_OIDC_AUDIENCE are required when TRIGGER_AUTH_MODE=%s",
				a.Mode,
			)
		}
	case TriggerAuthNone:
	}
	return nil
}
