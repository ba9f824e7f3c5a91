// Package oidc verifies bearer ID tokens presented to the run trigger.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// ErrEmailNotAllowed is returned when a valid token's email is not on the allow list.
var ErrEmailNotAllowed = errors.New("token email is not allowed")

// Caller is the identity extracted from a verified ID token.
type Caller struct {
	Subject       string
	Email         string
	EmailVerified bool
}

// VerifierConfig holds configuration for the ID token verifier.
type VerifierConfig struct {
	IssuerURL string
	Audience  string
	// AllowedEmails restricts callers by the token's email claim. Empty allows any caller.
	AllowedEmails []string
	HTTPClient    *http.Client // Optional
}

// Verifier checks issuer, audience, expiry and signature of bearer ID tokens.
type Verifier struct {
	verifier      *gooidc.IDTokenVerifier
	allowedEmails []string
}

// NewVerifier discovers the issuer's keys and builds a Verifier.
func NewVerifier(ctx context.Context, cfg VerifierConfig) (*Verifier, error) {
	if strings.TrimSpace(cfg.IssuerURL) == "" {
		return nil, errors.New("issuer URL is required")
	}
	if strings.TrimSpace(cfg.Audience) == "" {
		return nil, errors.New("audience is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	// go-oidc reuses this client for discovery and for later JWKS refreshes.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(strings.TrimSpace(cfg.IssuerURL), "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	return newVerifier(op.Verifier(&gooidc.Config{ClientID: cfg.Audience}), cfg.AllowedEmails), nil
}

// NewVerifierWithKeySet builds a Verifier against a fixed key set, skipping discovery.
func NewVerifierWithKeySet(issuer string, keySet gooidc.KeySet, cfg VerifierConfig) *Verifier {
	return newVerifier(gooidc.NewVerifier(issuer, keySet, &gooidc.Config{ClientID: cfg.Audience}), cfg.AllowedEmails)
}

func newVerifier(v *gooidc.IDTokenVerifier, allowed []string) *Verifier {
	emails := make([]string, 0, len(allowed))
	for _, e := range allowed {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			emails = append(emails, e)
		}
	}
	return &Verifier{verifier: v, allowedEmails: emails}
}

// Verify validates rawToken and returns the caller it identifies.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (Caller, error) {
	tok, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return Caller{}, fmt.Errorf("verify id token: %w", err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := tok.Claims(&claims); err != nil {
		return Caller{}, fmt.Errorf("decode id token claims: %w", err)
	}

	caller := Caller{
		Subject:       tok.Subject,
		Email:         strings.ToLower(strings.TrimSpace(claims.Email)),
		EmailVerified: claims.EmailVerified,
	}
	if len(v.allowedEmails) > 0 && !slices.Contains(v.allowedEmails, caller.Email) {
		return Caller{}, fmt.Errorf("%w: %q", ErrEmailNotAllowed, caller.Email)
	}
	return caller, nil
}
