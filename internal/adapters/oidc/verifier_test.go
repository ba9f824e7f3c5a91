package oidc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://accounts.example.com"

// payloadKeySet accepts any signature and returns the token payload.
type payloadKeySet struct{}

func (payloadKeySet) VerifySignature(_ context.Context, jwt string) ([]byte, error) {
	parts := strings.Split(jwt, ".")
	if len(parts) != 3 {
		return nil, errors.New("malformed jwt")
	}
	return base64.RawURLEncoding.DecodeString(parts[1])
}

func testToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	enc := func(v any) string {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		return base64.RawURLEncoding.EncodeToString(b)
	}
	header := enc(map[string]string{"alg": "RS256", "typ": "JWT"})
	return header + "." + enc(claims) + "." + base64.RawURLEncoding.EncodeToString([]byte("sig"))
}

func baseClaims() map[string]any {
	now := time.Now()
	return map[string]any{
		"iss":            testIssuer,
		"aud":            "https://citewatch.example.com",
		"sub":            "1234567890",
		"email":          "Scheduler@Project.iam.example.com",
		"email_verified": true,
		"iat":            now.Add(-time.Minute).Unix(),
		"exp":            now.Add(time.Hour).Unix(),
	}
}

func TestVerifier_Verify(t *testing.T) {
	cfg := VerifierConfig{Audience: "https://citewatch.example.com"}

	tests := []struct {
		name    string
		allowed []string
		mutate  func(map[string]any)
		wantErr error
		errText string
	}{
		{name: "valid token"},
		{name: "allowed email", allowed: []string{" scheduler@project.iam.example.com "}},
		{name: "email not allowed", allowed: []string{"other@example.com"}, wantErr: ErrEmailNotAllowed},
		{
			name:    "wrong audience",
			mutate:  func(c map[string]any) { c["aud"] = "someone-else" },
			errText: "audience",
		},
		{
			name:    "wrong issuer",
			mutate:  func(c map[string]any) { c["iss"] = "https://evil.example.com" },
			errText: "different provider",
		},
		{
			name:    "expired",
			mutate:  func(c map[string]any) { c["exp"] = time.Now().Add(-time.Hour).Unix() },
			errText: "expired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := baseClaims()
			if tt.mutate != nil {
				tt.mutate(claims)
			}
			c := cfg
			c.AllowedEmails = tt.allowed
			v := NewVerifierWithKeySet(testIssuer, payloadKeySet{}, c)

			caller, err := v.Verify(context.Background(), testToken(t, claims))
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
			default:
				require.NoError(t, err)
				assert.Equal(t, "1234567890", caller.Subject)
				assert.Equal(t, "scheduler@project.iam.example.com", caller.Email)
				assert.True(t, caller.EmailVerified)
			}
		})
	}
}

func TestVerifier_RejectsGarbage(t *testing.T) {
	v := NewVerifierWithKeySet(testIssuer, payloadKeySet{}, VerifierConfig{Audience: "aud"})
	_, err := v.Verify(context.Background(), "not-a-jwt")
	require.Error(t, err)
}

func TestNewVerifier_Discovery(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/auth",
			"token_endpoint":         srv.URL + "/token",
			"jwks_uri":               srv.URL + "/jwks",
		})
	}))
	defer srv.Close()

	v, err := NewVerifier(context.Background(), VerifierConfig{
		IssuerURL: srv.URL + "/.well-known/openid-configuration",
		Audience:  "aud",
	})
	require.NoError(t, err)
	assert.NotNil(t, v)
}

func TestNewVerifier_Validation(t *testing.T) {
	_, err := NewVerifier(context.Background(), VerifierConfig{Audience: "aud"})
	require.ErrorContains(t, err, "issuer URL is required")

	_, err = NewVerifier(context.Background(), VerifierConfig{IssuerURL: "https://issuer"})
	require.ErrorContains(t, err, "audience is required")
}
