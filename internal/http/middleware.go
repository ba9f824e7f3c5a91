package httpx

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/onco-dash/citewatch/config"
	"github.com/onco-dash/citewatch/internal/adapters/oidc"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

var (
	// ErrMissingCredentials is returned when the request carries no bearer token.
	ErrMissingCredentials = errors.New("bearer token required")
	// ErrInvalidCredentials is returned when the bearer token does not authenticate.
	ErrInvalidCredentials = errors.New("invalid bearer token")
)

// IDTokenVerifier verifies bearer ID tokens.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (oidc.Caller, error)
}

// TriggerAuth authenticates callers according to the configured mode.
type TriggerAuth struct {
	mode     config.TriggerAuthMode
	token    []byte
	verifier IDTokenVerifier
}

// NewTriggerAuth builds a TriggerAuth. verifier is required when cfg.Mode is oidc.
func NewTriggerAuth(cfg config.TriggerAuthConfig, verifier IDTokenVerifier) (*TriggerAuth, error) {
	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Mode == config.TriggerAuthOIDC && verifier == nil {
		return nil, errors.New("ID token verifier is required for oidc trigger auth")
	}
	return &TriggerAuth{mode: cfg.Mode, token: []byte(cfg.Token), verifier: verifier}, nil
}

// Authenticate returns the caller for r or an error describing why it was rejected.
func (a *TriggerAuth) Authenticate(r *http.Request) (Caller, error) {
	if a == nil || a.mode == config.TriggerAuthNone || a.mode == "" {
		return Caller{Method: string(config.TriggerAuthNone)}, nil
	}

	raw, ok := bearerToken(r)
	if !ok {
		return Caller{}, ErrMissingCredentials
	}

	switch a.mode {
	case config.TriggerAuthToken:
		if subtle.ConstantTimeCompare([]byte(raw), a.token) != 1 {
			return Caller{}, ErrInvalidCredentials
		}
		return Caller{Method: string(config.TriggerAuthToken)}, nil
	case config.TriggerAuthOIDC:
		c, err := a.verifier.Verify(r.Context(), raw)
		if err != nil {
			if errors.Is(err, oidc.ErrEmailNotAllowed) {
				return Caller{}, err
			}
			return Caller{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return Caller{Method: string(config.TriggerAuthOIDC), Subject: c.Subject, Email: c.Email}, nil
	default:
		return Caller{}, fmt.Errorf("unsupported trigger auth mode %q", a.mode)
	}
}

// RequireTrigger returns a middleware that admits only authenticated callers.
// Rejected requests receive 401, or 403 when the identity is valid but not allowed.
func RequireTrigger(auth *TriggerAuth, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := auth.Authenticate(r)
			if err != nil {
				code, errCode := http.StatusUnauthorized, "authentication_required"
				if errors.Is(err, oidc.ErrEmailNotAllowed) {
					code, errCode = http.StatusForbidden, "forbidden"
				}
				if logger != nil {
					logger.WarnContext(r.Context(), "trigger auth rejected",
						"path", r.URL.Path, "status", code, "error", err)
				}
				if code == http.StatusUnauthorized {
					w.Header().Set("WWW-Authenticate", `Bearer realm="citewatch"`)
				}
				// Verification detail stays in the log.
				WriteError(w, ErrorParams{Code: code, ErrCode: errCode, Err: publicAuthError(err)})
				return
			}
			next.ServeHTTP(w, r.WithContext(SetCallerInContext(r.Context(), caller)))
		})
	}
}

func publicAuthError(err error) error {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return ErrMissingCredentials
	case errors.Is(err, oidc.ErrEmailNotAllowed):
		return oidc.ErrEmailNotAllowed
	default:
		return ErrInvalidCredentials
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
