package bootstrap

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onco-dash/citewatch/config"
	"github.com/onco-dash/citewatch/internal/core"
)

func TestErrorChannelCapacity(t *testing.T) {
	tests := []struct {
		name  string
		modes []config.ServiceMode
		want  int
	}{
		{name: "no services enabled", want: 0},
		{name: "http only", modes: []config.ServiceMode{config.ServiceModeHTTP}, want: 1},
		{
			name:  "http and scheduler",
			modes: []config.ServiceMode{config.ServiceModeHTTP, config.ServiceModeScheduler},
			want:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enabled := make(map[config.ServiceMode]bool, len(tt.modes))
			for _, mode := range tt.modes {
				enabled[mode] = true
			}

			if got := errorChannelCapacity(enabled); got != tt.want {
				t.Fatalf("errorChannelCapacity(%v) = %d, want %d", tt.modes, got, tt.want)
			}
			if got := errorChannelBufferSize(enabled); got != tt.want+1 {
				t.Fatalf("errorChannelBufferSize(%v) = %d, want %d", tt.modes, got, tt.want+1)
			}
		})
	}
}

func TestValidateServiceConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.AppConfig
		wantErr string
	}{
		{name: "nil config", wantErr: "service config is required"},
		{name: "unknown service", cfg: &config.AppConfig{Services: "http,worker"}, wantErr: "invalid service configuration"},
		{
			name:    "token mode without token",
			cfg:     &config.AppConfig{Services: "http", Auth: config.TriggerAuthConfig{Mode: config.TriggerAuthToken}},
			wantErr: "invalid trigger auth configuration",
		},
		{
			name: "scheduler only ignores trigger auth",
			cfg:  &config.AppConfig{Services: "scheduler", Auth: config.TriggerAuthConfig{Mode: config.TriggerAuthToken}},
		},
		{name: "http without auth", cfg: &config.AppConfig{Services: "http", Auth: config.TriggerAuthConfig{Mode: config.TriggerAuthNone}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateServiceConfig(tt.cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetEnabledServices(t *testing.T) {
	assert.Equal(t, []string{"http", "scheduler"}, GetEnabledServices(&config.AppConfig{Services: "scheduler, http"}))
	assert.Empty(t, GetEnabledServices(&config.AppConfig{Services: "bogus"}))
	assert.Empty(t, GetEnabledServices(nil))
}

func TestNewRunLock(t *testing.T) {
	lock, err := NewRunLock(nil, config.FreshnessConfig{})
	require.NoError(t, err)
	assert.Nil(t, lock)

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = rdb.Close() })

	lock, err = NewRunLock(rdb, config.FreshnessConfig{RunTimeout: 5 * time.Minute})
	require.NoError(t, err)
	require.NotNil(t, lock)
	assert.Equal(t, core.DefaultRunLockKey, lock.Key())
}

func TestBuildFailureNotifier(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	disabled := buildFailureNotifier(logger, config.ObservabilityNotificationsConfig{}, false)
	assert.False(t, disabled.Enabled())

	enabled := buildFailureNotifier(logger, config.ObservabilityNotificationsConfig{
		Enabled: true,
		Timeout: time.Second,
		Slack: config.SlackNotificationConfig{
			Enabled:    true,
			WebhookURL: "https://hooks.slack.example/services/T000/B000/XXX",
		},
	}, true)
	assert.True(t, enabled.Enabled())
}

func TestBuildHealthChecks(t *testing.T) {
	assert.Empty(t, buildHealthChecks(nil, nil))

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = rdb.Close() })
	checks := buildHealthChecks(nil, rdb)
	assert.Contains(t, checks, "redis")
	assert.NotContains(t, checks, "database")
}
