package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/onco-dash/citewatch/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error when webhook url missing")
	}
}

func TestFormatMessageRunFailure(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
		Channel:    "#citations",
		Username:   "bot",
		Timeout:    time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := client.formatMessage(notify.RunNoticePayload{
		Kind:       notify.KindRunFailure,
		RunID:      "run-1",
		Trigger:    "scheduler",
		Error:      "evidence query failed: connection refused",
		ErrorClass: "net_operror",
	})

	if msg["username"] != "bot" {
		t.Fatalf("expected username to be preserved, got %v", msg["username"])
	}
	if msg["channel"] != "#citations" {
		t.Fatalf("expected channel to be set, got %v", msg["channel"])
	}

	text, ok := msg["text"].(string)
	if !ok {
		t.Fatalf("expected text field")
	}
	want := []string{"run failed", "run-1", "scheduler", "critical", "connection refused", "net_operror"}
	if !containsAll(text, want) {
		t.Fatalf("message text missing fields: %s", text)
	}
}

func TestFormatMessageStaleLinksAndTruncates(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL:      "https://hooks.slack.com/services/test",
		StatusURLPrefix: "https://citewatch.local/api/freshness/status",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hashes := make([]string, 0, maxListedHashes+3)
	for i := range maxListedHashes + 3 {
		hashes = append(hashes, fmt.Sprintf("h%02d", i))
	}

	msg := client.formatMessage(notify.RunNoticePayload{
		Kind:        notify.KindStaleCitations,
		Checked:     40,
		MarkedStale: len(hashes),
		StaleHashes: hashes,
	})
	text, _ := msg["text"].(string)

	if !strings.Contains(text, "Stale citations detected") {
		t.Fatalf("expected stale header: %s", text)
	}
	if !strings.Contains(text, "<https://citewatch.local/api/freshness/status/h00|h00>") {
		t.Fatalf("expected status link: %s", text)
	}
	if strings.Contains(text, "h12") {
		t.Fatalf("expected hash list to be truncated: %s", text)
	}
	if !strings.Contains(text, "and 3 more") {
		t.Fatalf("expected overflow marker: %s", text)
	}
	if !strings.Contains(text, "warning") {
		t.Fatalf("expected warning severity: %s", text)
	}
}

func TestFormatHashWithoutPrefix(t *testing.T) {
	client, err := NewClient(Config{WebhookURL: "https://hooks.slack.com/services/test", StatusURLPrefix: "not a url"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := client.formatHash("a<b"); got != "a&lt;b" {
		t.Fatalf("formatHash = %q", got)
	}
}

func TestSendRunNoticeRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if n == 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL, RetryLimit: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := client.SendRunNotice(context.Background(), notify.RunNoticePayload{Kind: notify.KindRunFailure}); err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestSendRunNoticeReturnsLastError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = client.SendRunNotice(context.Background(), notify.RunNoticePayload{})
	if err == nil || !strings.Contains(err.Error(), "invalid_token") {
		t.Fatalf("expected webhook error, got %v", err)
	}
}

func containsAll(text string, substrs []string) bool {
	for _, s := range substrs {
		if !strings.Contains(text, s) {
			return false
		}
	}
	return true
}
