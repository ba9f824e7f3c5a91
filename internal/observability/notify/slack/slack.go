package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/onco-dash/citewatch/internal/observability/notify"
)

// maxListedHashes caps how many stale hashes are spelled out in one message.
const maxListedHashes = 10

// Config captures the subset of Slack webhook behaviour we need.
type Config struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
	// StatusURLPrefix, when set, turns stale hashes into links (prefix + "/" + hash).
	StatusURLPrefix string
}

// Client delivers run notifications to a Slack webhook.
type Client struct {
	webhookURL      string
	channel         string
	username        string
	retryLimit      int
	statusURLPrefix string
	client          *http.Client
}

// NewClient builds a Slack webhook client. Callers should pass a validated config.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		webhookURL:      webhookURL,
		channel:         strings.TrimSpace(cfg.Channel),
		username:        fallbackString(strings.TrimSpace(cfg.Username), "citewatch"),
		retryLimit:      max(cfg.RetryLimit, 0),
		statusURLPrefix: strings.TrimSpace(cfg.StatusURLPrefix),
		client:          hc,
	}, nil
}

// SendRunNotice posts a formatted message to Slack.
func (c *Client) SendRunNotice(ctx context.Context, payload notify.RunNoticePayload) error {
	body, err := json.Marshal(c.formatMessage(payload))
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}

	attempts := c.retryLimit + 1
	var lastErr error
	for attempt := range attempts {
		err = c.post(ctx, body)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt == attempts-1 {
			break
		}
		delay := time.Duration(attempt+1) * 200 * time.Millisecond
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

func (c *Client) formatMessage(payload notify.RunNoticePayload) map[string]any {
	timestamp := payload.OccurredAt
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	text := strings.Builder{}
	writeHeader(&text, payload)
	fields := []struct {
		label string
		value string
	}{
		{"Severity", fallbackString(payload.Severity, defaultSeverity(payload.Kind))},
		{"Trigger", payload.Trigger},
		{"Checked", strconv.Itoa(payload.Checked)},
		{"Marked stale", strconv.Itoa(payload.MarkedStale)},
		{"Error class", payload.ErrorClass},
		{"Error", escapeSlackText(payload.Error)},
	}
	for _, field := range fields {
		appendField(&text, field.label, field.value)
	}
	c.appendStaleHashes(&text, payload.StaleHashes)
	appendMetadata(&text, payload.Metadata)
	text.WriteString("• Timestamp: ")
	text.WriteString(timestamp.UTC().Format(time.RFC3339))

	msg := map[string]any{
		"text":     text.String(),
		"username": c.username,
	}
	if c.channel != "" {
		msg["channel"] = c.channel
	}
	return msg
}

func writeHeader(text *strings.Builder, payload notify.RunNoticePayload) {
	switch payload.Kind {
	case notify.KindRunFailure:
		text.WriteString("*Citation freshness run failed*")
	default:
		text.WriteString("*Stale citations detected*")
	}
	if payload.RunID != "" {
		text.WriteString(" `")
		text.WriteString(payload.RunID)
		text.WriteByte('`')
	}
	text.WriteByte('\n')
}

func defaultSeverity(kind notify.Kind) string {
	if kind == notify.KindRunFailure {
		return notify.SeverityCritical
	}
	return notify.SeverityWarning
}

func (c *Client) appendStaleHashes(text *strings.Builder, hashes []string) {
	if len(hashes) == 0 {
		return
	}
	text.WriteString("• Stale records:\n")
	for _, hash := range hashes[:min(len(hashes), maxListedHashes)] {
		text.WriteString("    • ")
		text.WriteString(c.formatHash(hash))
		text.WriteByte('\n')
	}
	if extra := len(hashes) - maxListedHashes; extra > 0 {
		fmt.Fprintf(text, "    • …and %d more\n", extra)
	}
}

func (c *Client) formatHash(hash string) string {
	raw := strings.TrimSpace(hash)
	escaped := escapeSlackText(raw)
	if link := c.buildStatusLink(raw); link != "" {
		return fmt.Sprintf("<%s|%s>", link, escaped)
	}
	return escaped
}

func (c *Client) buildStatusLink(hash string) string {
	if hash == "" || c.statusURLPrefix == "" {
		return ""
	}
	u, err := url.Parse(c.statusURLPrefix)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	link, err := url.JoinPath(u.String(), hash)
	if err != nil {
		return ""
	}
	return link
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr != nil {
			return fmt.Errorf("read slack error response: %w", readErr)
		}
		return fmt.Errorf("slack webhook %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("drain slack response body: %w", err)
	}
	return nil
}

func escapeSlackText(value string) string {
	if value == "" {
		return ""
	}
	return strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	).Replace(value)
}

func fallbackString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func appendField(text *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	text.WriteString("• ")
	text.WriteString(label)
	text.WriteString(": ")
	text.WriteString(value)
	text.WriteByte('\n')
}

func appendMetadata(text *strings.Builder, metadata map[string]string) {
	if len(metadata) == 0 {
		return
	}
	text.WriteString("• Metadata:\n")
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		text.WriteString("    • ")
		text.WriteString(k)
		text.WriteString(": ")
		text.WriteString(metadata[k])
		text.WriteByte('\n')
	}
}
