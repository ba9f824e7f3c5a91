package statsd

import (
	"net"
	"strings"
	"testing"
	"time"
)

func TestSanitizePrefix(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"  citewatch.app  ": "citewatch.app",
		"..foo..":           "foo",
		".":                 "",
		"":                  "",
	}

	for input, want := range tests {
		if got := sanitizePrefix(input); got != want {
			t.Fatalf("sanitizePrefix(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNormalizeMetricName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		" freshness/probe ": "freshness_probe",
		"foo..bar":          "foo.bar",
		"multi  space":      "multi__space",
		".":                 "",
	}

	for input, want := range tests {
		if got := normalizeMetricName(input); got != want {
			t.Fatalf("normalizeMetricName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatLine(t *testing.T) {
	t.Parallel()

	global := map[string]string{
		"env":       "prod",
		" service ": " citewatch ",
	}
	local := map[string]string{
		"result": " success ",
		"":       "ignored",
		"env":    "stage",
	}

	got := formatLine("freshness.run", "1", "c", global, local)
	want := "freshness.run:1|c|#env:stage,result:success,service:citewatch"

	if got != want {
		t.Fatalf("formatLine mismatch\n got: %q\nwant: %q", got, want)
	}

	if got := formatLine("", "1", "c", nil, nil); got != "" {
		t.Fatalf("formatLine with empty name = %q, want empty", got)
	}
	if got := formatTags(nil, nil); got != "" {
		t.Fatalf("formatTags(nil, nil) = %q, want empty string", got)
	}
}

func TestCloneTagsReturnsCopy(t *testing.T) {
	t.Parallel()

	original := map[string]string{
		"env": "prod",
		"":    "ignored",
	}

	cloned := cloneTags(original)
	cloned["env"] = "stage"
	if original["env"] != "prod" {
		t.Fatal("cloneTags did not copy values")
	}
	if _, ok := cloned[""]; ok {
		t.Fatal("cloneTags kept empty key")
	}
}

func TestClientEmitsOverUDP(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("udp listen unavailable: %v", err)
	}
	defer pc.Close()

	client, err := NewClient(Config{
		Enabled:    true,
		Address:    pc.LocalAddr().String(),
		Prefix:     "citewatch.",
		GlobalTags: map[string]string{"env": "test"},
	})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	defer client.Close()

	client.Timing("freshness.probe_duration", 1500*time.Microsecond, map[string]string{"result": "success"})

	buf := make([]byte, 512)
	if err := pc.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	want := "citewatch.freshness.probe_duration:1.5|ms|#env:test,result:success"
	if got := string(buf[:n]); got != want {
		t.Fatalf("packet mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestClientEnabledAndClose(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{conn: clientConn}

	if !client.Enabled() {
		t.Fatal("expected client.Enabled to report true with active connection")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if client.Enabled() {
		t.Fatal("expected client.Enabled to report false after Close")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close (second call) error: %v", err)
	}

	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatal("nil client should report disabled")
	}
	if err := nilClient.Close(); err != nil {
		t.Fatalf("nil client Close error: %v", err)
	}
	nilClient.Count("ignored", 1, nil)
}

func TestNewClientDisabledWithoutAddress(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{Enabled: true, Address: "   "})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if client.Enabled() {
		t.Fatal("expected client to stay disabled when address is empty")
	}
}

func TestNewClientDialError(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{Enabled: true, Address: "bad address"})
	if err == nil {
		t.Fatal("expected NewClient to error for invalid address")
	}
	if !strings.Contains(err.Error(), "statsd dial") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecorder_Named(t *testing.T) {
	t.Parallel()

	var r Recorder
	r.Count("freshness.run", 1, map[string]string{"result": "success"})
	r.Gauge("freshness.last_success_epoch", 10, nil)
	r.Count("freshness.run", 1, map[string]string{"result": "error"})

	runs := r.Named("freshness.run")
	if len(runs) != 2 {
		t.Fatalf("expected 2 run metrics, got %d", len(runs))
	}
	if runs[1].Tags["result"] != "error" {
		t.Fatalf("unexpected tags: %v", runs[1].Tags)
	}
}
