package migrate

import (
	"net"
	"net/url"
	"os"
	"testing"
)

// testDSN mirrors testutil's defaults; testutil itself imports this package.
func testDSN(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	get := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(get("TEST_DB_USER", "citewatch"), get("TEST_DB_PASSWORD", "citewatch")),
		Host:     net.JoinHostPort(get("TEST_DB_HOST", "localhost"), get("TEST_DB_PORT", "55432")),
		Path:     get("TEST_DB_NAME", "citewatch"),
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
