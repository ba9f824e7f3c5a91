package testutil

import (
	"os"
	"strings"
	"sync"
	"time"
)

// TestingTB is the subset of testing.TB the helpers need.
type TestingTB interface {
	Helper()
	Skip(args ...any)
	Skipf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
}

// TestTime returns a fixed instant for deterministic assertions.
func TestTime() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// TestTimeProvider is a settable clock.
type TestTimeProvider struct {
	mu  sync.Mutex
	now time.Time
}

// NewTestTimeProvider starts the clock at start.
func NewTestTimeProvider(start time.Time) *TestTimeProvider {
	return &TestTimeProvider{now: start}
}

// Now returns the current fake time.
func (p *TestTimeProvider) Now() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.now
}

// AddTime advances the clock by d.
func (p *TestTimeProvider) AddTime(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = p.now.Add(d)
}

// ConcurrentTestRunner fans functions out to goroutines and collects their errors.
type ConcurrentTestRunner struct {
	t TestingTB
}

// NewConcurrentTestRunner creates a runner reporting to t.
func NewConcurrentTestRunner(t TestingTB) *ConcurrentTestRunner {
	return &ConcurrentTestRunner{t: t}
}

// RunConcurrent starts every fn at once and returns their errors in call order.
func (r *ConcurrentTestRunner) RunConcurrent(funcs ...func() error) []error {
	r.t.Helper()

	errs := make([]error, len(funcs))
	var wg sync.WaitGroup
	for i, fn := range funcs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = fn()
		}()
	}
	wg.Wait()
	return errs
}

// AssertNoErrors fails the test on the first non-nil error.
func (r *ConcurrentTestRunner) AssertNoErrors(errs []error) {
	r.t.Helper()
	for i, err := range errs {
		if err != nil {
			r.t.Fatalf("Concurrent operation %d failed: %v", i, err)
		}
	}
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

func closeAndLog(t TestingTB, name string, closer interface{ Close() error }) {
	if err := closer.Close(); err != nil {
		t.Logf("warning: failed to close %s: %v", name, err)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envBool parses common truthy values.
func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

func requireDB() bool    { return envBool("TEST_REQUIRE_DB") || envBool("TEST_REQUIRE_INFRA") }
func requireRedis() bool { return envBool("TEST_REQUIRE_REDIS") || envBool("TEST_REQUIRE_INFRA") }
