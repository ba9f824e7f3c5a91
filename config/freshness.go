package config

import (
	"strings"
	"time"
)

const (
	// DefaultCitationsPath selects the stored citations array itself.
	DefaultCitationsPath = "@"
	// DefaultCitationURLPath reads the url field of one citation.
	DefaultCitationURLPath = "url"

	maxPageSize = 5000
)

// FreshnessConfig contains citation freshness job configuration.
type FreshnessConfig struct {
	// PageSize is the maximum number of evidence records examined per run.
	PageSize int `env:"PAGE_SIZE" envDefault:"200"`

	// CursorEnabled resumes each run after the last record of the previous run.
	// When false every run re-scans the same bounded prefix.
	CursorEnabled bool `env:"CURSOR_ENABLED" envDefault:"false"`

	// CitationsPath is a JMESPath expression selecting the ordered citations array
	// from the stored citations JSON.
	CitationsPath string `env:"CITATIONS_PATH" envDefault:"@"`

	// CitationURLPath is a JMESPath expression evaluated against each citation to read its URL.
	// It runs per element so a citation without a URL keeps its position.
	CitationURLPath string `env:"CITATION_URL_PATH" envDefault:"url"`

	// Concurrency is the number of records processed in parallel. 1 keeps runs sequential.
	Concurrency int `env:"CONCURRENCY" envDefault:"1"`

	// RunTimeout bounds the duration of a single run.
	RunTimeout time.Duration `env:"RUN_TIMEOUT" envDefault:"10m"`

	// WriteRetries is the number of additional upsert attempts after a failure.
	WriteRetries int `env:"WRITE_RETRIES" envDefault:"2"`

	// NotifyOnStale sends a notification when a run marks at least one citation stale.
	NotifyOnStale bool `env:"NOTIFY_ON_STALE" envDefault:"true"`

	Probe ProbeConfig `envPrefix:"PROBE_"`
}

// ProbeConfig controls the metadata probe issued against citation URLs.
type ProbeConfig struct {
	Timeout      time.Duration `env:"TIMEOUT"       envDefault:"10s"`
	MaxRedirects int           `env:"MAX_REDIRECTS" envDefault:"5"`
	UserAgent    string        `env:"USER_AGENT"    envDefault:"citewatch/1.0 (+citation freshness checker)"`
	// GetFallback retries with a one-byte ranged GET when a server rejects HEAD.
	GetFallback bool `env:"GET_FALLBACK" envDefault:"true"`
}

// Sanitize applies guardrails to freshness configuration values.
func (f *FreshnessConfig) Sanitize() {
	if f.PageSize < 1 {
		f.PageSize = 1
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	if f.Concurrency < 1 {
		f.Concurrency = 1
	}
	if f.RunTimeout < 10*time.Second {
		f.RunTimeout = 10 * time.Second
	}
	if f.WriteRetries < 0 {
		f.WriteRetries = 0
	}
	if f.CitationsPath = strings.TrimSpace(f.CitationsPath); f.CitationsPath == "" {
		f.CitationsPath = DefaultCitationsPath
	}
	if f.CitationURLPath = strings.TrimSpace(f.CitationURLPath); f.CitationURLPath == "" {
		f.CitationURLPath = DefaultCitationURLPath
	}
	f.Probe.Sanitize()
}

// Sanitize applies guardrails to probe configuration values.
func (p *ProbeConfig) Sanitize() {
	if p.Timeout <= 0 {
		p.Timeout = 10 * time.Second
	}
	if p.Timeout > time.Minute {
		p.Timeout = time.Minute
	}
	if p.MaxRedirects < 0 {
		p.MaxRedirects = 0
	}
	if p.UserAgent = strings.TrimSpace(p.UserAgent); p.UserAgent == "" {
		p.UserAgent = "citewatch/1.0"
	}
}
