package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onco-dash/citewatch/internal/domain/model"
)

func TestPrintUsageListsCommandsSorted(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))

	out := buf.String()
	require.Contains(t, out, "Usage: citewatch-admin <command> [flags]")
	idxClear := strings.Index(out, "clear-run-lock")
	idxSeed := strings.Index(out, "db-seed")
	idxRuns := strings.Index(out, "list-runs")
	idxRunOnce := strings.Index(out, "run-once")
	require.Positive(t, idxClear)
	assert.Less(t, idxClear, idxSeed)
	assert.Less(t, idxSeed, idxRuns)
	assert.Less(t, idxRuns, idxRunOnce)
}

func TestParseRunOnceFlags(t *testing.T) {
	opts, err := parseRunOnceFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, model.RunTriggerCLI, opts.Trigger)

	opts, err = parseRunOnceFlags([]string{"-trigger", "Scheduler"})
	require.NoError(t, err)
	assert.Equal(t, model.RunTriggerScheduler, opts.Trigger)

	_, err = parseRunOnceFlags([]string{"-trigger", "cron"})
	require.Error(t, err)
}

func TestParseListFlags(t *testing.T) {
	opts, err := parseListFlags("list-stale", nil, 50)
	require.NoError(t, err)
	assert.Equal(t, listOptions{Limit: 50}, opts)

	opts, err = parseListFlags("list-stale", []string{"-limit", "5", "-offset", "10", "-json"}, 50)
	require.NoError(t, err)
	assert.Equal(t, listOptions{Limit: 5, Offset: 10, JSON: true}, opts)

	_, err = parseListFlags("list-runs", []string{"-limit", "0"}, 20)
	require.ErrorContains(t, err, "--limit must be greater than zero")

	_, err = parseListFlags("list-runs", []string{"-offset", "-1"}, 20)
	require.ErrorContains(t, err, "--offset must not be negative")
}

func TestParseDBSeedFlags(t *testing.T) {
	opts, err := parseDBSeedFlags([]string{"-file", "seed.yaml", "-allow-remote"})
	require.NoError(t, err)
	assert.Equal(t, "seed.yaml", opts.File)
	assert.True(t, opts.AllowRemote)
	assert.Equal(t, defaultMigrationTimeout, opts.Timeout)

	_, err = parseMigrateFlags([]string{"-timeout", "0s"})
	require.ErrorContains(t, err, "--timeout must be greater than zero")
}

func TestIsLikelyRemoteHost(t *testing.T) {
	tests := map[string]bool{
		"":                    false,
		"localhost":           false,
		"127.0.0.1":           false,
		"::1":                 false,
		"db.local":            false,
		"10.0.0.12":           true,
		"pg.prod.example.com": true,
	}
	for host, want := range tests {
		assert.Equal(t, want, isLikelyRemoteHost(host), host)
	}
}

func TestRenderStatuses(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderStatuses(&buf, nil))
	assert.Equal(t, "No stale citations.\n", buf.String())

	buf.Reset()
	errMsg := "dial tcp: connection refused"
	rows := []*model.FreshnessStatus{
		{UniqueHash: "h1", LastHTTPStatus: 404, LastCheckedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{UniqueHash: "h2", LastCheckedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), LastError: &errMsg},
	}
	require.NoError(t, renderStatuses(&buf, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "UNIQUE HASH")
	assert.Contains(t, lines[1], "404")
	assert.Contains(t, lines[1], "2026-01-02T03:04:05Z")
	assert.Contains(t, lines[2], errMsg)
}

func TestRenderRuns(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	finished := started.Add(1500 * time.Millisecond)
	runErr := "run deadline exceeded"
	runs := []*model.FreshnessRun{
		{ID: "r2", Trigger: model.RunTriggerHTTP, StartedAt: started},
		{
			ID: "r1", Trigger: model.RunTriggerScheduler, StartedAt: started, FinishedAt: &finished,
			Checked: 7, MarkedStale: 2, Skipped: 1, Error: &runErr,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, renderRuns(&buf, runs))

	out := buf.String()
	assert.Contains(t, out, "running")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, runErr)
	assert.Contains(t, out, "scheduler")
}

func TestReportLockCleared(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, reportLockCleared(&buf, "k", true))
	require.NoError(t, reportLockCleared(&buf, "k", false))
	assert.Equal(t, "run lock k cleared\nrun lock k was not held\n", buf.String())
}

func TestWriteJSONSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, model.RunSummary{Checked: 3, MarkedStale: 1}))
	assert.JSONEq(t, `{"checked":3,"markedStale":1}`, buf.String())
}
