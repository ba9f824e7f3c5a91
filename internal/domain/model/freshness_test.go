package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvidenceRecord_FirstCitationURL(t *testing.T) {
	tests := []struct {
		name   string
		record EvidenceRecord
		want   string
		ok     bool
	}{
		{name: "no citations", record: EvidenceRecord{UniqueHash: "a"}},
		{name: "blank first", record: EvidenceRecord{Citations: []Citation{{URL: "  "}, {URL: "https://b"}}}},
		{
			name:   "first wins",
			record: EvidenceRecord{Citations: []Citation{{URL: " https://a.example/x "}, {URL: "https://b"}}},
			want:   "https://a.example/x",
			ok:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.record.FirstCitationURL()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFreshnessStatus_HasRecordedStatus(t *testing.T) {
	var nilStatus *FreshnessStatus
	assert.False(t, nilStatus.HasRecordedStatus())
	assert.False(t, (&FreshnessStatus{LastHTTPStatus: 0}).HasRecordedStatus())
	assert.True(t, (&FreshnessStatus{LastHTTPStatus: 404}).HasRecordedStatus())
}

func TestUpsertFreshnessStatusRequest_Validate(t *testing.T) {
	req := UpsertFreshnessStatusRequest{UniqueHash: "h", CheckedAt: time.Now()}
	require.NoError(t, req.Validate())

	req.UniqueHash = ""
	require.Error(t, req.Validate())

	req = UpsertFreshnessStatusRequest{UniqueHash: "h"}
	require.Error(t, req.Validate())
}

func TestRunTrigger_UnmarshalText(t *testing.T) {
	var trig RunTrigger
	require.NoError(t, trig.UnmarshalText([]byte(" Scheduler ")))
	assert.Equal(t, RunTriggerScheduler, trig)
	require.Error(t, trig.UnmarshalText([]byte("cron")))
}

func TestFreshnessRun_Summary(t *testing.T) {
	run := FreshnessRun{Checked: 2, MarkedStale: 1, Skipped: 1}
	assert.Equal(t, RunSummary{Checked: 2, MarkedStale: 1}, run.Summary())
}
