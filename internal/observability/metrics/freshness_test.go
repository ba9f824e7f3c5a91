package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onco-dash/citewatch/internal/observability/statsd"
)

func TestEmitRun_Success(t *testing.T) {
	var rec statsd.Recorder
	finished := time.Unix(1700000000, 0)

	EmitRun(&rec, RunMetric{
		Trigger:     "scheduler",
		Result:      ResultSuccess,
		Checked:     2,
		MarkedStale: 1,
		Duration:    time.Second,
		FinishedAt:  finished,
	})

	runs := rec.Named(MetricRun)
	require.Len(t, runs, 1)
	assert.Equal(t, map[string]string{"trigger": "scheduler", "result": "success"}, runs[0].Tags)

	require.Len(t, rec.Named(MetricRecordsChecked), 1)
	assert.InDelta(t, 2, rec.Named(MetricRecordsChecked)[0].Value, 0)
	assert.InDelta(t, 1, rec.Named(MetricRecordsStale)[0].Value, 0)
	assert.Empty(t, rec.Named(MetricWriteFailures))

	epoch := rec.Named(MetricLastSuccessEpoch)
	require.Len(t, epoch, 1)
	assert.InDelta(t, float64(finished.Unix()), epoch[0].Value, 0)
}

func TestEmitRun_ErrorIsClassified(t *testing.T) {
	var rec statsd.Recorder

	EmitRun(&rec, RunMetric{
		Trigger: "http",
		Result:  ResultError,
		Err:     context.DeadlineExceeded,
	})

	runs := rec.Named(MetricRun)
	require.Len(t, runs, 1)
	assert.NotEmpty(t, runs[0].Tags["error_class"])
	assert.Empty(t, rec.Named(MetricLastSuccessEpoch))
}

func TestEmitRun_NilSink(t *testing.T) {
	EmitRun(nil, RunMetric{Err: errors.New("boom")})
	EmitProbe(nil, ProbeMetric{})
}

func TestEmitProbe(t *testing.T) {
	var rec statsd.Recorder

	EmitProbe(&rec, ProbeMetric{Method: "HEAD", OK: false, Status: 0, Duration: time.Millisecond})

	probes := rec.Named(MetricProbe)
	require.Len(t, probes, 1)
	assert.Equal(t, "none", probes[0].Tags["status_class"])
	assert.Equal(t, ResultError, probes[0].Tags["result"])
	require.Len(t, rec.Named(MetricProbeDuration), 1)
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", StatusClass(204))
	assert.Equal(t, "3xx", StatusClass(304))
	assert.Equal(t, "4xx", StatusClass(404))
	assert.Equal(t, "5xx", StatusClass(503))
	assert.Equal(t, "none", StatusClass(0))
}

func TestCloneTags(t *testing.T) {
	assert.Nil(t, CloneTags(nil))
	src := map[string]string{"a": "b"}
	cp := CloneTags(src)
	cp["a"] = "c"
	assert.Equal(t, "b", src["a"])
}
