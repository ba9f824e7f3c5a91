// Package metrics defines the metric names and tag conventions of freshness runs.
package metrics

import (
	"maps"
	"time"

	obserrors "github.com/onco-dash/citewatch/internal/observability/errors"
	"github.com/onco-dash/citewatch/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
	ResultPartial = "partial"
)

// Metric names.
const (
	MetricRun              = "freshness.run"
	MetricRunDuration      = "freshness.run_duration"
	MetricRecordsChecked   = "freshness.records_checked"
	MetricRecordsStale     = "freshness.records_stale"
	MetricWriteFailures    = "freshness.write_failures"
	MetricProbe            = "freshness.probe"
	MetricProbeDuration    = "freshness.probe_duration"
	MetricLastSuccessEpoch = "freshness.last_success_epoch"
)

// RunMetric captures the outcome of one freshness run.
type RunMetric struct {
	Trigger       string
	Result        string
	Checked       int
	MarkedStale   int
	WriteFailures int
	Duration      time.Duration
	Err           error
	FinishedAt    time.Time
}

// EmitRun emits standardised run metrics.
func EmitRun(sink statsd.Sink, in RunMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"trigger": in.Trigger,
		"result":  in.Result,
	}
	if in.Err != nil {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count(MetricRun, 1, tags)
	if in.Duration > 0 {
		sink.Timing(MetricRunDuration, in.Duration, CloneTags(tags))
	}
	if in.Checked > 0 {
		sink.Count(MetricRecordsChecked, int64(in.Checked), CloneTags(tags))
	}
	if in.MarkedStale > 0 {
		sink.Count(MetricRecordsStale, int64(in.MarkedStale), CloneTags(tags))
	}
	if in.WriteFailures > 0 {
		sink.Count(MetricWriteFailures, int64(in.WriteFailures), CloneTags(tags))
	}
	if in.Result == ResultSuccess || in.Result == ResultNoop {
		sink.Gauge(MetricLastSuccessEpoch, float64(in.FinishedAt.Unix()), nil)
	}
}

// ProbeMetric captures one citation probe.
type ProbeMetric struct {
	Method   string
	OK       bool
	Status   int
	Duration time.Duration
}

// EmitProbe emits a probe counter tagged by status class and a probe timing.
func EmitProbe(sink statsd.Sink, in ProbeMetric) {
	if sink == nil {
		return
	}

	result := ResultSuccess
	if !in.OK {
		result = ResultError
	}
	tags := map[string]string{
		"method":       in.Method,
		"result":       result,
		"status_class": StatusClass(in.Status),
	}

	sink.Count(MetricProbe, 1, tags)
	if in.Duration > 0 {
		sink.Timing(MetricProbeDuration, in.Duration, CloneTags(tags))
	}
}

// StatusClass maps an HTTP status to "2xx".."5xx", or "none" when the request never completed.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "none"
	}
	return string(rune('0'+status/100)) + "xx"
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	return maps.Clone(src)
}
