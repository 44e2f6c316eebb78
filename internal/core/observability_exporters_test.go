package core

import (
	"bytes"
	"context"
	"errors"
	"expvar"
	"strings"
	"testing"
	"time"
)

const entryStatusSuccess = "success"
const entryStatusError = "error"

func TestExpvarMetricsRecorderExports(t *testing.T) {
	recorder := NewExpvarMetricsRecorder("")
	if recorder.Name() == "" {
		t.Fatalf("expected recorder to have export name")
	}
	recorder.Observe(context.Background(), "test_op", true, 10*time.Millisecond)
	recorder.Observe(context.Background(), "test_op", false, 5*time.Millisecond)
	recorder.Observe(context.Background(), "", true, time.Millisecond)

	snapshot := recorder.Snapshot()
	if snapshot.DurationsMS["test_op"] <= 0 {
		t.Fatalf("expected positive duration, snapshot=%+v", snapshot)
	}
	if snapshot.Results["test_op"][entryStatusSuccess] != 1 || snapshot.Results["test_op"][entryStatusError] != 1 {
		t.Fatalf("unexpected results snapshot=%+v", snapshot)
	}
	if len(snapshot.Results) != 1 {
		t.Fatalf("empty operation must be ignored, snapshot=%+v", snapshot)
	}

	if v := expvar.Get(recorder.Name()); v == nil {
		t.Fatalf("expected expvar export to be registered")
	} else if !strings.Contains(v.String(), "test_op") {
		t.Fatalf("expected expvar output to contain operation: %s", v.String())
	}
}

func TestPrometheusMetricsRecorderExports(t *testing.T) {
	recorder := NewPrometheusMetricsRecorder()
	recorder.Observe(context.Background(), "convert_inventory", true, 25*time.Millisecond)
	recorder.Observe(context.Background(), "convert_inventory", false, 5*time.Millisecond)
	recorder.Observe(context.Background(), "", true, time.Millisecond)

	families, err := recorder.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	seen := map[string]bool{}
	for _, family := range families {
		seen[family.GetName()] = true
	}
	if !seen["chemstock_operation_duration_seconds"] {
		t.Fatalf("expected duration histogram, got %v", seen)
	}
	if !seen["chemstock_operation_results_total"] {
		t.Fatalf("expected results counter, got %v", seen)
	}

	for _, family := range families {
		if family.GetName() != "chemstock_operation_results_total" {
			continue
		}
		var total float64
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
		if total != 2 {
			t.Fatalf("expected two outcomes recorded, got %v", total)
		}
	}
}

func TestJSONTraceTracerExports(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	_, span := tracer.Start(context.Background(), "trace_op")
	span.End(nil)

	entries := tracer.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected single span entry, got %d", len(entries))
	}
	if entries[0].Operation != "trace_op" || entries[0].Status != entryStatusSuccess {
		t.Fatalf("unexpected span entry: %+v", entries[0])
	}
	if !strings.Contains(buf.String(), "\"operation\":\"trace_op\"") {
		t.Fatalf("expected JSON output to contain operation: %q", buf.String())
	}
}

func TestJSONTraceTracerRecordsErrors(t *testing.T) {
	tracer := NewJSONTracer(nil)
	_, span := tracer.Start(context.Background(), "trace_op")
	span.End(errors.New("boom"))

	entries := tracer.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected single span entry, got %d", len(entries))
	}
	if entries[0].Status != entryStatusError || entries[0].Error != "boom" {
		t.Fatalf("unexpected span entry: %+v", entries[0])
	}
	if entries[0].EndedAt.Before(entries[0].StartedAt) {
		t.Fatalf("span ended before it started: %+v", entries[0])
	}
}
