package core

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	ctx := context.Background()

	rec.Observe(ctx, "create_application", true, 20*time.Millisecond)
	rec.Observe(ctx, "create_application", true, 30*time.Millisecond)
	rec.Observe(ctx, "create_application", false, 5*time.Millisecond)
	rec.Observe(ctx, "", true, time.Millisecond)

	snap := rec.Snapshot()
	if got := snap.DurationsMS["create_application"]; got != 55 {
		t.Fatalf("durations %v", got)
	}
	if got := snap.Results["create_application"]["success"]; got != 2 {
		t.Fatalf("success count %d", got)
	}
	if got := snap.Results["create_application"]["error"]; got != 1 {
		t.Fatalf("error count %d", got)
	}
	if len(snap.Results) != 1 {
		t.Fatalf("empty operation recorded: %v", snap.Results)
	}
	if rec.Name() == "" {
		t.Fatal("generated name missing")
	}
}

func TestJSONTracerRecordsSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)

	_, span := tracer.Start(context.Background(), "delete_document")
	span.End(nil)
	_, span = tracer.Start(context.Background(), "create_task")
	span.End(errors.New("boom"))

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries %d", len(entries))
	}
	if entries[0].Operation != "delete_document" || entries[0].Status != "success" {
		t.Fatalf("entry 0 %+v", entries[0])
	}
	if entries[1].Status != "error" || entries[1].Error != "boom" {
		t.Fatalf("entry 1 %+v", entries[1])
	}

	scanner := bufio.NewScanner(&buf)
	lines := 0
	for scanner.Scan() {
		var decoded JSONTraceEntry
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("line %d: %v", lines, err)
		}
		lines++
	}
	if lines != 2 {
		t.Fatalf("encoded lines %d", lines)
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	rec.Observe(context.Background(), "create_application", true, 10*time.Millisecond)
	rec.Observe(context.Background(), "create_application", false, 10*time.Millisecond)

	if got := testutil.ToFloat64(rec.results.WithLabelValues("create_application", "success")); got != 1 {
		t.Fatalf("success counter %v", got)
	}
	if got := testutil.ToFloat64(rec.results.WithLabelValues("create_application", "error")); got != 1 {
		t.Fatalf("error counter %v", got)
	}
	if got := testutil.CollectAndCount(rec.durations); got == 0 {
		t.Fatal("histogram collected nothing")
	}
}

func TestPrometheusMetricsRecorderDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheusMetricsRecorder(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestJSONLoggerEncodesKeyvals(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf)
	logger.Info("transaction committed", "operation", "create_application", "changes", 3)
	logger.Error("transaction failed", "operation", "delete_document")

	scanner := bufio.NewScanner(&buf)
	if !scanner.Scan() {
		t.Fatal("missing first line")
	}
	var first map[string]any
	if err := json.Unmarshal(scanner.Bytes(), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first["level"] != "info" || first["msg"] != "transaction committed" {
		t.Fatalf("entry %v", first)
	}
	if first["operation"] != "create_application" || first["changes"] != float64(3) {
		t.Fatalf("keyvals %v", first)
	}
	if _, ok := first["ts"]; !ok {
		t.Fatal("missing timestamp")
	}

	if !scanner.Scan() {
		t.Fatal("missing second line")
	}
	var second map[string]any
	if err := json.Unmarshal(scanner.Bytes(), &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if second["level"] != "error" {
		t.Fatalf("entry %v", second)
	}
}

// recordingMetrics captures every observation for instrumentation tests.
type recordingMetrics struct {
	observations []struct {
		operation string
		success   bool
	}
}

func (m *recordingMetrics) Observe(_ context.Context, operation string, success bool, _ time.Duration) {
	m.observations = append(m.observations, struct {
		operation string
		success   bool
	}{operation, success})
}

func TestServiceInstrumentsOperations(t *testing.T) {
	metrics := &recordingMetrics{}
	var traceBuf bytes.Buffer
	tracer := NewJSONTracer(&traceBuf)

	svc := newTestService(t, WithMetricsRecorder(metrics), WithTracer(tracer))
	ctx := context.Background()

	_, _, err := svc.CreateApplication(ctx, Application{Base: Base{ID: "app1"}, WorkspaceID: "ws1", Name: "token"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := svc.CreateArgument(ctx, Argument{InstructionID: "ghost", Name: "x", Type: TypeU8}); err == nil {
		t.Fatal("expected failure")
	}

	if len(metrics.observations) != 2 {
		t.Fatalf("observations %v", metrics.observations)
	}
	if metrics.observations[0].operation != "create_application" || !metrics.observations[0].success {
		t.Fatalf("observation 0 %+v", metrics.observations[0])
	}
	if metrics.observations[1].operation != "create_argument" || metrics.observations[1].success {
		t.Fatalf("observation 1 %+v", metrics.observations[1])
	}

	entries := tracer.Entries()
	if len(entries) != 2 || entries[1].Status != "error" {
		t.Fatalf("trace entries %+v", entries)
	}
}

func TestWithClockDrivesTimestamps(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	metrics := &recordingMetrics{}
	svc := newTestService(t, WithClock(func() time.Time { return fixed }), WithMetricsRecorder(metrics))

	_, _, err := svc.CreateApplication(context.Background(), Application{Base: Base{ID: "app1"}, WorkspaceID: "ws1", Name: "token"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(metrics.observations) != 1 {
		t.Fatalf("observations %v", metrics.observations)
	}
}
