package core

import (
	"context"
	"sync"
	"time"
)

// Logger is the structured logging seam used across the service. The
// signature matches log/slog, so a *slog.Logger satisfies it directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NopLogger returns a logger that discards all records.
func NopLogger() Logger { return noopLogger{} }

// MetricsRecorder consumes one observation per service operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

// TraceSpan finishes a single traced operation.
type TraceSpan interface {
	End(err error)
}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

type noopTracer struct{}

type noopSpan struct{}

func (noopSpan) End(error) {}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

// AuditStatus is the outcome recorded on an audit entry.
type AuditStatus string

const (
	// AuditStatusSuccess marks a completed operation.
	AuditStatusSuccess AuditStatus = "success"
	// AuditStatusError marks a failed operation.
	AuditStatusError AuditStatus = "error"
)

// AuditEntry records one service operation outcome.
type AuditEntry struct {
	Operation string      `json:"operation"`
	Status    AuditStatus `json:"status"`
	EntityID  string      `json:"entity_id,omitempty"`
	Detail    string      `json:"detail,omitempty"`
	Occurred  time.Time   `json:"occurred"`
}

// AuditRecorder consumes audit entries emitted by service operations.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type noopAudit struct{}

func (noopAudit) Record(context.Context, AuditEntry) {}

// NopAuditRecorder returns a recorder that discards all entries.
func NopAuditRecorder() AuditRecorder { return noopAudit{} }

// MemoryAuditRecorder retains audit entries in memory for inspection. It is
// safe for concurrent use.
type MemoryAuditRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// NewMemoryAuditRecorder constructs an empty in-memory audit recorder.
func NewMemoryAuditRecorder() *MemoryAuditRecorder { return &MemoryAuditRecorder{} }

// Record appends an entry to the log.
func (m *MemoryAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
}

// Entries returns a copy of all recorded entries.
func (m *MemoryAuditRecorder) Entries() []AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]AuditEntry, len(m.entries))
	copy(out, m.entries)
	return out
}
