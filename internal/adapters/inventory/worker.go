// Package inventory adapts the conversion service to HTTP and to the
// asynchronous export pipeline.
package inventory

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"chemstock/internal/core"
	"chemstock/internal/ledger"
	"chemstock/internal/report"
)

// ExportStatus describes the lifecycle stage of an export request.
type ExportStatus string

const (
	ExportStatusPending   ExportStatus = "pending"
	ExportStatusRunning   ExportStatus = "running"
	ExportStatusCompleted ExportStatus = "completed"
	ExportStatusFailed    ExportStatus = "failed"
)

// ExportArtifact captures one stored report artifact.
type ExportArtifact struct {
	Key         string            `json:"key"`
	Format      report.Format     `json:"format"`
	ContentType string            `json:"content_type"`
	SizeBytes   int64             `json:"size_bytes"`
	URL         string            `json:"url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ExportRecord tracks an export request and its resulting artifacts.
type ExportRecord struct {
	ID          string           `json:"id"`
	Source      string           `json:"source"`
	Formats     []report.Format  `json:"formats"`
	Status      ExportStatus     `json:"status"`
	Error       string           `json:"error,omitempty"`
	Rows        int              `json:"rows"`
	Artifacts   []ExportArtifact `json:"artifacts,omitempty"`
	RequestedBy string           `json:"requested_by,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// ExportInput represents an enqueue request for the worker.
type ExportInput struct {
	Document    []byte
	Formats     []report.Format
	Source      string
	RequestedBy string
}

// ExportScheduler queues inventory export requests and exposes status.
type ExportScheduler interface {
	EnqueueExport(ctx context.Context, input ExportInput) (ExportRecord, error)
	GetExport(id string) (ExportRecord, bool)
	ListExports() []ExportRecord
}

// Converter turns a raw inventory document into a report.
type Converter interface {
	Convert(ctx context.Context, raw []byte) (report.Report, error)
}

// RunLedger mirrors export lifecycle transitions into the durable run ledger.
type RunLedger interface {
	SaveRun(ctx context.Context, record ledger.RunRecord) error
}

const (
	auditEnqueueExport  = "enqueue_export"
	auditCompleteExport = "complete_export"
	auditFailExport     = "fail_export"
)

// Worker executes inventory exports asynchronously.
type Worker struct {
	converter Converter
	store     ObjectStore
	ledger    RunLedger
	audit     core.AuditRecorder
	logger    core.Logger
	now       func() time.Time

	queue chan exportTask
	mu    sync.RWMutex
	jobs  map[string]*ExportRecord

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type exportTask struct {
	id       string
	document []byte
}

// WorkerOption customises worker construction.
type WorkerOption func(*Worker)

// WithLedger mirrors export transitions into a durable run ledger.
func WithLedger(l RunLedger) WorkerOption {
	return func(w *Worker) {
		if l != nil {
			w.ledger = l
		}
	}
}

// WithAuditRecorder overrides the no-op audit recorder.
func WithAuditRecorder(rec core.AuditRecorder) WorkerOption {
	return func(w *Worker) {
		if rec != nil {
			w.audit = rec
		}
	}
}

// WithLogger overrides the no-op logger.
func WithLogger(logger core.Logger) WorkerOption {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) WorkerOption {
	return func(w *Worker) {
		if now != nil {
			w.now = now
		}
	}
}

// NewWorker constructs an export worker over the given converter and store.
func NewWorker(converter Converter, store ObjectStore, opts ...WorkerOption) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		converter: converter,
		store:     store,
		audit:     core.NopAuditRecorder(),
		logger:    core.NopLogger(),
		now:       func() time.Time { return time.Now().UTC() },
		queue:     make(chan exportTask, 32),
		jobs:      make(map[string]*ExportRecord),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case task := <-w.queue:
			w.process(task)
		}
	}
}

// EnqueueExport schedules an export job and returns the pending record.
func (w *Worker) EnqueueExport(ctx context.Context, input ExportInput) (ExportRecord, error) {
	if w.converter == nil {
		return ExportRecord{}, fmt.Errorf("export converter not configured")
	}
	if w.store == nil {
		return ExportRecord{}, fmt.Errorf("export object store not configured")
	}
	if len(bytes.TrimSpace(input.Document)) == 0 {
		return ExportRecord{}, fmt.Errorf("document payload required")
	}

	formats := input.Formats
	if len(formats) == 0 {
		formats = []report.Format{report.FormatCSV}
	}
	uniq := make([]report.Format, 0, len(formats))
	seen := make(map[report.Format]struct{})
	for _, format := range formats {
		parsed, ok := report.ParseFormat(string(format))
		if !ok {
			return ExportRecord{}, fmt.Errorf("unsupported export format %q", format)
		}
		if _, duplicate := seen[parsed]; duplicate {
			continue
		}
		uniq = append(uniq, parsed)
		seen[parsed] = struct{}{}
	}

	id := newID()
	now := w.now()
	record := ExportRecord{
		ID:          id,
		Source:      sourceFor(input),
		Formats:     uniq,
		Status:      ExportStatusPending,
		RequestedBy: input.RequestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[id] = &record
	snapshot := record.copy()
	w.mu.Unlock()

	select {
	case w.queue <- exportTask{id: id, document: append([]byte(nil), input.Document...)}:
	default:
		w.mu.Lock()
		delete(w.jobs, id)
		w.mu.Unlock()
		return ExportRecord{}, fmt.Errorf("export queue full")
	}

	w.audit.Record(ctx, core.AuditEntry{
		Operation: auditEnqueueExport,
		Status:    core.AuditStatusSuccess,
		EntityID:  id,
		Detail:    "formats " + joinFormats(uniq),
		Occurred:  now,
	})
	w.mirror(ctx, snapshot)
	return snapshot, nil
}

// GetExport returns a snapshot of the export record.
func (w *Worker) GetExport(id string) (ExportRecord, bool) {
	w.mu.RLock()
	record, ok := w.jobs[id]
	if !ok {
		w.mu.RUnlock()
		return ExportRecord{}, false
	}
	snapshot := record.copy()
	w.mu.RUnlock()
	return snapshot, true
}

// ListExports returns snapshots of all known exports, newest first.
func (w *Worker) ListExports() []ExportRecord {
	w.mu.RLock()
	out := make([]ExportRecord, 0, len(w.jobs))
	for _, record := range w.jobs {
		out = append(out, record.copy())
	}
	w.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (w *Worker) process(task exportTask) {
	w.start(task.id)

	rep, err := w.converter.Convert(w.ctx, task.document)
	if err != nil {
		w.fail(task.id, fmt.Sprintf("convert inventory: %v", err))
		return
	}

	record, ok := w.GetExport(task.id)
	if !ok {
		return
	}
	artifacts := make([]ExportArtifact, 0, len(record.Formats))
	for _, format := range record.Formats {
		var buf bytes.Buffer
		if err := report.Encode(&buf, format, rep.Rows); err != nil {
			w.fail(task.id, fmt.Sprintf("encode %s: %v", format, err))
			return
		}
		metadata := map[string]string{
			"rows":   strconv.Itoa(len(rep.Rows)),
			"source": record.Source,
		}
		artifact, err := w.store.Put(w.ctx, artifactKey(task.id, format), buf.Bytes(), format.ContentType(), metadata)
		if err != nil {
			w.fail(task.id, fmt.Sprintf("store %s artifact: %v", format, err))
			return
		}
		artifact.Format = format
		artifacts = append(artifacts, artifact)
	}

	w.complete(task.id, artifacts, len(rep.Rows))
}

func (w *Worker) start(id string) {
	now := w.now()
	w.mu.Lock()
	record, ok := w.jobs[id]
	if !ok {
		w.mu.Unlock()
		return
	}
	record.Status = ExportStatusRunning
	record.UpdatedAt = now
	record.StartedAt = &now
	snapshot := record.copy()
	w.mu.Unlock()
	w.mirror(w.ctx, snapshot)
}

func (w *Worker) complete(id string, artifacts []ExportArtifact, rows int) {
	now := w.now()
	w.mu.Lock()
	record, ok := w.jobs[id]
	if !ok {
		w.mu.Unlock()
		return
	}
	record.Status = ExportStatusCompleted
	record.Error = ""
	record.Rows = rows
	record.Artifacts = artifacts
	record.UpdatedAt = now
	record.CompletedAt = &now
	snapshot := record.copy()
	w.mu.Unlock()

	w.audit.Record(w.ctx, core.AuditEntry{
		Operation: auditCompleteExport,
		Status:    core.AuditStatusSuccess,
		EntityID:  id,
		Detail:    fmt.Sprintf("%d rows, %d artifacts", rows, len(artifacts)),
		Occurred:  now,
	})
	w.logger.Info("inventory export completed", "export", id, "rows", rows, "artifacts", len(artifacts))
	w.mirror(w.ctx, snapshot)
}

func (w *Worker) fail(id, reason string) {
	now := w.now()
	w.mu.Lock()
	record, ok := w.jobs[id]
	if !ok {
		w.mu.Unlock()
		return
	}
	record.Status = ExportStatusFailed
	record.Error = reason
	record.UpdatedAt = now
	record.CompletedAt = &now
	snapshot := record.copy()
	w.mu.Unlock()

	w.audit.Record(w.ctx, core.AuditEntry{
		Operation: auditFailExport,
		Status:    core.AuditStatusError,
		EntityID:  id,
		Detail:    reason,
		Occurred:  now,
	})
	w.logger.Error("inventory export failed", "export", id, "error", reason)
	w.mirror(w.ctx, snapshot)
}

// mirror writes the current record state into the run ledger when configured.
func (w *Worker) mirror(ctx context.Context, record ExportRecord) {
	if w.ledger == nil {
		return
	}
	run := ledger.RunRecord{
		ID:          record.ID,
		Source:      record.Source,
		Status:      runStatus(record.Status),
		Formats:     formatNames(record.Formats),
		Rows:        record.Rows,
		Error:       record.Error,
		SubmittedAt: record.CreatedAt,
		StartedAt:   record.StartedAt,
		CompletedAt: record.CompletedAt,
		Artifacts:   artifactRefs(record.Artifacts),
	}
	if err := w.ledger.SaveRun(ctx, run); err != nil {
		w.logger.Warn("run ledger save failed", "run", record.ID, "error", err)
	}
}

func runStatus(status ExportStatus) ledger.RunStatus {
	switch status {
	case ExportStatusPending:
		return ledger.RunPending
	case ExportStatusRunning:
		return ledger.RunRunning
	case ExportStatusCompleted:
		return ledger.RunCompleted
	default:
		return ledger.RunFailed
	}
}

func artifactKey(id string, format report.Format) string {
	return fmt.Sprintf("inventory/exports/%s/report.%s", id, format.Extension())
}

func sourceFor(input ExportInput) string {
	if strings.TrimSpace(input.Source) == "" {
		return "api"
	}
	return input.Source
}

func formatNames(formats []report.Format) []string {
	out := make([]string, len(formats))
	for i, format := range formats {
		out[i] = string(format)
	}
	return out
}

func joinFormats(formats []report.Format) string {
	return strings.Join(formatNames(formats), ",")
}

func artifactRefs(artifacts []ExportArtifact) []ledger.ArtifactRef {
	if len(artifacts) == 0 {
		return nil
	}
	out := make([]ledger.ArtifactRef, len(artifacts))
	for i, artifact := range artifacts {
		out[i] = ledger.ArtifactRef{Format: string(artifact.Format), Key: artifact.Key, Size: artifact.SizeBytes}
	}
	return out
}

func (r ExportRecord) copy() ExportRecord {
	dup := r
	dup.Formats = append([]report.Format(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = append([]ExportArtifact(nil), r.Artifacts...)
	}
	if r.StartedAt != nil {
		started := *r.StartedAt
		dup.StartedAt = &started
	}
	if r.CompletedAt != nil {
		completed := *r.CompletedAt
		dup.CompletedAt = &completed
	}
	return dup
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", b[:])
}
