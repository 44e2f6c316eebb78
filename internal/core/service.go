// Package core exposes the inventory conversion service and its
// observability seams. The service wraps document parsing and report
// construction with logging, metrics, tracing, and audit hooks so callers
// (CLI, HTTP handlers, workers) share one instrumented pipeline.
package core

import (
	"context"
	"time"

	"chemstock/internal/report"
	"chemstock/pkg/chemdb"
	"chemstock/pkg/jsonapi"
)

// Operation names reported to metrics, traces, and the audit log.
const (
	opParseDocument = "parse_document"
	opBuildReport   = "build_report"
	opConvert       = "convert_inventory"
)

// Service converts chemical inventory documents into tabular reports.
type Service struct {
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
	now     func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithLogger routes service logs to the provided logger.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder routes operation observations to the provided recorder.
func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithTracer wraps service operations in spans from the provided tracer.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithAuditRecorder routes operation outcomes to the provided recorder.
func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.audit = recorder
		}
	}
}

// WithClock overrides the service clock. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs a Service with no-op observability defaults.
func NewService(opts ...Option) *Service {
	s := &Service{
		logger:  noopLogger{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		audit:   noopAudit{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// instrument runs fn under a span, records the observation, and emits an
// audit entry. The returned error is fn's error unchanged.
func (s *Service) instrument(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, operation)
	start := s.now()
	err := fn(ctx)
	duration := s.now().Sub(start)
	s.metrics.Observe(ctx, operation, err == nil, duration)
	entry := AuditEntry{Operation: operation, Status: AuditStatusSuccess, Occurred: s.now()}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Detail = err.Error()
		s.logger.Error("operation failed", "operation", operation, "error", err)
	}
	s.audit.Record(ctx, entry)
	span.End(err)
	return err
}

// ParseDocument decodes raw bytes into a document, rejecting payloads that
// are not valid JSON or lack the data or included collections.
func (s *Service) ParseDocument(ctx context.Context, raw []byte) (jsonapi.Document, error) {
	var doc jsonapi.Document
	err := s.instrument(ctx, opParseDocument, func(context.Context) error {
		parsed, parseErr := jsonapi.Parse(raw)
		if parseErr != nil {
			return parseErr
		}
		doc = parsed
		s.logger.Debug("document parsed", "records", len(parsed.Data), "included", len(parsed.Included))
		return nil
	})
	if err != nil {
		return jsonapi.Document{}, err
	}
	return doc, nil
}

// BuildReport indexes the document's included resources and extracts one row
// per container record, aborting on the first failure.
func (s *Service) BuildReport(ctx context.Context, doc jsonapi.Document) (report.Report, error) {
	var rep report.Report
	err := s.instrument(ctx, opBuildReport, func(context.Context) error {
		index := chemdb.BuildReferenceIndex(doc.Included)
		types, spaces, labs := index.Counts()
		s.logger.Debug("reference index built", "chemical_types", types, "spaces", spaces, "laboratories", labs)
		built, buildErr := report.BuildWithIndex(doc.Data, index)
		if buildErr != nil {
			return buildErr
		}
		rep = built
		return nil
	})
	if err != nil {
		return report.Report{}, err
	}
	return rep, nil
}

// Convert parses raw bytes and builds the report in one call.
func (s *Service) Convert(ctx context.Context, raw []byte) (report.Report, error) {
	var rep report.Report
	err := s.instrument(ctx, opConvert, func(ctx context.Context) error {
		doc, parseErr := s.ParseDocument(ctx, raw)
		if parseErr != nil {
			return parseErr
		}
		built, buildErr := s.BuildReport(ctx, doc)
		if buildErr != nil {
			return buildErr
		}
		rep = built
		s.logger.Info("inventory converted", "rows", len(built.Rows))
		return nil
	})
	if err != nil {
		return report.Report{}, err
	}
	return rep, nil
}
