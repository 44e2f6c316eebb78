// Package sheets publishes finished inventory reports to a Google
// spreadsheet so lab staff can review stock without calling the API.
package sheets

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"chemstock/internal/core"
	"chemstock/internal/report"
)

// Environment variables consumed by NewServiceFromEnv.
const (
	EnvCredentials     = "CHEMSTOCK_SHEETS_CREDENTIALS"
	EnvCredentialsFile = "CHEMSTOCK_SHEETS_CREDENTIALS_FILE"
	EnvSpreadsheetID   = "CHEMSTOCK_SHEETS_SPREADSHEET_ID"
	EnvRange           = "CHEMSTOCK_SHEETS_RANGE"
)

// DefaultRange anchors published reports at the top-left of the first sheet.
const DefaultRange = "Sheet1!A1"

// Config carries the publisher settings.
type Config struct {
	CredentialsJSON []byte
	SpreadsheetID   string
	Range           string
}

// ConfigFromEnv loads the publisher settings. Credentials come inline from
// CHEMSTOCK_SHEETS_CREDENTIALS or from the file named by
// CHEMSTOCK_SHEETS_CREDENTIALS_FILE.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		SpreadsheetID: os.Getenv(EnvSpreadsheetID),
		Range:         os.Getenv(EnvRange),
	}
	if cfg.Range == "" {
		cfg.Range = DefaultRange
	}
	if cfg.SpreadsheetID == "" {
		return Config{}, fmt.Errorf("%s is required", EnvSpreadsheetID)
	}
	if raw := os.Getenv(EnvCredentials); raw != "" {
		cfg.CredentialsJSON = []byte(raw)
	} else if path := os.Getenv(EnvCredentialsFile); path != "" {
		payload, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read sheets credentials: %w", err)
		}
		cfg.CredentialsJSON = payload
	}
	if len(cfg.CredentialsJSON) == 0 {
		return Config{}, fmt.Errorf("%s or %s is required", EnvCredentials, EnvCredentialsFile)
	}
	return cfg, nil
}

// valuesUpdater is the slice of the Sheets API the publisher depends on.
type valuesUpdater interface {
	Update(ctx context.Context, spreadsheetID, writeRange string, values *sheetsapi.ValueRange) error
}

type googleValuesUpdater struct {
	svc *sheetsapi.Service
}

func (u googleValuesUpdater) Update(ctx context.Context, spreadsheetID, writeRange string, values *sheetsapi.ValueRange) error {
	_, err := u.svc.Spreadsheets.Values.Update(spreadsheetID, writeRange, values).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// Service publishes reports to one spreadsheet range.
type Service struct {
	updater       valuesUpdater
	spreadsheetID string
	writeRange    string
	logger        core.Logger
}

// Option customises the publisher.
type Option func(*Service)

// WithLogger overrides the no-op logger.
func WithLogger(logger core.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService builds a publisher backed by the Sheets API.
func NewService(ctx context.Context, cfg Config, opts ...Option) (*Service, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id required")
	}
	creds, err := google.CredentialsFromJSON(ctx, cfg.CredentialsJSON, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("load sheets credentials: %w", err)
	}
	client := oauth2.NewClient(ctx, creds.TokenSource)
	svc, err := sheetsapi.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}

	writeRange := cfg.Range
	if writeRange == "" {
		writeRange = DefaultRange
	}
	s := &Service{
		updater:       googleValuesUpdater{svc: svc},
		spreadsheetID: cfg.SpreadsheetID,
		writeRange:    writeRange,
		logger:        core.NopLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// NewServiceFromEnv builds a publisher from environment configuration.
func NewServiceFromEnv(ctx context.Context, opts ...Option) (*Service, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewService(ctx, cfg, opts...)
}

// Publish writes the header row followed by the report rows, overwriting the
// cells at the configured range anchor.
func (s *Service) Publish(ctx context.Context, rep report.Report) error {
	columns := report.Schema()
	header := make([]any, len(columns))
	for i, column := range columns {
		header[i] = column.Name
	}
	values := make([][]any, 0, len(rep.Rows)+1)
	values = append(values, header)
	for _, row := range rep.Rows {
		record := make([]any, len(columns))
		for i, column := range columns {
			record[i] = column.Value(row)
		}
		values = append(values, record)
	}

	if err := s.updater.Update(ctx, s.spreadsheetID, s.writeRange, &sheetsapi.ValueRange{Values: values}); err != nil {
		return fmt.Errorf("update spreadsheet %s: %w", s.spreadsheetID, err)
	}
	s.logger.Info("report published to sheet",
		"spreadsheet", s.spreadsheetID,
		"range", s.writeRange,
		"rows", len(rep.Rows))
	return nil
}
