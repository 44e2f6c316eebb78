package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleDocument = `{
	"data": [
		{
			"id": "c1",
			"type": "node--chemical_container",
			"attributes": {
				"field_chemical_product_name": "Acetone",
				"field_chemical_amount": 500,
				"field_chemical_unit_of_measure": "mL",
				"field_chemical_container_id": "C-001",
				"field_chemical_product_number": "P-99",
				"field_chemical_received": "2023-01-01",
				"field_chemical_expiration": "2025-01-01"
			},
			"relationships": {
				"field_chemical_type": {"data": {"id": "T1", "type": "node--chemdb_type"}},
				"field_chemical_space": {"data": {"id": "S1", "type": "node--space"}},
				"og_audience": {"data": [{"id": "G1", "type": "node--laboratory"}]}
			}
		}
	],
	"included": [
		{
			"id": "T1",
			"type": "node--chemdb_type",
			"attributes": {
				"field_chemdb_cas_number": "123-45-6",
				"field_chemdb_physical_state": "L",
				"field_chemdb_chemical_formula": "H2O"
			}
		},
		{"id": "S1", "type": "node--space", "attributes": {"title": "Room 204"}},
		{"id": "G1", "type": "node--laboratory", "attributes": {"title": "Smith Lab"}}
	]
}`

func writeDocument(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(sampleDocument), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.Execute()
}

func TestNewLoggerAcceptsKnownLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "", " INFO "} {
		if _, err := newLogger(level); err != nil {
			t.Fatalf("newLogger(%q): %v", level, err)
		}
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := newLogger("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestRootCommandRejectsUnknownLogLevel(t *testing.T) {
	dir := t.TempDir()
	doc := writeDocument(t, dir, "inventory.json")
	err := runCommand(t, "--log-level", "silly", "convert", "--input", doc, "--output", filepath.Join(dir, "report.csv"))
	if err == nil || !strings.Contains(err.Error(), "unknown log level") {
		t.Fatalf("expected log level error, got %v", err)
	}
}
