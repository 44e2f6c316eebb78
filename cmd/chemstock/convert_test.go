package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConvertCommandWritesCSV(t *testing.T) {
	dir := t.TempDir()
	doc := writeDocument(t, dir, "inventory.json")
	out := filepath.Join(dir, "report.csv")

	if err := runCommand(t, "convert", "--input", doc, "--output", out); err != nil {
		t.Fatalf("convert: %v", err)
	}
	payload, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	content := string(payload)
	if !strings.HasPrefix(content, "Chemical Name,CAS Number,") {
		t.Fatalf("unexpected header: %q", content)
	}
	if !strings.Contains(content, "Acetone,123-45-6,Smith Lab,Room 204,Liquid") {
		t.Fatalf("missing data row: %q", content)
	}
}

func TestConvertCommandCreatesOutputDirectories(t *testing.T) {
	dir := t.TempDir()
	doc := writeDocument(t, dir, "inventory.json")
	out := filepath.Join(dir, "nested", "deep", "report.csv")

	if err := runCommand(t, "convert", "--input", doc, "--output", out); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("report not written: %v", err)
	}
}

func TestConvertCommandJSONFormat(t *testing.T) {
	dir := t.TempDir()
	doc := writeDocument(t, dir, "inventory.json")
	out := filepath.Join(dir, "report.json")

	if err := runCommand(t, "convert", "--input", doc, "--output", out, "--format", "json"); err != nil {
		t.Fatalf("convert: %v", err)
	}
	payload, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var rows []map[string]string
	if err := json.Unmarshal(payload, &rows); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(rows) != 1 || rows[0]["Chemical Name"] != "Acetone" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestConvertCommandHeaderOnlyForEmptyData(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(doc, []byte(`{"data": [], "included": []}`), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	out := filepath.Join(dir, "report.csv")

	if err := runCommand(t, "convert", "--input", doc, "--output", out); err != nil {
		t.Fatalf("convert: %v", err)
	}
	payload, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(payload), "\n"), "\n")
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "Chemical Name,") {
		t.Fatalf("expected header-only report, got %q", payload)
	}
}

func TestConvertCommandRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	doc := writeDocument(t, dir, "inventory.json")
	err := runCommand(t, "convert", "--input", doc, "--output", filepath.Join(dir, "report.parquet"), "--format", "parquet")
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestConvertCommandRejectsMalformedDocument(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(doc, []byte(`{"data": [`), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	out := filepath.Join(dir, "report.csv")

	if err := runCommand(t, "convert", "--input", doc, "--output", out); err == nil {
		t.Fatal("expected conversion error")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("no report should be written, stat: %v", err)
	}
}

func TestConvertCommandRequiresInput(t *testing.T) {
	if err := runCommand(t, "convert"); err == nil {
		t.Fatal("expected required flag error")
	}
}
