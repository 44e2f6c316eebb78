package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileSourceFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := os.WriteFile(path, []byte(`{"data": [], "included": []}`), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	src := FileSource{Path: path}
	raw, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !strings.Contains(string(raw), "included") {
		t.Fatalf("unexpected payload %q", raw)
	}
	if src.Describe() != path {
		t.Fatalf("unexpected description %q", src.Describe())
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	src := FileSource{Path: filepath.Join(t.TempDir(), "absent.json")}
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestHTTPSourceFetch(t *testing.T) {
	var gotAccept string
	var gotUser, gotPass string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotUser, gotPass, _ = r.BasicAuth()
		w.Header().Set("Content-Type", "application/vnd.api+json")
		_, _ = w.Write([]byte(`{"data": [], "included": []}`))
	}))
	defer server.Close()

	src, err := NewHTTPSource(server.URL, WithBasicAuth("reporter", "secret"), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	raw, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !strings.Contains(string(raw), "data") {
		t.Fatalf("unexpected payload %q", raw)
	}
	if gotAccept != "application/vnd.api+json" {
		t.Fatalf("unexpected accept header %q", gotAccept)
	}
	if gotUser != "reporter" || gotPass != "secret" {
		t.Fatalf("unexpected credentials %q/%q", gotUser, gotPass)
	}
}

func TestHTTPSourceRejectsNonSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "access denied", http.StatusForbidden)
	}))
	defer server.Close()

	src, err := NewHTTPSource(server.URL, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	_, err = src.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
	if !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "access denied") {
		t.Fatalf("expected status and body in error, got %v", err)
	}
}

func TestHTTPSourceOmitsAuthWhenUnset(t *testing.T) {
	var sawAuth bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, sawAuth = r.BasicAuth()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	src, err := NewHTTPSource(server.URL, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	if _, err := src.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if sawAuth {
		t.Fatal("expected no authorization header")
	}
}

func TestNewHTTPSourceRequiresURL(t *testing.T) {
	if _, err := NewHTTPSource("  "); err == nil {
		t.Fatal("expected error for blank url")
	}
}

func TestNewHTTPSourceFromEnv(t *testing.T) {
	t.Setenv(EnvSourceURL, "https://inventory.example.edu/jsonapi/containers")
	t.Setenv(EnvSourceUsername, "reporter")
	t.Setenv(EnvSourcePassword, "secret")
	t.Setenv(EnvSourceTimeout, "5s")

	src, err := NewHTTPSourceFromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if src.Describe() != "https://inventory.example.edu/jsonapi/containers" {
		t.Fatalf("unexpected description %q", src.Describe())
	}
	if src.client.Timeout.Seconds() != 5 {
		t.Fatalf("unexpected timeout %v", src.client.Timeout)
	}
}

func TestNewHTTPSourceFromEnvValidation(t *testing.T) {
	t.Setenv(EnvSourceURL, "")
	if _, err := NewHTTPSourceFromEnv(); err == nil {
		t.Fatal("expected error when url is unset")
	}

	t.Setenv(EnvSourceURL, "https://inventory.example.edu")
	t.Setenv(EnvSourceTimeout, "not-a-duration")
	if _, err := NewHTTPSourceFromEnv(); err == nil {
		t.Fatal("expected error for malformed timeout")
	}
}
