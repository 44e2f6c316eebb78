// Package source abstracts where inventory documents come from. The
// conversion pipeline only sees raw bytes; files and the inventory HTTP API
// are interchangeable behind the Source interface.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Environment variables consumed by NewHTTPSourceFromEnv.
const (
	EnvSourceURL      = "CHEMSTOCK_SOURCE_URL"
	EnvSourceUsername = "CHEMSTOCK_SOURCE_USERNAME"
	EnvSourcePassword = "CHEMSTOCK_SOURCE_PASSWORD"
	EnvSourceTimeout  = "CHEMSTOCK_SOURCE_TIMEOUT"
)

const defaultTimeout = 30 * time.Second

// Source yields one raw inventory document per Fetch.
type Source interface {
	// Fetch returns the document bytes. Implementations must not retry;
	// failures surface to the caller unchanged.
	Fetch(ctx context.Context) ([]byte, error)
	// Describe identifies the source for logs and run records.
	Describe() string
}

// FileSource reads a document from the local filesystem.
type FileSource struct {
	Path string
}

// Fetch reads the whole file.
func (s FileSource) Fetch(_ context.Context) ([]byte, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return raw, nil
}

// Describe returns the file path.
func (s FileSource) Describe() string { return s.Path }

// HTTPSource fetches a document from the inventory API over HTTP. Requests
// carry basic auth when credentials are configured.
type HTTPSource struct {
	url      string
	username string
	password string
	client   *http.Client
}

// HTTPOption customises an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithBasicAuth attaches credentials to every request.
func WithBasicAuth(username, password string) HTTPOption {
	return func(s *HTTPSource) {
		s.username = username
		s.password = password
	}
}

// WithHTTPClient overrides the HTTP client. Intended for tests.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if client != nil {
			s.client = client
		}
	}
}

// NewHTTPSource constructs a source for the given endpoint URL.
func NewHTTPSource(url string, opts ...HTTPOption) (*HTTPSource, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("source url is required")
	}
	s := &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewHTTPSourceFromEnv constructs a source from CHEMSTOCK_SOURCE_* variables.
// CHEMSTOCK_SOURCE_TIMEOUT accepts time.ParseDuration syntax and defaults to
// 30s.
func NewHTTPSourceFromEnv() (*HTTPSource, error) {
	url := os.Getenv(EnvSourceURL)
	if url == "" {
		return nil, fmt.Errorf("%s is required", EnvSourceURL)
	}
	timeout := defaultTimeout
	if raw := os.Getenv(EnvSourceTimeout); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", EnvSourceTimeout, err)
		}
		timeout = parsed
	}
	return NewHTTPSource(url,
		WithBasicAuth(os.Getenv(EnvSourceUsername), os.Getenv(EnvSourcePassword)),
		WithHTTPClient(&http.Client{Timeout: timeout}),
	)
}

// Fetch performs one GET against the configured endpoint. Non-2xx responses
// become errors carrying the status and the start of the body.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.api+json")
	if s.username != "" || s.password != "" {
		req.SetBasicAuth(s.username, s.password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("inventory api returned %s: %s", resp.Status, snippet(body))
	}
	return body, nil
}

// Describe returns the endpoint URL.
func (s *HTTPSource) Describe() string { return s.url }

// snippet truncates a response body for error messages.
func snippet(body []byte) string {
	const max = 200
	text := strings.TrimSpace(string(body))
	if len(text) > max {
		return text[:max] + "..."
	}
	return text
}
