// Package gcs implements the artifact store on Google Cloud Storage.
// Create-only Put is enforced server side with a DoesNotExist precondition,
// so concurrent writers cannot clobber a finished report.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"chemstock/internal/blob/core"
)

// Store implements core.Store against a single GCS bucket.
type Store struct {
	client *storage.Client
	bucket string
}

// Config holds explicit construction parameters.
type Config struct {
	Bucket string
}

// Environment variables:
//
//	CHEMSTOCK_BLOB_DRIVER=gcs
//	CHEMSTOCK_BLOB_GCS_BUCKET=<bucket> (required)
//	GOOGLE_APPLICATION_CREDENTIALS (standard ADC chain)

// New creates a GCS artifact store from Config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// OpenFromEnv constructs a GCS store from process environment.
func OpenFromEnv(ctx context.Context) (*Store, error) {
	bucket := os.Getenv("CHEMSTOCK_BLOB_GCS_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("CHEMSTOCK_BLOB_GCS_BUCKET required for gcs driver")
	}
	return New(ctx, Config{Bucket: bucket})
}

// Driver reports the backend identifier.
func (s *Store) Driver() core.Driver { return core.DriverGCS }

// Put stores a new object behind a DoesNotExist precondition. A precondition
// failure (HTTP 412) reports the key as already existing; it can surface from
// the copy or from the final Close.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	object := s.client.Bucket(s.bucket).Object(key).If(storage.Conditions{DoesNotExist: true})
	w := object.NewWriter(ctx)
	w.ContentType = opts.ContentType
	if len(opts.Metadata) > 0 {
		w.Metadata = opts.Metadata
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		if isPreconditionFailure(err) {
			return core.Info{}, fmt.Errorf("blob %s already exists", key)
		}
		return core.Info{}, fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		if isPreconditionFailure(err) {
			return core.Info{}, fmt.Errorf("blob %s already exists", key)
		}
		return core.Info{}, fmt.Errorf("finalize object: %w", err)
	}
	return s.infoFromAttrs(w.Attrs()), nil
}

// Get returns object metadata and the body reader.
func (s *Store) Get(ctx context.Context, key string) (core.Info, io.ReadCloser, error) {
	object := s.client.Bucket(s.bucket).Object(key)
	attrs, err := object.Attrs(ctx)
	if err != nil {
		return core.Info{}, nil, err
	}
	reader, err := object.NewReader(ctx)
	if err != nil {
		return core.Info{}, nil, err
	}
	return s.infoFromAttrs(attrs), reader, nil
}

// Head returns object metadata only.
func (s *Store) Head(ctx context.Context, key string) (core.Info, error) {
	attrs, err := s.client.Bucket(s.bucket).Object(key).Attrs(ctx)
	if err != nil {
		return core.Info{}, err
	}
	return s.infoFromAttrs(attrs), nil
}

// Delete removes an object, reporting whether it existed.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns objects under prefix ordered by key ascending.
func (s *Store) List(ctx context.Context, prefix string) ([]core.Info, error) {
	var infos []core.Info
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		infos = append(infos, s.infoFromAttrs(attrs))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// PresignURL returns a V4 signed GET URL.
func (s *Store) PresignURL(_ context.Context, key string, opts core.SignedURLOptions) (string, error) {
	if opts.Method != "" && strings.ToUpper(opts.Method) != "GET" {
		return "", core.ErrUnsupported
	}
	expiry := opts.Expiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return s.client.Bucket(s.bucket).SignedURL(key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(expiry),
	})
}

func (s *Store) infoFromAttrs(attrs *storage.ObjectAttrs) core.Info {
	if attrs == nil {
		return core.Info{}
	}
	return core.Info{
		Key:          attrs.Name,
		Size:         attrs.Size,
		ContentType:  attrs.ContentType,
		ETag:         attrs.Etag,
		Metadata:     attrs.Metadata,
		LastModified: attrs.Updated,
		URL:          fmt.Sprintf("gs://%s/%s", s.bucket, attrs.Name),
	}
}

func isPreconditionFailure(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed
}
