package inventory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"chemstock/internal/blob"
)

// ObjectStore persists export artifacts.
type ObjectStore interface {
	// Put stores a new immutable artifact. Implementations fail if key exists.
	Put(ctx context.Context, key string, payload []byte, contentType string, metadata map[string]string) (ExportArtifact, error)
	// Get returns the artifact metadata and full payload bytes.
	Get(ctx context.Context, key string) (ExportArtifact, []byte, error)
	// Delete removes the artifact; returns true if it existed. Idempotent.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns artifacts whose keys start with prefix. Empty prefix lists all.
	List(ctx context.Context, prefix string) ([]ExportArtifact, error)
}

// BlobObjectStore persists artifacts through the blob facade, so the same
// worker runs against the filesystem, S3, or GCS drivers.
type BlobObjectStore struct {
	store  blob.Store
	expiry time.Duration
}

// NewBlobObjectStore wraps a blob store. Download links are presigned with
// the given expiry (default 15m) when the driver supports signing.
func NewBlobObjectStore(store blob.Store, expiry time.Duration) *BlobObjectStore {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &BlobObjectStore{store: store, expiry: expiry}
}

func (s *BlobObjectStore) Put(ctx context.Context, key string, payload []byte, contentType string, metadata map[string]string) (ExportArtifact, error) {
	info, err := s.store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{ContentType: contentType, Metadata: metadata})
	if err != nil {
		return ExportArtifact{}, err
	}
	artifact := artifactFromInfo(info)
	url, err := s.store.PresignURL(ctx, key, blob.SignedURLOptions{Method: http.MethodGet, Expiry: s.expiry})
	switch {
	case err == nil:
		artifact.URL = url
	case errors.Is(err, blob.ErrUnsupported):
		// driver cannot sign; keep whatever URL the driver reported
	default:
		return ExportArtifact{}, fmt.Errorf("presign %s: %w", key, err)
	}
	return artifact, nil
}

func (s *BlobObjectStore) Get(ctx context.Context, key string) (ExportArtifact, []byte, error) {
	info, rc, err := s.store.Get(ctx, key)
	if err != nil {
		return ExportArtifact{}, nil, err
	}
	defer func() { _ = rc.Close() }()
	payload, err := io.ReadAll(rc)
	if err != nil {
		return ExportArtifact{}, nil, fmt.Errorf("read %s: %w", key, err)
	}
	return artifactFromInfo(info), payload, nil
}

func (s *BlobObjectStore) Delete(ctx context.Context, key string) (bool, error) {
	return s.store.Delete(ctx, key)
}

func (s *BlobObjectStore) List(ctx context.Context, prefix string) ([]ExportArtifact, error) {
	infos, err := s.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]ExportArtifact, len(infos))
	for i, info := range infos {
		out[i] = artifactFromInfo(info)
	}
	return out, nil
}

func artifactFromInfo(info blob.Info) ExportArtifact {
	return ExportArtifact{
		Key:         info.Key,
		ContentType: info.ContentType,
		SizeBytes:   info.Size,
		URL:         info.URL,
		Metadata:    info.Metadata,
		CreatedAt:   info.LastModified,
	}
}

// MemoryObjectStore is an in-memory implementation of ObjectStore for tests.
type MemoryObjectStore struct {
	mu      sync.RWMutex
	objects map[string]storedObject
}

type storedObject struct {
	artifact ExportArtifact
	payload  []byte
}

// NewMemoryObjectStore constructs an in-memory object store.
func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{objects: make(map[string]storedObject)}
}

func (s *MemoryObjectStore) Put(ctx context.Context, key string, payload []byte, contentType string, metadata map[string]string) (ExportArtifact, error) {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objects[key]; exists {
		return ExportArtifact{}, fmt.Errorf("artifact %s already exists", key)
	}
	artifact := ExportArtifact{
		Key:         key,
		ContentType: contentType,
		SizeBytes:   int64(len(payload)),
		Metadata:    cloneMetadata(metadata),
		CreatedAt:   now,
		URL:         fmt.Sprintf("https://object-store.local/%s?token=stub", key),
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	s.objects[key] = storedObject{artifact: artifact, payload: cp}
	return artifact, nil
}

func (s *MemoryObjectStore) Get(ctx context.Context, key string) (ExportArtifact, []byte, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return ExportArtifact{}, nil, fmt.Errorf("artifact %s not found", key)
	}
	payload := make([]byte, len(obj.payload))
	copy(payload, obj.payload)
	artifact := obj.artifact
	artifact.Metadata = cloneMetadata(artifact.Metadata)
	return artifact, payload, nil
}

func (s *MemoryObjectStore) Delete(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, existed := s.objects[key]
	if existed {
		delete(s.objects, key)
	}
	return existed, nil
}

func (s *MemoryObjectStore) List(ctx context.Context, prefix string) ([]ExportArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ExportArtifact, 0, len(s.objects))
	for key, obj := range s.objects {
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		artifact := obj.artifact
		artifact.Metadata = cloneMetadata(artifact.Metadata)
		out = append(out, artifact)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
