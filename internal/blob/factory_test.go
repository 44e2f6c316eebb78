package blob

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestOpenDefaultsToFilesystem(t *testing.T) {
	t.Setenv("CHEMSTOCK_BLOB_DRIVER", "")
	t.Setenv("CHEMSTOCK_BLOB_FS_ROOT", t.TempDir())

	store, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("expected fs driver, got %s", store.Driver())
	}
}

func TestOpenMemoryDriver(t *testing.T) {
	t.Setenv("CHEMSTOCK_BLOB_DRIVER", "memory")

	store, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("expected memory driver, got %s", store.Driver())
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Setenv("CHEMSTOCK_BLOB_DRIVER", "tape")
	if _, err := Open(context.Background()); err == nil || !strings.Contains(err.Error(), "tape") {
		t.Fatalf("expected unknown driver error, got %v", err)
	}
}

func TestOpenS3RequiresBucket(t *testing.T) {
	t.Setenv("CHEMSTOCK_BLOB_DRIVER", "s3")
	t.Setenv("CHEMSTOCK_BLOB_S3_BUCKET", "")
	if _, err := Open(context.Background()); err == nil {
		t.Fatal("expected error when s3 bucket is unset")
	}
}

func TestOpenGCSRequiresBucket(t *testing.T) {
	t.Setenv("CHEMSTOCK_BLOB_DRIVER", "gcs")
	t.Setenv("CHEMSTOCK_BLOB_GCS_BUCKET", "")
	if _, err := Open(context.Background()); err == nil {
		t.Fatal("expected error when gcs bucket is unset")
	}
}

// Store contract shared by every driver that can run hermetically.
func TestStoreContract(t *testing.T) {
	stores := map[string]Store{
		"memory": NewMemory(),
		"s3mock": NewMockS3ForTests(),
	}
	fsStore, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("filesystem store: %v", err)
	}
	stores["fs"] = fsStore

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			payload := []byte("Chemical Name, CAS Number\nAcetone, 123-45-6\n")

			info, err := store.Put(ctx, "inventory/exports/run1/report.csv", bytes.NewReader(payload), PutOptions{ContentType: "text/csv"})
			if err != nil {
				t.Fatalf("put: %v", err)
			}
			if info.Size != int64(len(payload)) {
				t.Fatalf("unexpected size %d", info.Size)
			}

			if _, err := store.Put(ctx, "inventory/exports/run1/report.csv", bytes.NewReader(payload), PutOptions{}); err == nil {
				t.Fatal("expected create-only violation error")
			}

			got, rc, err := store.Get(ctx, "inventory/exports/run1/report.csv")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			body, err := io.ReadAll(rc)
			_ = rc.Close()
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if !bytes.Equal(body, payload) {
				t.Fatalf("payload mismatch: %q", body)
			}
			if got.Key != "inventory/exports/run1/report.csv" {
				t.Fatalf("unexpected key %q", got.Key)
			}

			if _, err := store.Put(ctx, "inventory/exports/run1/report.json", strings.NewReader("[]"), PutOptions{ContentType: "application/json"}); err != nil {
				t.Fatalf("put second: %v", err)
			}

			infos, err := store.List(ctx, "inventory/exports/run1/")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(infos) != 2 {
				t.Fatalf("expected two blobs, got %d", len(infos))
			}
			if infos[0].Key > infos[1].Key {
				t.Fatalf("expected lexicographic order, got %q then %q", infos[0].Key, infos[1].Key)
			}

			existed, err := store.Delete(ctx, "inventory/exports/run1/report.json")
			if err != nil || !existed {
				t.Fatalf("delete: existed=%v err=%v", existed, err)
			}
		})
	}
}
