package blob

import (
	"context"

	infraGCS "chemstock/internal/infra/blob/gcs"
)

// GCSConfig re-exports the infra GCS configuration type for use within the internal tree.
type GCSConfig = infraGCS.Config

// NewGCS constructs a Google Cloud Storage backed blob.Store.
func NewGCS(ctx context.Context, cfg GCSConfig) (Store, error) {
	return infraGCS.New(ctx, cfg)
}

// OpenGCSFromEnv constructs a GCS store using environment variables.
func OpenGCSFromEnv(ctx context.Context) (Store, error) {
	return infraGCS.OpenFromEnv(ctx)
}
