package storage

import (
	"context"
	"fmt"

	"pondok-keuangan/internal/config"
	"pondok-keuangan/internal/models"
)

// EvidenceBuckets are the buckets the application writes to.
var EvidenceBuckets = []string{models.KindRAB.EvidenceBucket(), models.KindLPJ.EvidenceBucket()}

// Open builds the store selected by STORAGE_DRIVER and makes sure the
// evidence buckets exist.
func Open(ctx context.Context, cfg *config.Config) (EvidenceStore, error) {
	var store EvidenceStore
	switch cfg.StorageDriver {
	case "oss":
		s, err := NewOSSStore(cfg.OSSEndpoint, cfg.OSSAccessKeyID, cfg.OSSAccessKeySecret, cfg.OSSBucketPrefix)
		if err != nil {
			return nil, err
		}
		store = s
	case "local":
		store = NewLocalStore(cfg.UploadPath, cfg.StoragePublicURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	for _, bucket := range EvidenceBuckets {
		if err := store.EnsureBucket(ctx, bucket); err != nil {
			return nil, fmt.Errorf("ensure bucket %s: %w", bucket, err)
		}
	}
	return store, nil
}
