package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"pondok-keuangan/internal/storage"
)

// TypeEvidenceCleanup deletes an evidence object that no document points to.
const TypeEvidenceCleanup = "evidence:cleanup"

type CleanupPayload struct {
	Bucket string `json:"bucket"`
	Path   string `json:"path"`
}

func NewEvidenceCleanupTask(bucket, objectPath string) (*asynq.Task, error) {
	payload, err := json.Marshal(CleanupPayload{Bucket: bucket, Path: objectPath})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEvidenceCleanup, payload), nil
}

type CleanupHandler struct {
	store  storage.EvidenceStore
	logger *logrus.Logger
}

func NewCleanupHandler(store storage.EvidenceStore, logger *logrus.Logger) *CleanupHandler {
	return &CleanupHandler{store: store, logger: logger}
}

// Handle deletes the object. A payload that cannot be decoded is dropped
// without retry; store failures are returned so asynq retries them.
func (h *CleanupHandler) Handle(ctx context.Context, task *asynq.Task) error {
	var payload CleanupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Bucket == "" || payload.Path == "" {
		return fmt.Errorf("incomplete cleanup payload: %w", asynq.SkipRetry)
	}

	if err := h.store.Delete(ctx, payload.Bucket, payload.Path); err != nil {
		return fmt.Errorf("delete %s/%s: %w", payload.Bucket, payload.Path, err)
	}

	h.logger.WithFields(logrus.Fields{
		"bucket": payload.Bucket,
		"path":   payload.Path,
	}).Info("Orphaned evidence deleted")
	return nil
}
