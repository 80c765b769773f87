package worker

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"pondok-keuangan/internal/storage"
)

const cleanupQueue = "low"

// Enqueuer hands orphaned evidence to the worker process.
type Enqueuer struct {
	client *asynq.Client
	delay  time.Duration
}

// NewEnqueuer schedules each cleanup delay after the request that orphaned
// the object, leaving time for any in-flight read of it.
func NewEnqueuer(client *asynq.Client, delay time.Duration) *Enqueuer {
	return &Enqueuer{client: client, delay: delay}
}

func (e *Enqueuer) ScheduleCleanup(ctx context.Context, bucket, objectPath string) error {
	task, err := NewEvidenceCleanupTask(bucket, objectPath)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task,
		asynq.Queue(cleanupQueue),
		asynq.MaxRetry(5),
		asynq.ProcessIn(e.delay),
		asynq.TaskID(TypeEvidenceCleanup+":"+bucket+"/"+objectPath),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// DirectCleaner deletes orphaned evidence inline. It is used when no asynq
// Redis is configured.
type DirectCleaner struct {
	store  storage.EvidenceStore
	logger *logrus.Logger
}

func NewDirectCleaner(store storage.EvidenceStore, logger *logrus.Logger) *DirectCleaner {
	return &DirectCleaner{store: store, logger: logger}
}

func (c *DirectCleaner) ScheduleCleanup(ctx context.Context, bucket, objectPath string) error {
	if err := c.store.Delete(ctx, bucket, objectPath); err != nil {
		return err
	}
	c.logger.WithFields(logrus.Fields{"bucket": bucket, "path": objectPath}).Info("Orphaned evidence deleted")
	return nil
}
