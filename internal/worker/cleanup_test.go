package worker

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pondok-keuangan/internal/storage"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func uploadEvidence(t *testing.T, store *storage.LocalStore, path string) string {
	t.Helper()
	_, err := store.Upload(context.Background(), "bukti_rab", path, storage.File{
		Name: "bukti.pdf",
		Body: strings.NewReader("%PDF-1.4"),
	})
	require.NoError(t, err)
	return filepath.Join(store.Root(), "bukti_rab", filepath.FromSlash(path))
}

func TestCleanupHandlerDeletesObject(t *testing.T) {
	store := storage.NewLocalStore(t.TempDir(), "http://localhost/files")
	full := uploadEvidence(t, store, "202505/p1/orphan.pdf")

	task, err := NewEvidenceCleanupTask("bukti_rab", "202505/p1/orphan.pdf")
	require.NoError(t, err)
	assert.Equal(t, TypeEvidenceCleanup, task.Type())

	require.NoError(t, NewCleanupHandler(store, quietLogger()).Handle(context.Background(), task))

	_, err = os.Stat(full)
	assert.True(t, os.IsNotExist(err))
}

func TestCleanupHandlerMissingObjectIsDone(t *testing.T) {
	store := storage.NewLocalStore(t.TempDir(), "http://localhost/files")
	task, err := NewEvidenceCleanupTask("bukti_lpj", "202505/p1/already-gone.pdf")
	require.NoError(t, err)

	assert.NoError(t, NewCleanupHandler(store, quietLogger()).Handle(context.Background(), task))
}

func TestCleanupHandlerSkipsRetryOnBadPayload(t *testing.T) {
	store := storage.NewLocalStore(t.TempDir(), "http://localhost/files")
	h := NewCleanupHandler(store, quietLogger())

	err := h.Handle(context.Background(), asynq.NewTask(TypeEvidenceCleanup, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	err = h.Handle(context.Background(), asynq.NewTask(TypeEvidenceCleanup, []byte(`{"bucket":"bukti_rab"}`)))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestCleanupHandlerRejectsEscapingPath(t *testing.T) {
	store := storage.NewLocalStore(t.TempDir(), "http://localhost/files")
	task, err := NewEvidenceCleanupTask("bukti_rab", "../../etc/passwd")
	require.NoError(t, err)

	err = NewCleanupHandler(store, quietLogger()).Handle(context.Background(), task)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestDirectCleaner(t *testing.T) {
	store := storage.NewLocalStore(t.TempDir(), "http://localhost/files")
	full := uploadEvidence(t, store, "202505/p1/old.pdf")

	require.NoError(t, NewDirectCleaner(store, quietLogger()).ScheduleCleanup(context.Background(), "bukti_rab", "202505/p1/old.pdf"))

	_, err := os.Stat(full)
	assert.True(t, os.IsNotExist(err))
}
