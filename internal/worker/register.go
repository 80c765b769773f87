package worker

import (
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"pondok-keuangan/internal/storage"
)

func RegisterHandlers(mux *asynq.ServeMux, store storage.EvidenceStore, logger *logrus.Logger) {
	cleanup := NewCleanupHandler(store, logger)
	mux.HandleFunc(TypeEvidenceCleanup, cleanup.Handle)
}
