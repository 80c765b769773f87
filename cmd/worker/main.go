package main

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"pondok-keuangan/internal/config"
	"pondok-keuangan/internal/storage"
	"pondok-keuangan/internal/utils"
	"pondok-keuangan/internal/worker"
)

func main() {
	log := utils.GetLogger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	store, err := storage.Open(context.Background(), cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to open evidence storage")
	}

	// Create Asynq server
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.AsynqRedisAddr,
			Password: cfg.AsynqRedisPassword,
			DB:       cfg.AsynqRedisDB,
		},
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger: log,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.WithError(err).WithFields(logrus.Fields{
					"type":    task.Type(),
					"payload": string(task.Payload()),
				}).Error("Error processing task")
			}),
		},
	)

	// Register task handlers
	mux := asynq.NewServeMux()
	worker.RegisterHandlers(mux, store, log)

	// Run blocks until SIGTERM or SIGINT and then shuts the server down
	log.WithField("concurrency", cfg.WorkerConcurrency).Info("Worker starting")
	if err := srv.Run(mux); err != nil {
		log.WithError(err).Fatal("Failed to start worker")
	}

	log.Info("Worker exited")
}
