package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"pondok-keuangan/internal/cache"
	"pondok-keuangan/internal/config"
	"pondok-keuangan/internal/database"
	"pondok-keuangan/internal/repository"
	"pondok-keuangan/internal/service"
	"pondok-keuangan/internal/utils"
)

func main() {
	log := utils.GetLogger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewMySQL(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	cli := commandLine{
		auth:         service.NewAuthService(repository.New(db), cache.NewMemoryStore(), cfg, log),
		readPassword: term.ReadPassword,
		out:          os.Stdout,
	}
	if err := cli.run(ctx, os.Args[1:]); err != nil {
		if !errors.Is(err, errHelp) {
			log.WithError(err).Error("Failed to create admin")
		}
		stop()
		os.Exit(1)
	}
}
