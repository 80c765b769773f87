package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"pondok-keuangan/internal/cache"
	"pondok-keuangan/internal/config"
	"pondok-keuangan/internal/metrics"
	"pondok-keuangan/internal/repository"
	"pondok-keuangan/internal/router"
	"pondok-keuangan/internal/service"
	"pondok-keuangan/internal/storage"
	"pondok-keuangan/internal/worker"
)

// Prints the route table of the API without connecting to anything.
func main() {
	log := logrus.New()
	log.SetOutput(io.Discard)

	repo := repository.NewMemory()
	sessions := cache.NewMemoryStore()
	store := storage.NewLocalStore("./storage/bukti", "http://localhost:8080/files")
	reg := prometheus.NewRegistry()
	cleaner := worker.NewDirectCleaner(store, log)

	svc := router.Services{
		Auth:    service.NewAuthService(repo, sessions, &config.Config{}, log),
		Periode: service.NewPeriodeService(repo, nil, log),
		Pondok:  service.NewPondokService(repo, cleaner, log),
		Dokumen: service.NewDokumenService(repo, store, sessions, cleaner, metrics.New(reg), log, service.DokumenOptions{}),
		Rekap:   service.NewRekapService(repo, service.NewExcelService(), nil, 0, log),
	}

	app := fiber.New()
	router.Setup(app, svc, router.Options{AppName: "routes", Gatherer: reg, FilesRoot: store.Root()})

	type row struct{ method, path string }
	var rows []row
	seen := map[row]bool{}
	for _, routes := range app.Stack() {
		for _, route := range routes {
			r := row{route.Method, route.Path}
			if route.Method == fiber.MethodHead || route.Method == fiber.MethodConnect || seen[r] {
				continue
			}
			seen[r] = true
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].path != rows[j].path {
			return rows[i].path < rows[j].path
		}
		return rows[i].method < rows[j].method
	})

	// Print all routes
	fmt.Println("=== Registered Routes ===")
	for _, r := range rows {
		fmt.Printf("%-8s %s\n", r.method, r.path)
	}
}
