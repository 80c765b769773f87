package router

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pondok-keuangan/internal/middleware"
	"pondok-keuangan/internal/service"
	"pondok-keuangan/internal/utils"
)

// Services are the application services the API is built on.
type Services struct {
	Auth    *service.AuthService
	Periode *service.PeriodeService
	Pondok  *service.PondokService
	Dokumen *service.DokumenService
	Rekap   *service.RekapService
}

type Options struct {
	AppName string
	// Ping backs /health; nil reports healthy.
	Ping func(ctx context.Context) error
	// Gatherer backs /metrics; nil leaves the route out.
	Gatherer prometheus.Gatherer
	// FilesRoot serves a local evidence store under /files when set. The
	// files need a bearer token, scoped like the documents they belong to.
	FilesRoot string
}

func Setup(app *fiber.App, svc Services, opts Options) {
	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		if opts.Ping != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := opts.Ping(ctx); err != nil {
				utils.GetLogger().WithError(err).Warn("Health check failed")
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "unavailable",
					"app":    opts.AppName,
				})
			}
		}
		return c.JSON(fiber.Map{
			"status": "ok",
			"app":    opts.AppName,
		})
	})

	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	if opts.FilesRoot != "" {
		files := app.Group("/files", middleware.AuthMiddleware(svc.Auth), middleware.EvidenceScope("/files"))
		files.Static("/", opts.FilesRoot, fiber.Static{Browse: false})
	}

	// API routes (JSON)
	api := app.Group("/api/v1")
	SetupAPIRoutes(api, svc)
}

// ErrorHandler answers errors that escaped the handlers, such as unknown
// routes or an oversized body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		utils.GetLogger().WithError(err).WithField("path", c.Path()).Error("Unhandled error")
	}

	return c.Status(code).JSON(utils.Response{
		Success: false,
		Message: message,
	})
}
