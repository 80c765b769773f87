package router

import (
	"github.com/gofiber/fiber/v2"

	"pondok-keuangan/internal/handler"
	"pondok-keuangan/internal/middleware"
	"pondok-keuangan/internal/models"
)

func SetupAPIRoutes(router fiber.Router, svc Services) {
	// Initialize handlers
	authHandler := handler.NewAuthHandler(svc.Auth)
	periodeHandler := handler.NewPeriodeHandler(svc.Periode, svc.Rekap)
	pondokHandler := handler.NewPondokHandler(svc.Pondok)
	dokumenHandler := handler.NewDokumenHandler(svc.Dokumen)
	dashboardHandler := handler.NewDashboardHandler(svc.Rekap)

	// Public routes
	auth := router.Group("/auth")
	auth.Post("/login", authHandler.Login)

	// Protected routes
	protected := router.Group("", middleware.AuthMiddleware(svc.Auth))
	pusatOnly := middleware.PusatOnly()
	pondokOnly := middleware.PondokOnly()

	// Auth routes
	protected.Post("/auth/logout", authHandler.Logout)
	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/users", pusatOnly, authHandler.CreateUser)

	// Periode routes
	periode := protected.Group("/periode")
	periode.Get("/", periodeHandler.GetPeriodes)
	periode.Get("/:id", periodeHandler.GetPeriode)
	periode.Get("/:id/status", periodeHandler.GetStatus)
	periode.Get("/:id/rekap", pusatOnly, periodeHandler.GetRekap)
	periode.Get("/:id/rekap/export", pusatOnly, periodeHandler.ExportRekap)
	periode.Post("/", pusatOnly, periodeHandler.CreatePeriode)
	periode.Put("/:id", pusatOnly, periodeHandler.UpdatePeriode)
	periode.Delete("/:id", pusatOnly, periodeHandler.DeletePeriode)

	// Pondok routes
	pondok := protected.Group("/pondok")
	pondok.Get("/", pondokHandler.GetPondoks)
	pondok.Get("/:id", pondokHandler.GetPondok)
	pondok.Post("/", pusatOnly, pondokHandler.CreatePondok)
	pondok.Put("/:id", pondokHandler.UpdatePondok)
	pondok.Put("/:id/pengurus", pondokHandler.ReplacePengurus)
	pondok.Post("/:id/verify", pusatOnly, pondokHandler.VerifyPondok)
	pondok.Delete("/:id", pusatOnly, pondokHandler.DeletePondok)

	// RAB routes
	rab := protected.Group("/rab")
	rab.Get("/", dokumenHandler.GetRABs)
	rab.Get("/:id", dokumenHandler.GetRAB)
	rab.Post("/", pondokOnly, dokumenHandler.SubmitRAB)
	rab.Post("/:id/approve", pusatOnly, dokumenHandler.Approve(models.KindRAB))
	rab.Post("/:id/revisi", pusatOnly, dokumenHandler.RequestRevision(models.KindRAB))

	// LPJ routes
	lpj := protected.Group("/lpj")
	lpj.Get("/", dokumenHandler.GetLPJs)
	lpj.Get("/:id", dokumenHandler.GetLPJ)
	lpj.Post("/", pondokOnly, dokumenHandler.SubmitLPJ)
	lpj.Post("/:id/approve", pusatOnly, dokumenHandler.Approve(models.KindLPJ))
	lpj.Post("/:id/revisi", pusatOnly, dokumenHandler.RequestRevision(models.KindLPJ))

	// Dashboard
	protected.Get("/dashboard/stats", dashboardHandler.GetStats)
}
