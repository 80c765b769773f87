package handler

import (
	"github.com/gofiber/fiber/v2"

	"pondok-keuangan/internal/models"
	"pondok-keuangan/internal/service"
	"pondok-keuangan/internal/utils"
)

type DashboardHandler struct {
	rekapService *service.RekapService
}

func NewDashboardHandler(rekapService *service.RekapService) *DashboardHandler {
	return &DashboardHandler{
		rekapService: rekapService,
	}
}

// GetStats answers ?kind=rab|lpj (default rab) and ?months=N.
func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	caller, _ := utils.GetCaller(c)
	kind := models.DocumentKind(c.Query("kind", string(models.KindRAB)))
	months := c.QueryInt("months", 0)

	stats, err := h.rekapService.Stats(c.UserContext(), caller, kind, months)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, "Dashboard stats retrieved successfully", stats)
}
