package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"pondok-keuangan/internal/models"
	"pondok-keuangan/internal/service"
	"pondok-keuangan/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PeriodeHandler struct {
	periodeService *service.PeriodeService
	rekapService   *service.RekapService
}

func NewPeriodeHandler(periodeService *service.PeriodeService, rekapService *service.RekapService) *PeriodeHandler {
	return &PeriodeHandler{
		periodeService: periodeService,
		rekapService:   rekapService,
	}
}

func (h *PeriodeHandler) GetPeriodes(c *fiber.Ctx) error {
	params := utils.GetPaginationParams(c)

	periodes, total, err := h.periodeService.ListPeriode(c.UserContext(), params.Limit, params.Offset())
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, total)
	return utils.PaginatedResponseBuilder(c, "Periode retrieved successfully", periodes, pagination)
}

func (h *PeriodeHandler) GetPeriode(c *fiber.Ctx) error {
	periode, err := h.periodeService.GetPeriode(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, "Periode retrieved successfully", periode)
}

func (h *PeriodeHandler) CreatePeriode(c *fiber.Ctx) error {
	caller, _ := utils.GetCaller(c)

	var req models.PeriodeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	periode, err := h.periodeService.CreatePeriode(c.UserContext(), caller, req)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.CreatedResponse(c, "Periode created successfully", periode)
}

func (h *PeriodeHandler) UpdatePeriode(c *fiber.Ctx) error {
	caller, _ := utils.GetCaller(c)

	var req models.PeriodeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	periode, err := h.periodeService.UpdatePeriode(c.UserContext(), caller, c.Params("id"), req)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, "Periode updated successfully", periode)
}

func (h *PeriodeHandler) DeletePeriode(c *fiber.Ctx) error {
	caller, _ := utils.GetCaller(c)

	if err := h.periodeService.DeletePeriode(c.UserContext(), caller, c.Params("id")); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, "Periode deleted successfully", nil)
}

// GetStatus reports which submission windows are open right now.
func (h *PeriodeHandler) GetStatus(c *fiber.Ctx) error {
	status, err := h.periodeService.WindowStatus(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, "Window status retrieved successfully", status)
}

func (h *PeriodeHandler) GetRekap(c *fiber.Ctx) error {
	caller, _ := utils.GetCaller(c)
	kind := models.DocumentKind(c.Query("kind"))

	rekap, err := h.rekapService.PeriodeRekap(c.UserContext(), caller, c.Params("id"), kind)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, "Rekap retrieved successfully", rekap)
}

func (h *PeriodeHandler) ExportRekap(c *fiber.Ctx) error {
	caller, _ := utils.GetCaller(c)
	id := c.Params("id")

	buf, err := h.rekapService.ExportRekap(c.UserContext(), caller, id)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="rekap_%s.xlsx"`, id))
	return c.Send(buf.Bytes())
}
