package handler

import (
	"github.com/gofiber/fiber/v2"

	"pondok-keuangan/internal/models"
	"pondok-keuangan/internal/service"
	"pondok-keuangan/internal/utils"
)

type PondokHandler struct {
	pondokService *service.PondokService
}

func NewPondokHandler(pondokService *service.PondokService) *PondokHandler {
	return &PondokHandler{
		pondokService: pondokService,
	}
}

func (h *PondokHandler) GetPondoks(c *fiber.Ctx) error {
	caller, _ := utils.GetCaller(c)
	params := utils.GetPaginationParams(c)

	pondoks, total, err := h.pondokService.ListPondok(c.UserContext(), caller, params.Limit, params.Offset(), params.Search)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, total)
	return utils.PaginatedResponseBuilder(c, "Pondok retrieved successfully", pondoks, pagination)
}

func (h *PondokHandler) GetPondok(c *fiber.Ctx) error {
	caller, _ := utils.GetCaller(c)

	pondok, err := h.pondokService.GetPondok(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, "Pondok retrieved successfully", pondok)
}

func (h *PondokHandler) CreatePondok(c *fiber.Ctx) error {
	caller, _ := utils.GetCaller(c)

	var req models.CreatePondokRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	pondok, err := h.pondokService.CreatePondok(c.UserContext(), caller, req)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.CreatedResponse(c, "Pondok created successfully", pondok)
}

func (h *PondokHandler) UpdatePondok(c *fiber.Ctx) error {
	caller, _ := utils.GetCaller(c)

	var req models.PondokRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	pondok, err := h.pondokService.UpdatePondok(c.UserContext(), caller, c.Params("id"), req)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, "Pondok updated successfully", pondok)
}

type pengurusPayload struct {
	Pengurus []models.PengurusRequest `json:"pengurus" validate:"dive"`
}

func (h *PondokHandler) ReplacePengurus(c *fiber.Ctx) error {
	caller, _ := utils.GetCaller(c)

	var req pengurusPayload
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	pengurus, err := h.pondokService.ReplacePengurus(c.UserContext(), caller, c.Params("id"), req.Pengurus)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, "Pengurus updated successfully", pengurus)
}

func (h *PondokHandler) VerifyPondok(c *fiber.Ctx) error {
	caller, _ := utils.GetCaller(c)

	pondok, err := h.pondokService.VerifyPondok(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, "Pondok verified successfully", pondok)
}

func (h *PondokHandler) DeletePondok(c *fiber.Ctx) error {
	caller, _ := utils.GetCaller(c)

	if err := h.pondokService.DeletePondok(c.UserContext(), caller, c.Params("id")); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, "Pondok deleted successfully", nil)
}
