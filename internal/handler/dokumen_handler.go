package handler

import (
	"github.com/gofiber/fiber/v2"

	"pondok-keuangan/internal/apperr"
	"pondok-keuangan/internal/models"
	"pondok-keuangan/internal/service"
	"pondok-keuangan/internal/storage"
	"pondok-keuangan/internal/utils"
)

// DokumenHandler serves both RAB and LPJ. Submissions are multipart forms
// with the amounts as text fields and the evidence under "file".
type DokumenHandler struct {
	dokumenService *service.DokumenService
}

func NewDokumenHandler(dokumenService *service.DokumenService) *DokumenHandler {
	return &DokumenHandler{
		dokumenService: dokumenService,
	}
}

type revisiRequest struct {
	Pesan string `json:"pesan" validate:"required,max=2000"`
}

func (h *DokumenHandler) SubmitRAB(c *fiber.Ctx) error {
	caller, _ := utils.GetCaller(c)

	var fields models.RABFields
	var err error
	if fields.SaldoAwal, err = models.ParseAmount("saldo_awal", c.FormValue("saldo_awal")); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	if fields.RencanaPemasukan, err = models.ParseAmount("rencana_pemasukan", c.FormValue("rencana_pemasukan")); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	if fields.RencanaPengeluaran, err = models.ParseAmount("rencana_pengeluaran", c.FormValue("rencana_pengeluaran")); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	file, closeFile, err := formFile(c, "file")
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	defer closeFile()

	rab, err := h.dokumenService.SubmitRAB(c.UserContext(), caller, pondokParam(c, caller), c.FormValue("periode_id"), fields, file)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.CreatedResponse(c, "RAB submitted successfully", rab)
}

func (h *DokumenHandler) SubmitLPJ(c *fiber.Ctx) error {
	caller, _ := utils.GetCaller(c)

	var fields models.LPJFields
	var err error
	if fields.SaldoAwal, err = models.ParseOptionalAmount("saldo_awal", c.FormValue("saldo_awal")); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	if fields.RealisasiPemasukan, err = models.ParseAmount("realisasi_pemasukan", c.FormValue("realisasi_pemasukan")); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	if fields.RealisasiPengeluaran, err = models.ParseAmount("realisasi_pengeluaran", c.FormValue("realisasi_pengeluaran")); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	file, closeFile, err := formFile(c, "file")
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	defer closeFile()

	lpj, err := h.dokumenService.SubmitLPJ(c.UserContext(), caller, pondokParam(c, caller), c.FormValue("periode_id"), fields, file)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.CreatedResponse(c, "LPJ submitted successfully", lpj)
}

func (h *DokumenHandler) GetRAB(c *fiber.Ctx) error {
	caller, _ := utils.GetCaller(c)

	rab, err := h.dokumenService.GetRAB(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, "RAB retrieved successfully", rab)
}

func (h *DokumenHandler) GetLPJ(c *fiber.Ctx) error {
	caller, _ := utils.GetCaller(c)

	lpj, err := h.dokumenService.GetLPJ(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, "LPJ retrieved successfully", lpj)
}

func (h *DokumenHandler) GetRABs(c *fiber.Ctx) error {
	caller, _ := utils.GetCaller(c)
	params := utils.GetPaginationParams(c)

	filter, err := documentFilter(c, params)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	rabs, total, err := h.dokumenService.ListRAB(c.UserContext(), caller, filter)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, total)
	return utils.PaginatedResponseBuilder(c, "RAB retrieved successfully", rabs, pagination)
}

func (h *DokumenHandler) GetLPJs(c *fiber.Ctx) error {
	caller, _ := utils.GetCaller(c)
	params := utils.GetPaginationParams(c)

	filter, err := documentFilter(c, params)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	lpjs, total, err := h.dokumenService.ListLPJ(c.UserContext(), caller, filter)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, total)
	return utils.PaginatedResponseBuilder(c, "LPJ retrieved successfully", lpjs, pagination)
}

// Approve returns the approve handler for one document kind.
func (h *DokumenHandler) Approve(kind models.DocumentKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, _ := utils.GetCaller(c)

		doc, err := h.dokumenService.ApproveDocument(c.UserContext(), caller, kind, c.Params("id"))
		if err != nil {
			return utils.ServiceErrorResponse(c, err)
		}
		return utils.SuccessResponse(c, "Document approved successfully", doc)
	}
}

func (h *DokumenHandler) RequestRevision(kind models.DocumentKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, _ := utils.GetCaller(c)

		var req revisiRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
		}
		if err := utils.ValidateStruct(req); err != nil {
			return utils.ServiceErrorResponse(c, err)
		}

		doc, err := h.dokumenService.RequestDocumentRevision(c.UserContext(), caller, kind, c.Params("id"), req.Pesan)
		if err != nil {
			return utils.ServiceErrorResponse(c, err)
		}
		return utils.SuccessResponse(c, "Revision requested successfully", doc)
	}
}

// pondokParam lets a pondok admin omit pondok_id from the form.
func pondokParam(c *fiber.Ctx, caller models.Caller) string {
	if id := c.FormValue("pondok_id"); id != "" {
		return id
	}
	if caller.PondokID != nil {
		return *caller.PondokID
	}
	return ""
}

func documentFilter(c *fiber.Ctx, params utils.PaginationParams) (models.DocumentFilter, error) {
	status := models.DocumentStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return models.DocumentFilter{}, apperr.Validation("unknown_status", "status must be diajukan, diterima or revisi",
			apperr.FieldError{Field: "status", Error: "unknown status"})
	}
	return models.DocumentFilter{
		PondokID:  c.Query("pondok_id"),
		PeriodeID: c.Query("periode_id"),
		Status:    status,
		Limit:     params.Limit,
		Offset:    params.Offset(),
	}, nil
}

// formFile opens the named multipart file. A request without that file
// yields a nil file; the returned func closes whatever was opened.
func formFile(c *fiber.Ctx, field string) (*storage.File, func(), error) {
	noop := func() {}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, apperr.Validation("invalid_form", "request must be multipart/form-data")
	}
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, noop, nil
	}

	fh := headers[0]
	body, err := fh.Open()
	if err != nil {
		return nil, noop, apperr.Validation("invalid_file", "uploaded file could not be read",
			apperr.FieldError{Field: field, Error: "unreadable"})
	}
	return &storage.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        body,
	}, func() { _ = body.Close() }, nil
}
