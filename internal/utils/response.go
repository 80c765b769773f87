package utils

import (
	"github.com/gofiber/fiber/v2"

	"pondok-keuangan/internal/apperr"
	"pondok-keuangan/internal/models"
)

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody carries the machine-readable part of a failed request.
type ErrorBody struct {
	Kind   apperr.Kind         `json:"kind,omitempty"`
	Reason string              `json:"reason,omitempty"`
	Fields []apperr.FieldError `json:"fields,omitempty"`
	Detail string              `json:"detail,omitempty"`
}

func SuccessResponse(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Response{Success: true, Message: message, Data: data})
}

func CreatedResponse(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{Success: true, Message: message, Data: data})
}

// ErrorResponse writes a failure with the given status. err is shown as
// detail for client errors only.
func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	resp := Response{Success: false, Message: message}
	if err != nil && status < fiber.StatusInternalServerError {
		resp.Error = &ErrorBody{Detail: err.Error()}
	}
	return c.Status(status).JSON(resp)
}

// StatusForKind maps each error kind to one HTTP status.
func StatusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return fiber.StatusBadRequest
	case apperr.KindUnauthorized:
		return fiber.StatusUnauthorized
	case apperr.KindForbidden:
		return fiber.StatusForbidden
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindInvalidTransition, apperr.KindConflict:
		return fiber.StatusConflict
	case apperr.KindPeriodClosed, apperr.KindPondokNotVerified, apperr.KindPrerequisiteMissing:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// ServiceErrorResponse renders an error returned by a service. Typed errors
// keep their kind and reason; anything else is logged and reported as 500.
func ServiceErrorResponse(c *fiber.Ctx, err error) error {
	e, ok := apperr.As(err)
	if !ok {
		GetLogger().WithError(err).WithField("path", c.Path()).Error("Unhandled service error")
		return ErrorResponse(c, fiber.StatusInternalServerError, "Internal server error", nil)
	}

	status := StatusForKind(e.Kind)
	if status >= fiber.StatusInternalServerError {
		GetLogger().WithError(err).WithField("path", c.Path()).Error("Service failure")
	}
	return c.Status(status).JSON(Response{
		Success: false,
		Message: e.Message,
		Error:   &ErrorBody{Kind: e.Kind, Reason: e.Reason, Fields: e.Fields},
	})
}

// GetCaller reads the caller placed in the request context by the auth
// middleware.
func GetCaller(c *fiber.Ctx) (models.Caller, bool) {
	caller, ok := c.Locals(CallerKey).(models.Caller)
	return caller, ok
}

const CallerKey = "caller"
