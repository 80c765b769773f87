package handler

import (
	"github.com/gofiber/fiber/v2"

	"pondok-keuangan/internal/middleware"
	"pondok-keuangan/internal/models"
	"pondok-keuangan/internal/service"
	"pondok-keuangan/internal/utils"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	// Validate input
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	session, err := h.authService.SignIn(c.UserContext(), req)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}

	return utils.SuccessResponse(c, "Login successful", session)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token, _ := c.Locals(middleware.TokenKey).(string)
	if err := h.authService.SignOut(c.UserContext(), token); err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, "Logout successful", nil)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	session, ok := c.Locals(middleware.SessionKey).(*service.Session)
	if !ok || session == nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Not signed in", nil)
	}
	return utils.SuccessResponse(c, "User retrieved successfully", session.User)
}

// CreateUser adds an admin account; the route is limited to admin pusat.
func (h *AuthHandler) CreateUser(c *fiber.Ctx) error {
	caller, _ := utils.GetCaller(c)

	var req models.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	user, err := h.authService.CreateUserProfile(c.UserContext(), caller, req)
	if err != nil {
		return utils.ServiceErrorResponse(c, err)
	}
	return utils.CreatedResponse(c, "User created successfully", user)
}
