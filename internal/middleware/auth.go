package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"pondok-keuangan/internal/service"
	"pondok-keuangan/internal/utils"
)

const (
	SessionKey = "session"
	TokenKey   = "token"
)

// SessionResolver turns a bearer token into a session, or nil when the token
// does not identify one.
type SessionResolver interface {
	CurrentSession(ctx context.Context, token string) (*service.Session, error)
}

// AuthMiddleware requires a bearer token and stores the caller under
// utils.CallerKey.
func AuthMiddleware(auth SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get Authorization header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Authorization header is required", nil)
		}

		// Check Bearer prefix
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid authorization header format", nil)
		}
		token := parts[1]

		session, err := auth.CurrentSession(c.UserContext(), token)
		if err != nil {
			return utils.ServiceErrorResponse(c, err)
		}
		if session == nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid or expired token", nil)
		}

		c.Locals(utils.CallerKey, session.Caller())
		c.Locals(SessionKey, session)
		c.Locals(TokenKey, token)
		return c.Next()
	}
}

func PusatOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := utils.GetCaller(c)
		if !ok || !caller.IsPusat() {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Admin pusat access required", nil)
		}
		return c.Next()
	}
}

func PondokOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := utils.GetCaller(c)
		if !ok || caller.IsPusat() || caller.PondokID == nil {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Admin pondok access required", nil)
		}
		return c.Next()
	}
}

// EvidenceScope guards files served below prefix, laid out as
// "{bucket}/{periode}/{pondok}/{file}". A pondok admin only reaches files of
// their own pondok; anything else reads as missing.
func EvidenceScope(prefix string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := utils.GetCaller(c)
		if !ok {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", nil)
		}
		if caller.IsPusat() {
			return c.Next()
		}
		parts := strings.Split(strings.Trim(strings.TrimPrefix(c.Path(), prefix), "/"), "/")
		if len(parts) < 4 || !caller.OwnsPondok(parts[2]) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "File not found", nil)
		}
		return c.Next()
	}
}
