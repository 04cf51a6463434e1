package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hawkmon/hawkmon/internal/auth"
	"github.com/hawkmon/hawkmon/internal/config"
)

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, svc *auth.Service) error
}

// UserFromCtx returns the user context the auth middleware stored for the
// request, or nil on unauthenticated routes.
func UserFromCtx(c *fiber.Ctx) *auth.UserContext {
	uc, ok := c.Locals(LocalsUserKey).(*auth.UserContext)
	if !ok {
		return nil
	}

	return uc
}
