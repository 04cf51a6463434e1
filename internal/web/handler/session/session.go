// Package session exposes the current-identity endpoint.
package session

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/hawkmon/hawkmon/internal/auth"
	"github.com/hawkmon/hawkmon/internal/config"
	"github.com/hawkmon/hawkmon/internal/web/handler"
)

const (
	// Path is the path to the session introspection endpoint.
	Path = handler.APIPath + "/session"
)

// Service is the session handler service.
type Service struct {
	cfg *config.Config
	svc *auth.Service
}

// Handler is the session handler.
var Handler = Service{}

// Init initializes the session handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, svc *auth.Service) error {
	if app == nil || cfg == nil || svc == nil {
		return errors.New("app, cfg or svc is nil")
	}

	s.cfg = cfg
	s.svc = svc

	app.Get(Path, s.Get)

	return nil
}

// Get returns the identity resolved by the auth middleware. The middleware
// already extended the session unless the caller asked otherwise.
func (s *Service) Get(c *fiber.Ctx) error {
	uc := handler.UserFromCtx(c)
	if uc == nil {
		return handler.Fail(c, auth.ErrNotAuthorized)
	}

	return c.JSON(fiber.Map{
		"userid":      uc.User.ID,
		"username":    uc.User.Username,
		"name":        uc.User.Name,
		"surname":     uc.User.Surname,
		"roleid":      uc.User.RoleID,
		"gui_access":  uc.Permissions.GUIAccess,
		"debug_mode":  uc.Permissions.DebugMode,
		"auth_method": uc.Permissions.Method(),
	})
}
