// Package logout exposes the session termination endpoint.
package logout

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/hawkmon/hawkmon/internal/auth"
	"github.com/hawkmon/hawkmon/internal/config"
	"github.com/hawkmon/hawkmon/internal/web/handler"
)

const (
	// Path is the path to the logout endpoint.
	Path = handler.APIPath + "/logout"
)

// Service is the logout handler service.
type Service struct {
	cfg *config.Config
	svc *auth.Service
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, svc *auth.Service) error {
	if app == nil || cfg == nil || svc == nil {
		return errors.New("app, cfg or svc is nil")
	}

	s.cfg = cfg
	s.svc = svc

	app.Post(Path, s.Post)

	return nil
}

// Post terminates the caller's session. Token-authenticated requests have
// no session to terminate and are rejected.
func (s *Service) Post(c *fiber.Ctx) error {
	uc := handler.UserFromCtx(c)
	if uc == nil || uc.SessionID == "" {
		return handler.Fail(c, auth.ErrSessionNotFound)
	}

	if err := s.svc.Logout(c.UserContext(), uc.SessionID); err != nil {
		return handler.Fail(c, err)
	}

	c.ClearCookie(handler.SessionCookieName)

	return c.JSON(fiber.Map{"result": true})
}
