// Package login exposes the credential login endpoint.
package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/hawkmon/hawkmon/internal/auth"
	"github.com/hawkmon/hawkmon/internal/config"
	"github.com/hawkmon/hawkmon/internal/web/handler"
)

const (
	// Path is the path to the login endpoint.
	Path = handler.APIPath + "/login"
)

// Service is the login handler service.
type Service struct {
	cfg *config.Config
	svc *auth.Service
}

// Handler is the login handler.
var Handler = Service{}

type request struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, svc *auth.Service) error {
	if app == nil || cfg == nil || svc == nil {
		return errors.New("app, cfg or svc is nil")
	}

	s.cfg = cfg
	s.svc = svc

	app.Post(Path, s.Post)

	return nil
}

// Post handles the login request.
func (s *Service) Post(c *fiber.Ctx) error {
	req := new(request)

	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	uc, err := s.svc.Login(c.UserContext(), req.Username, req.Password, c.IP())
	if err != nil {
		log.Info().Err(err).Str("username", req.Username).Str("ip", c.IP()).Msg("login rejected")
		return handler.Fail(c, err)
	}

	SetSessionCookie(c, s.cfg, uc.SessionID)

	return c.JSON(fiber.Map{
		"sessionid":  uc.SessionID,
		"userid":     uc.User.ID,
		"username":   uc.User.Username,
		"name":       uc.User.Name,
		"surname":    uc.User.Surname,
		"autologin":  uc.User.AutoLogin,
		"debug_mode": uc.Permissions.DebugMode,
	})
}

// SetSessionCookie attaches the session ID to the response. The cookie is
// scoped to the browser session; server-side expiry is authoritative.
func SetSessionCookie(c *fiber.Ctx, cfg *config.Config, sessionID string) {
	cookieSettings := &fiber.Cookie{
		Name:     handler.SessionCookieName,
		Value:    sessionID,
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	}

	if cfg.DevMode {
		cookieSettings.Secure = false
	}

	c.Cookie(cookieSettings)
}
