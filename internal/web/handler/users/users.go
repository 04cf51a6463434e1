// Package users exposes the administrative user operations: unblocking
// locked accounts, forcing a directory re-sync and password changes.
//
// Unblock and Provision trust any authenticated principal. Which roles may
// call them is decided by the role layer, which owns permission checks
// against role contents; deployments without it must gate these routes at
// the proxy.
package users

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/hawkmon/hawkmon/internal/auth"
	"github.com/hawkmon/hawkmon/internal/config"
	"github.com/hawkmon/hawkmon/internal/web/handler"
)

const (
	// UnblockPath resets the failed-login counters of the given users.
	UnblockPath = handler.APIPath + "/users/unblock"

	// ProvisionPath re-syncs the given users from their directory.
	ProvisionPath = handler.APIPath + "/users/provision"

	// PasswordPath changes the caller's own password.
	PasswordPath = handler.APIPath + "/users/password"
)

// Service is the users handler service.
type Service struct {
	cfg *config.Config
	svc *auth.Service
}

// Handler is the users handler.
var Handler = Service{}

type idsRequest struct {
	UserIDs []uint64 `json:"userids"`
}

type passwordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Init initializes the users handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, svc *auth.Service) error {
	if app == nil || cfg == nil || svc == nil {
		return errors.New("app, cfg or svc is nil")
	}

	s.cfg = cfg
	s.svc = svc

	app.Post(UnblockPath, s.Unblock)
	app.Post(ProvisionPath, s.Provision)
	app.Post(PasswordPath, s.Password)

	return nil
}

// Unblock clears the lockout state of the listed users.
func (s *Service) Unblock(c *fiber.Ctx) error {
	req := new(idsRequest)

	if err := c.BodyParser(req); err != nil || len(req.UserIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "userids is required",
		})
	}

	if err := s.svc.Unblock(req.UserIDs); err != nil {
		return handler.Fail(c, err)
	}

	return c.JSON(fiber.Map{"userids": req.UserIDs})
}

// Provision forces a directory re-sync of the listed users. Users whose
// directory cannot be searched are skipped and not reported as synced.
func (s *Service) Provision(c *fiber.Ctx) error {
	req := new(idsRequest)

	if err := c.BodyParser(req); err != nil || len(req.UserIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "userids is required",
		})
	}

	synced, err := s.svc.Provision(c.UserContext(), req.UserIDs)
	if err != nil {
		log.Error().Err(err).Msg("provisioning run failed")
		return handler.Fail(c, err)
	}

	return c.JSON(fiber.Map{"userids": synced})
}

// Password changes the caller's own password and invalidates their other
// sessions.
func (s *Service) Password(c *fiber.Ctx) error {
	uc := handler.UserFromCtx(c)
	if uc == nil {
		return handler.Fail(c, auth.ErrNotAuthorized)
	}

	req := new(passwordRequest)

	if err := c.BodyParser(req); err != nil || req.NewPassword == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "new_password is required",
		})
	}

	if err := s.svc.Credentials().ChangePassword(uc.User.ID, req.OldPassword, req.NewPassword); err != nil {
		return handler.Fail(c, err)
	}

	return c.JSON(fiber.Map{"result": true})
}
