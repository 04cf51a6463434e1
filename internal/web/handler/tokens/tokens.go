// Package tokens exposes API token management. The raw token value is
// returned exactly once, on creation or regeneration; only its digest is
// stored.
package tokens

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/hawkmon/hawkmon/internal/auth"
	"github.com/hawkmon/hawkmon/internal/config"
	"github.com/hawkmon/hawkmon/internal/db/models"
	"github.com/hawkmon/hawkmon/internal/web/handler"
)

const (
	// Path is the path to the token collection.
	Path = handler.APIPath + "/tokens"

	// RegeneratePath rotates the secret of one token.
	RegeneratePath = Path + "/:id/regenerate"
)

// Service is the tokens handler service.
type Service struct {
	cfg *config.Config
	svc *auth.Service
	db  *gorm.DB
}

// Handler is the tokens handler.
var Handler = Service{}

type createRequest struct {
	Name      string `json:"name"`
	UserID    uint64 `json:"userid"`
	ExpiresAt int64  `json:"expires_at"`
}

// Init initializes the tokens handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, svc *auth.Service, db *gorm.DB) error {
	if app == nil || cfg == nil || svc == nil || db == nil {
		return errors.New("app, cfg, svc or db is nil")
	}

	s.cfg = cfg
	s.svc = svc
	s.db = db

	app.Post(Path, s.Create)
	app.Post(RegeneratePath, s.Regenerate)

	return nil
}

// Create issues a new API token for the caller. A userid naming anyone but
// the caller is rejected; issuing tokens on behalf of other users is an
// administrative operation and goes through the role layer, not this handler.
func (s *Service) Create(c *fiber.Ctx) error {
	uc := handler.UserFromCtx(c)
	if uc == nil {
		return handler.Fail(c, auth.ErrNotAuthorized)
	}

	req := new(createRequest)

	if err := c.BodyParser(req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name is required",
		})
	}

	if req.UserID == 0 {
		req.UserID = uc.User.ID
	}

	if req.UserID != uc.User.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "tokens can only be issued for the calling user",
		})
	}

	token, raw, err := s.svc.Tokens().Create(req.UserID, req.Name, req.ExpiresAt, uc.User.ID)
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"tokenid": token.ID,
		"token":   raw,
	})
}

// Regenerate rotates the secret of one of the caller's tokens and returns
// the new raw value. The old secret stops validating immediately. Tokens
// owned by other users are reported as not found.
func (s *Service) Regenerate(c *fiber.Ctx) error {
	uc := handler.UserFromCtx(c)
	if uc == nil {
		return handler.Fail(c, auth.ErrNotAuthorized)
	}

	var token models.Token

	err := s.db.Where("id = ? AND user_id = ?", c.Params("id"), uc.User.ID).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "token not found",
			})
		}

		return handler.Fail(c, err)
	}

	raw, err := s.svc.Tokens().Regenerate(&token)
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.JSON(fiber.Map{
		"tokenid": token.ID,
		"token":   raw,
	})
}
