package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/hawkmon/hawkmon/internal/auth"
)

// Fail writes the standard JSON error envelope with the HTTP status that
// matches the authentication error. Credential failures deliberately share
// one message so callers cannot probe which account exists.
func Fail(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrTemporarilyBlocked),
		errors.Is(err, auth.ErrNoSystemAccess),
		errors.Is(err, auth.ErrSessionNotFound),
		errors.Is(err, auth.ErrSessionExpired),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrNotAuthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, auth.ErrAmbiguousCredentials),
		errors.Is(err, auth.ErrExactlyOneCredential),
		errors.Is(err, auth.ErrInvalidOldPassword),
		errors.Is(err, auth.ErrDirectoryOwnedUser):
		return fiber.StatusBadRequest
	case errors.Is(err, auth.ErrDirectoryUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
