package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/hawkmon/hawkmon/internal/auth"
	"github.com/hawkmon/hawkmon/internal/web/handler"
	"github.com/hawkmon/hawkmon/internal/web/handler/login"
	"github.com/hawkmon/hawkmon/internal/web/handler/sso"
)

const bearerPrefix = "Bearer "

// publicPaths are reachable without a session or token.
var publicPaths = map[string]bool{
	login.Path:       true,
	sso.LoginPath:    true,
	sso.CallbackPath: true,
	HealthPath:       true,
	MetricsPath:      true,
}

// AuthMiddleware resolves the request credential (session cookie or bearer
// token) and stores the user context in fiber.Locals. Requests with
// neither, or with a credential that no longer validates, are rejected.
func AuthMiddleware(svc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if publicPaths[c.Path()] {
			return c.Next()
		}

		req := auth.CheckRequest{
			SessionID: c.Cookies(handler.SessionCookieName),
			Extend:    c.Get("X-No-Session-Extension") == "",
		}

		if authz := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(authz, bearerPrefix) {
			req.Token = strings.TrimPrefix(authz, bearerPrefix)
			// a stale cookie must not shadow an explicit token
			req.SessionID = ""
		}

		if req.SessionID == "" && req.Token == "" {
			return handler.Fail(c, auth.ErrNotAuthorized)
		}

		uc, err := svc.CheckAuthentication(c.UserContext(), req)
		if err != nil {
			if req.SessionID != "" {
				c.ClearCookie(handler.SessionCookieName)
			}

			return handler.Fail(c, err)
		}

		c.Locals(handler.LocalsUserKey, uc)

		return c.Next()
	}
}
