package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hawkmon/hawkmon/internal/audit"
	"github.com/hawkmon/hawkmon/internal/auth"
	"github.com/hawkmon/hawkmon/internal/config"
	"github.com/hawkmon/hawkmon/internal/db/models"
	"github.com/hawkmon/hawkmon/internal/web/handler"
)

func setupTestService(t *testing.T) (*gorm.DB, *auth.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.User{},
		&models.UserGroup{},
		&models.UserGroupMember{},
		&models.UserDirectory{},
		&models.Session{},
		&models.Token{},
	)
	require.NoError(t, err, "failed to migrate test database")

	cfg := &config.Auth{
		DefaultAuth:       config.DefaultAuthInternal,
		LoginAttempts:     5,
		LoginBlock:        30 * time.Second,
		ProvisionInterval: time.Hour,
	}

	return db, auth.NewService(db, cfg, auth.NewClientFactory(), audit.ZerologSink{})
}

func protectedApp(svc *auth.Service) *fiber.App {
	app := fiber.New()
	app.Use(AuthMiddleware(svc))

	app.Get("/protected", func(c *fiber.Ctx) error {
		uc := handler.UserFromCtx(c)
		return c.JSON(fiber.Map{"username": uc.User.Username})
	})

	app.Get(HealthPath, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	return app
}

func TestAuthMiddleware_NoCredential(t *testing.T) {
	_, svc := setupTestService(t)
	app := protectedApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_PublicPath(t *testing.T) {
	_, svc := setupTestService(t)
	app := protectedApp(svc)

	req := httptest.NewRequest(http.MethodGet, HealthPath, nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthMiddleware_SessionCookie(t *testing.T) {
	db, svc := setupTestService(t)
	app := protectedApp(svc)

	user := models.User{Username: "jdoe", Passwd: models.HashPassword("s3cret"), RoleID: 1}
	require.NoError(t, db.Create(&user).Error)

	session, err := svc.Sessions().Create(&user, time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: handler.SessionCookieName, Value: session.SessionID})

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthMiddleware_BearerToken(t *testing.T) {
	db, svc := setupTestService(t)
	app := protectedApp(svc)

	user := models.User{Username: "jdoe", RoleID: 1}
	require.NoError(t, db.Create(&user).Error)

	_, raw, err := svc.Tokens().Create(user.ID, "api token", 0, user.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+raw)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthMiddleware_TokenBeatsStaleCookie(t *testing.T) {
	db, svc := setupTestService(t)
	app := protectedApp(svc)

	user := models.User{Username: "jdoe", RoleID: 1}
	require.NoError(t, db.Create(&user).Error)

	_, raw, err := svc.Tokens().Create(user.ID, "api token", 0, user.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+raw)
	req.AddCookie(&http.Cookie{Name: handler.SessionCookieName, Value: "stale-session-id"})

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthMiddleware_InvalidSessionClearsCookie(t *testing.T) {
	_, svc := setupTestService(t)
	app := protectedApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: handler.SessionCookieName, Value: "bogus"})

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cookies := resp.Cookies()
	require.NotEmpty(t, cookies, "the stale cookie is cleared")
	assert.Empty(t, cookies[0].Value)
}
