package login

import (
	"bytes"
	"encoding/json"
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

func setupTestDB(t *testing.T) *gorm.DB {
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

	return db
}

func newTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	cfg := &config.Config{
		DevMode: true,
		Auth: config.Auth{
			DefaultAuth:       config.DefaultAuthInternal,
			LoginAttempts:     5,
			LoginBlock:        30 * time.Second,
			ProvisionInterval: time.Hour,
		},
	}

	svc := auth.NewService(db, &cfg.Auth, auth.NewClientFactory(), audit.ZerologSink{})

	app := fiber.New()
	require.NoError(t, Handler.Init(app, cfg, svc))

	return app
}

func postLogin(t *testing.T, app *fiber.App, username, password string) *http.Response {
	t.Helper()

	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, Path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func TestLoginHandler(t *testing.T) {
	db := setupTestDB(t)

	user := models.User{
		Username: "jdoe",
		Passwd:   models.HashPassword("s3cret"),
		RoleID:   1,
	}
	require.NoError(t, db.Create(&user).Error)

	app := newTestApp(t, db)

	resp := postLogin(t, app, "jdoe", "s3cret")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "jdoe", payload["username"])
	assert.NotEmpty(t, payload["sessionid"])

	var sessionCookie *http.Cookie

	for _, c := range resp.Cookies() {
		if c.Name == handler.SessionCookieName {
			sessionCookie = c
		}
	}

	require.NotNil(t, sessionCookie, "login sets the session cookie")
	assert.True(t, sessionCookie.HttpOnly)
	assert.Equal(t, payload["sessionid"], sessionCookie.Value)
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	db := setupTestDB(t)

	user := models.User{
		Username: "jdoe",
		Passwd:   models.HashPassword("s3cret"),
		RoleID:   1,
	}
	require.NoError(t, db.Create(&user).Error)

	app := newTestApp(t, db)

	resp := postLogin(t, app, "jdoe", "wrong")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Cookies(), "no cookie on failed login")
}

func TestLoginHandler_BadBody(t *testing.T) {
	app := newTestApp(t, setupTestDB(t))

	req := httptest.NewRequest(http.MethodPost, Path, bytes.NewReader([]byte("not-json")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
