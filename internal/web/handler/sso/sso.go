// Package sso implements the OpenID Connect login flow. The identity
// assertion is verified by the provider; the resulting attribute set is fed
// through the same provisioning path a directory login uses.
package sso

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/hawkmon/hawkmon/internal/auth"
	"github.com/hawkmon/hawkmon/internal/config"
	"github.com/hawkmon/hawkmon/internal/web/handler"
	"github.com/hawkmon/hawkmon/internal/web/handler/login"
)

const (
	// LoginPath initiates the SSO login flow.
	LoginPath = "/sso/login"

	// CallbackPath is the provider redirect target.
	CallbackPath = "/sso/callback"

	stateTTL = 5 * time.Minute
)

// Service is the SSO handler service.
type Service struct {
	cfg      *config.Config
	svc      *auth.Service
	provider *auth.SSOProvider

	mu         sync.Mutex
	stateStore map[string]time.Time
}

// Handler is the SSO handler.
var Handler = Service{
	stateStore: make(map[string]time.Time),
}

// Init initializes the SSO handler. A missing or unreachable provider
// disables the flow without failing startup.
func (s *Service) Init(app *fiber.App, cfg *config.Config, svc *auth.Service) error {
	if app == nil || cfg == nil || svc == nil {
		return errors.New("app, cfg or svc is nil")
	}

	s.cfg = cfg
	s.svc = svc

	provider, err := auth.NewSSOProvider(context.Background(), &cfg.SSO)
	if err != nil {
		if errors.Is(err, auth.ErrSSODisabled) {
			log.Info().Msg("sso authentication is disabled by configuration")
		} else {
			log.Warn().Err(err).Msg("failed to initialize sso provider, sso login disabled")
		}

		return nil
	}

	s.provider = provider

	log.Info().Msg("sso authentication provider initialized")

	app.Get(LoginPath, s.Login)
	app.Get(CallbackPath, s.Callback)

	go s.cleanupStates()

	return nil
}

// Login redirects the browser to the identity provider.
func (s *Service) Login(c *fiber.Ctx) error {
	state, err := auth.GenerateStateToken()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate state token")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	s.mu.Lock()
	s.stateStore[state] = time.Now().Add(stateTTL)
	s.mu.Unlock()

	return c.Redirect(s.provider.AuthURL(state))
}

// Callback redeems the authorization code and logs the asserted user in.
func (s *Service) Callback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")

	if code == "" || state == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid callback parameters",
		})
	}

	if !s.consumeState(state) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid state token",
		})
	}

	username, attrs, err := s.provider.Exchange(c.UserContext(), code)
	if err != nil {
		log.Error().Err(err).Msg("sso authentication failed")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication failed",
		})
	}

	uc, err := s.svc.LoginByUsername(c.UserContext(), username, attrs, s.provider.DirectoryID(), c.IP())
	if err != nil {
		log.Info().Err(err).Str("username", username).Msg("sso login rejected")
		return handler.Fail(c, err)
	}

	login.SetSessionCookie(c, s.cfg, uc.SessionID)

	return c.Redirect("/")
}

func (s *Service) consumeState(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiration, exists := s.stateStore[state]
	if !exists {
		return false
	}

	delete(s.stateStore, state)

	return time.Now().Before(expiration)
}

func (s *Service) cleanupStates() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()

		s.mu.Lock()
		for state, expiration := range s.stateStore {
			if now.After(expiration) {
				delete(s.stateStore, state)
			}
		}
		s.mu.Unlock()
	}
}
