package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/hawkmon/hawkmon/internal/config"
)

// ErrSSODisabled is returned when the federated login path is disabled via configuration.
var ErrSSODisabled = errors.New("sso authentication is disabled")

// ErrNoIDToken is returned when the OAuth2 token response doesn't contain an ID token.
var ErrNoIDToken = errors.New("no id_token in token response")

// SSOProvider verifies OpenID Connect assertions and converts their claims
// into the same AttributeSet a directory client produces, so the federated
// login path reuses the provisioning machinery unchanged.
type SSOProvider struct {
	cfg      *config.SSO
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	oauth2   oauth2.Config
}

// NewSSOProvider creates an SSO provider from the configured issuer.
func NewSSOProvider(ctx context.Context, cfg *config.SSO) (*SSOProvider, error) {
	if !cfg.Enabled {
		return nil, ErrSSODisabled
	}

	provider, err := oidc.NewProvider(ctx, cfg.ProviderURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID: cfg.ClientID,
	})

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	oauth2Config := oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       scopes,
	}

	return &SSOProvider{
		cfg:      cfg,
		provider: provider,
		verifier: verifier,
		oauth2:   oauth2Config,
	}, nil
}

// GenerateStateToken generates a random state token for CSRF protection.
func GenerateStateToken() (string, error) {
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	return base64.URLEncoding.EncodeToString(b), nil
}

// AuthURL returns the provider's authorization URL with the state token.
func (p *SSOProvider) AuthURL(state string) string {
	return p.oauth2.AuthCodeURL(state)
}

// DirectoryID returns the directory whose provisioning rules apply to SSO
// logins.
func (p *SSOProvider) DirectoryID() uint64 {
	return p.cfg.UserDirectoryID
}

// Exchange redeems the authorization code, verifies the ID token and maps
// its claims to the login name and attribute set.
func (p *SSOProvider) Exchange(ctx context.Context, code string) (string, *AttributeSet, error) {
	oauth2Token, err := p.oauth2.Exchange(ctx, code)
	if err != nil {
		return "", nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return "", nil, ErrNoIDToken
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return "", nil, fmt.Errorf("failed to verify id token: %w", err)
	}

	var claims map[string]interface{}
	if err = idToken.Claims(&claims); err != nil {
		return "", nil, fmt.Errorf("failed to parse claims: %w", err)
	}

	username := stringClaim(claims, "preferred_username")
	if username == "" {
		username = stringClaim(claims, "email")
	}

	if username == "" {
		return "", nil, ErrBindFailed
	}

	groupsClaim := p.cfg.GroupsClaim
	if groupsClaim == "" {
		groupsClaim = "groups"
	}

	attrs := &AttributeSet{
		Username: username,
		Name:     stringClaim(claims, "given_name"),
		Surname:  stringClaim(claims, "family_name"),
		Groups:   stringSliceClaim(claims, groupsClaim),
		Media:    map[string][]string{},
	}

	if email := stringClaim(claims, "email"); email != "" {
		attrs.Media["email"] = []string{email}
	}

	return username, attrs, nil
}

func stringClaim(claims map[string]interface{}, name string) string {
	if v, ok := claims[name].(string); ok {
		return v
	}

	return ""
}

func stringSliceClaim(claims map[string]interface{}, name string) []string {
	raw, ok := claims[name].([]interface{})
	if !ok {
		return nil
	}

	out := make([]string, 0, len(raw))

	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}

	return out
}
