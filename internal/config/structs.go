package config

import (
	"time"

	"github.com/hawkmon/hawkmon/internal/logger"
)

// Auth holds the authentication policy settings.
type Auth struct {
	// DefaultAuth is the server-wide authentication type ("internal" or
	// "ldap") applied to groups with system-default GUI access.
	DefaultAuth string
	// CaseSensitiveLogin controls username matching for directory users.
	// Internal-auth usernames are always matched case-sensitively.
	CaseSensitiveLogin bool
	// LoginAttempts is the number of consecutive failures before a block.
	LoginAttempts int
	// LoginBlock is how long further attempts are rejected after the
	// threshold is reached.
	LoginBlock time.Duration
	// ProvisionInterval is the minimum time between directory re-syncs of
	// a provisioned user.
	ProvisionInterval time.Duration
	// DeprovisionedGroupID is the well-known disabled group that
	// deprovisioned users are moved into; 0 disables deprovisioning.
	DeprovisionedGroupID uint64
	// DefaultDirectoryID is the directory used when the winning group set
	// carries no directory override; 0 means none configured.
	DefaultDirectoryID uint64
}

// SSO holds the OpenID Connect settings for the federated login path.
type SSO struct {
	Enabled      bool
	ProviderURL  string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	// GroupsClaim is the ID token claim carrying IdP group names.
	GroupsClaim string
	// UserDirectoryID selects whose provisioning rules apply to SSO logins.
	UserDirectoryID uint64
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Auth      Auth
	SSO       SSO
	Webserver Webserver
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool   // disable recover middleware
	Domain         string // domain name for the webserver
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
}
