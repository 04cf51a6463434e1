package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for a wrong password, an unknown
	// username, a deprovisioned user or a user without a role. The cases
	// are deliberately indistinguishable to the client.
	ErrInvalidCredentials = errors.New("incorrect user name or password or account is temporarily blocked")

	// ErrAmbiguousCredentials is returned when a case-insensitive lookup
	// matches more than one account. No password verification is attempted.
	ErrAmbiguousCredentials = errors.New("authentication failed: supplied credentials are not unique")

	// ErrTemporarilyBlocked is returned while the lockout window of a user
	// is active. The password is not checked.
	ErrTemporarilyBlocked = errors.New("account is temporarily blocked")

	// ErrNoSystemAccess is returned when the resolved authentication
	// method denies system access entirely.
	ErrNoSystemAccess = errors.New("no permissions for system access")

	// ErrSessionNotFound is returned when no active session matches the
	// supplied session ID.
	ErrSessionNotFound = errors.New("session terminated, re-login, please")

	// ErrSessionExpired is returned when a session hit its auto-logout
	// window or its owner lost access.
	ErrSessionExpired = errors.New("session terminated, re-login, please")

	// ErrNotAuthorized is returned on the token path when no enabled token
	// matches the digest. Absent and disabled tokens produce the same
	// message to avoid an oracle.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrTokenExpired is returned for an enabled token past its absolute
	// expiry time.
	ErrTokenExpired = errors.New("api token expired")

	// ErrBindFailed is returned by a directory client when the supplied
	// credentials were definitively rejected by the identity provider.
	ErrBindFailed = errors.New("directory bind failed")

	// ErrDirectoryUserNotFound is returned by a directory client when the
	// identity provider definitively does not know the user.
	ErrDirectoryUserNotFound = errors.New("user not found in directory")

	// ErrDirectoryUnavailable is returned on network-level directory
	// failures. It is distinct from credential errors: it must not
	// increment the lockout counter and is retried rather than audited as
	// a failed login.
	ErrDirectoryUnavailable = errors.New("directory unavailable")

	// ErrExactlyOneCredential is returned when an authentication check is
	// asked with both a session ID and a token, or with neither.
	ErrExactlyOneCredential = errors.New("exactly one of session id or token must be supplied")

	// ErrDirectorySearchUnsupported is returned when background
	// provisioning is requested against a directory that can only bind
	// with the logging-in user's own credentials.
	ErrDirectorySearchUnsupported = errors.New("directory does not support service searches")
)
