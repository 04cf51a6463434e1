package auth

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/hawkmon/hawkmon/internal/audit"
	"github.com/hawkmon/hawkmon/internal/config"
	"github.com/hawkmon/hawkmon/internal/db/models"
)

// UserContext is the resolved identity of an authenticated request. It is
// threaded explicitly through the call chain; there is no process-global
// "current user".
type UserContext struct {
	User        models.User
	Permissions Permissions
	// SessionID is set on the session path, empty on the token path.
	SessionID string
}

// CheckRequest carries the credential for an authentication check. Exactly
// one of SessionID and Token must be set.
type CheckRequest struct {
	SessionID string
	Token     string
	// Extend slides the session window forward. Polling callers opt out.
	Extend bool
}

// Service orchestrates login, session/token authentication checks and
// logout. It is request-scoped and stateless between calls: all state
// lives in the backing store.
type Service struct {
	cfg         *config.Auth
	creds       *CredentialStore
	lockout     *LockoutTracker
	provisioner *Provisioner
	sessions    *SessionManager
	tokens      *TokenManager
	clients     ClientFactory
	sink        audit.Sink
}

// NewService composes the authentication service over one database.
func NewService(db *gorm.DB, cfg *config.Auth, clients ClientFactory, sink audit.Sink) *Service {
	return &Service{
		cfg:         cfg,
		creds:       NewCredentialStore(db),
		lockout:     NewLockoutTracker(db, sink, cfg.LoginAttempts, cfg.LoginBlock),
		provisioner: NewProvisioner(db, sink, cfg),
		sessions:    NewSessionManager(db),
		tokens:      NewTokenManager(db),
		clients:     clients,
		sink:        sink,
	}
}

// Sessions exposes the session manager to the web layer.
func (s *Service) Sessions() *SessionManager { return s.sessions }

// Tokens exposes the token manager to the admin surface.
func (s *Service) Tokens() *TokenManager { return s.tokens }

// Credentials exposes the credential store.
func (s *Service) Credentials() *CredentialStore { return s.creds }

// resolve fetches the user's memberships and folds them into the effective
// permission record.
func (s *Service) resolve(user *models.User) (Permissions, error) {
	groups, err := s.creds.Memberships(user.ID)
	if err != nil {
		return Permissions{}, err
	}

	return ResolvePermissions(user, groups, s.cfg), nil
}

// directoryFor picks the directory that authenticates the user: the
// group-level override wins, then the directory owning the user, then the
// server default.
func (s *Service) directoryFor(user *models.User, perms Permissions) (*models.UserDirectory, error) {
	id := perms.UserDirectoryID
	if id == 0 {
		id = user.UserDirectoryID
	}

	if id == 0 {
		id = s.cfg.DefaultDirectoryID
	}

	if id == 0 {
		return nil, nil
	}

	return s.creds.Directory(id)
}

// Login authenticates a username/password pair from the given client
// address and opens a session on success.
func (s *Service) Login(ctx context.Context, username, password, ip string) (*UserContext, error) {
	now := time.Now()

	user, perms, err := s.findCandidate(username, ip)
	if err != nil {
		return nil, err
	}

	if user == nil {
		// No local account: a directory with JIT provisioning may still
		// know the user.
		user, perms, err = s.firstLogin(ctx, username, password, ip, now)
		if err != nil {
			return nil, err
		}
	} else {
		if s.lockout.IsBlocked(user, now) {
			loginCounter.WithLabelValues(resultBlocked).Inc()
			s.sink.Record(audit.Event{
				Action:   audit.ActionLoginBlocked,
				Username: username,
				UserID:   user.ID,
				IP:       ip,
				Details:  "login rejected, lockout window active",
			})

			return nil, ErrTemporarilyBlocked
		}

		perms, err = s.dispatch(ctx, user, perms, password, ip, now)
		if err != nil {
			return nil, err
		}
	}

	// Deprovisioned users and users without a role fail exactly like a
	// wrong password; the distinction stays in the audit trail.
	if perms.Deprovisioned || user.RoleID == 0 {
		loginCounter.WithLabelValues(resultInvalid).Inc()
		s.sink.Record(audit.Event{
			Action:   audit.ActionLoginFailed,
			Username: username,
			UserID:   user.ID,
			IP:       ip,
			Details:  "login rejected, user has no access",
		})

		return nil, ErrInvalidCredentials
	}

	if err = s.lockout.RecordSuccess(user); err != nil {
		return nil, err
	}

	session, err := s.sessions.Create(user, now)
	if err != nil {
		return nil, err
	}

	loginCounter.WithLabelValues(resultSuccess).Inc()
	s.sink.Record(audit.Event{Action: audit.ActionLogin, Username: user.Username, UserID: user.ID, IP: ip})

	return &UserContext{User: *user, Permissions: perms, SessionID: session.SessionID}, nil
}

// findCandidate locates the single user a login attempt may act on.
// A nil user with nil error means no local account exists.
func (s *Service) findCandidate(username, ip string) (*models.User, Permissions, error) {
	users, err := s.creds.FindByUsername(username, s.cfg.CaseSensitiveLogin)
	if err != nil {
		return nil, Permissions{}, err
	}

	type candidate struct {
		user  models.User
		perms Permissions
	}

	candidates := make([]candidate, 0, len(users))

	for i := range users {
		perms, errResolve := s.resolve(&users[i])
		if errResolve != nil {
			return nil, Permissions{}, errResolve
		}

		// Internal-auth usernames stay case sensitive even under global
		// case-insensitive matching, so two internal accounts differing
		// only by case never merge.
		if !s.cfg.CaseSensitiveLogin && perms.Method() == MethodInternal && users[i].Username != username {
			continue
		}

		candidates = append(candidates, candidate{user: users[i], perms: perms})
	}

	if len(candidates) > 1 {
		loginCounter.WithLabelValues(resultAmbiguous).Inc()
		s.sink.Record(audit.Event{
			Action:   audit.ActionLoginFailed,
			Username: username,
			IP:       ip,
			Details:  "login rejected, supplied credentials are not unique",
		})

		return nil, Permissions{}, ErrAmbiguousCredentials
	}

	if len(candidates) == 0 {
		return nil, Permissions{}, nil
	}

	c := candidates[0]

	if !c.perms.Enabled() {
		loginCounter.WithLabelValues(resultInvalid).Inc()
		s.sink.Record(audit.Event{
			Action:   audit.ActionLoginFailed,
			Username: username,
			UserID:   c.user.ID,
			IP:       ip,
			Details:  "login rejected, user is disabled",
		})

		return nil, Permissions{}, ErrInvalidCredentials
	}

	return &c.user, c.perms, nil
}

// dispatch verifies the password according to the resolved authentication
// method and runs the provisioning update for directory users.
func (s *Service) dispatch(
	ctx context.Context,
	user *models.User,
	perms Permissions,
	password, ip string,
	now time.Time,
) (Permissions, error) {
	switch perms.Method() {
	case MethodInternal:
		// Directory-owned users never verify against the local digest.
		if user.UserDirectoryID != 0 || !user.VerifyPassword(password) {
			return perms, s.failLogin(user, perms, ip, now)
		}

		return perms, nil

	case MethodDirectory:
		return s.dispatchDirectory(ctx, user, perms, password, ip, now)

	default:
		loginCounter.WithLabelValues(resultNoAccess).Inc()
		s.sink.Record(audit.Event{
			Action:   audit.ActionLoginFailed,
			Username: user.Username,
			UserID:   user.ID,
			IP:       ip,
			Details:  "login rejected, no system access",
		})

		return perms, ErrNoSystemAccess
	}
}

// dispatchDirectory binds against the resolved directory and re-syncs the
// user when provisioning is enabled.
func (s *Service) dispatchDirectory(
	ctx context.Context,
	user *models.User,
	perms Permissions,
	password, ip string,
	now time.Time,
) (Permissions, error) {
	dir, err := s.directoryFor(user, perms)
	if err != nil {
		return perms, err
	}

	if dir == nil {
		log.Warn().Str("username", user.Username).Msg("directory auth requested but no directory configured")
		return perms, s.failLogin(user, perms, ip, now)
	}

	client, err := s.clients(dir)
	if err != nil {
		return perms, err
	}

	attrs, err := client.Bind(ctx, user.Username, password)

	switch {
	case errors.Is(err, ErrDirectoryUnavailable):
		// Infrastructure failure: not a failed login, no lockout, the
		// caller retries.
		loginCounter.WithLabelValues(resultUnavailable).Inc()
		return perms, err

	case errors.Is(err, ErrBindFailed), errors.Is(err, ErrDirectoryUserNotFound):
		return perms, s.failLogin(user, perms, ip, now)

	case err != nil:
		return perms, err
	}

	if dir.ProvisionEnabled() && user.UserDirectoryID == dir.ID {
		deprovisioned, errSync := s.provisioner.UpdateProvisionedUser(dir, user, attrs, now)
		if errSync != nil {
			return perms, errSync
		}

		if deprovisioned {
			loginCounter.WithLabelValues(resultInvalid).Inc()
			return perms, ErrInvalidCredentials
		}

		// Role and groups may have changed; resolve again.
		return s.resolve(user)
	}

	return perms, nil
}

// failLogin records a definitive verification failure. Deprovisioned users
// skip the counter: their failure is meaningless.
func (s *Service) failLogin(user *models.User, perms Permissions, ip string, now time.Time) error {
	loginCounter.WithLabelValues(resultInvalid).Inc()

	if !perms.Deprovisioned {
		if err := s.lockout.RecordFailure(user, now, ip); err != nil {
			return err
		}
	}

	return ErrInvalidCredentials
}

// firstLogin handles the JIT path: no local account exists, but the default
// directory may authenticate the user and provision a record.
func (s *Service) firstLogin(
	ctx context.Context,
	username, password, ip string,
	now time.Time,
) (*models.User, Permissions, error) {
	unknown := func(details string) (*models.User, Permissions, error) {
		loginCounter.WithLabelValues(resultInvalid).Inc()
		s.sink.Record(audit.Event{
			Action:   audit.ActionLoginFailed,
			Username: username,
			IP:       ip,
			Details:  details,
		})

		return nil, Permissions{}, ErrInvalidCredentials
	}

	if s.cfg.DefaultDirectoryID == 0 {
		return unknown("login rejected, unknown user")
	}

	dir, err := s.creds.Directory(s.cfg.DefaultDirectoryID)
	if err != nil {
		return nil, Permissions{}, err
	}

	// A directory that binds with the user's own DN cannot be searched for
	// attributes, so it cannot provision either.
	if !dir.ProvisionEnabled() || dir.BindMode == models.BindModeUserDN || dir.IdpType != models.IdpTypeLDAP {
		return unknown("login rejected, unknown user")
	}

	client, err := s.clients(dir)
	if err != nil {
		return nil, Permissions{}, err
	}

	attrs, err := client.Bind(ctx, username, password)

	switch {
	case errors.Is(err, ErrDirectoryUnavailable):
		loginCounter.WithLabelValues(resultUnavailable).Inc()
		return nil, Permissions{}, err

	case errors.Is(err, ErrBindFailed), errors.Is(err, ErrDirectoryUserNotFound):
		return unknown("login rejected, unknown user")

	case err != nil:
		return nil, Permissions{}, err
	}

	if _, groupIDs := s.provisioner.MapGroups(dir, attrs.Groups); len(groupIDs) == 0 {
		return unknown("login rejected, no matching directory groups")
	}

	attrs.Username = username

	user, err := s.provisioner.CreateProvisionedUser(dir, attrs, now)
	if err != nil {
		return nil, Permissions{}, err
	}

	perms, err := s.resolve(user)
	if err != nil {
		return nil, Permissions{}, err
	}

	return user, perms, nil
}

// LoginByUsername opens a session for a user whose identity was verified
// outside this service (SSO assertion). Credential verification and the
// lockout counter are skipped; provisioning and access checks still run.
func (s *Service) LoginByUsername(
	ctx context.Context,
	username string,
	attrs *AttributeSet,
	directoryID uint64,
	ip string,
) (*UserContext, error) {
	now := time.Now()

	users, err := s.creds.FindByUsername(username, true)
	if err != nil {
		return nil, err
	}

	var (
		user  *models.User
		perms Permissions
	)

	dir, err := s.creds.Directory(directoryID)
	if err != nil {
		return nil, err
	}

	if len(users) == 0 {
		if !dir.ProvisionEnabled() {
			return nil, ErrInvalidCredentials
		}

		attrs.Username = username

		if user, err = s.provisioner.CreateProvisionedUser(dir, attrs, now); err != nil {
			return nil, err
		}
	} else {
		user = &users[0]

		if dir.ProvisionEnabled() && user.UserDirectoryID == dir.ID {
			deprovisioned, errSync := s.provisioner.UpdateProvisionedUser(dir, user, attrs, now)
			if errSync != nil {
				return nil, errSync
			}

			if deprovisioned {
				return nil, ErrInvalidCredentials
			}
		}
	}

	if perms, err = s.resolve(user); err != nil {
		return nil, err
	}

	if !perms.Enabled() || perms.Deprovisioned || user.RoleID == 0 {
		return nil, ErrInvalidCredentials
	}

	session, err := s.sessions.Create(user, now)
	if err != nil {
		return nil, err
	}

	s.sink.Record(audit.Event{Action: audit.ActionLogin, Username: user.Username, UserID: user.ID, IP: ip, Details: "sso"})

	return &UserContext{User: *user, Permissions: perms, SessionID: session.SessionID}, nil
}

// CheckAuthentication validates a session ID or an API token and returns
// the resolved user context used by downstream request handling.
func (s *Service) CheckAuthentication(ctx context.Context, req CheckRequest) (*UserContext, error) {
	if (req.SessionID == "") == (req.Token == "") {
		return nil, ErrExactlyOneCredential
	}

	now := time.Now()

	if req.Token != "" {
		return s.checkToken(req.Token, now)
	}

	return s.checkSession(ctx, req.SessionID, req.Extend, now)
}

// checkToken resolves the token path of an authentication check.
func (s *Service) checkToken(raw string, now time.Time) (*UserContext, error) {
	token, err := s.tokens.Validate(raw, now)
	if err != nil {
		return nil, err
	}

	user, err := s.creds.GetUserByID(token.UserID)
	if err != nil {
		return nil, ErrNotAuthorized
	}

	perms, err := s.resolve(user)
	if err != nil {
		return nil, err
	}

	if !perms.Enabled() || perms.Deprovisioned || user.RoleID == 0 {
		return nil, ErrNotAuthorized
	}

	if err = s.tokens.Touch(token, now); err != nil {
		return nil, err
	}

	return &UserContext{User: *user, Permissions: perms}, nil
}

// checkSession resolves the session path of an authentication check,
// including the lazy re-provisioning of directory users.
func (s *Service) checkSession(ctx context.Context, sessionID string, extend bool, now time.Time) (*UserContext, error) {
	session, err := s.sessions.Find(sessionID)
	if err != nil {
		return nil, err
	}

	user, err := s.creds.GetUserByID(session.UserID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	perms, err := s.resolve(user)
	if err != nil {
		return nil, err
	}

	expired := s.sessions.IsExpired(session, user.AutoLogout, now) ||
		!perms.Enabled() || perms.Deprovisioned || user.RoleID == 0

	if !expired {
		perms, expired, err = s.maybeProvision(ctx, user, perms, now)
		if err != nil {
			return nil, err
		}
	}

	if expired {
		if errExpire := s.sessions.Expire(session); errExpire != nil {
			return nil, errExpire
		}

		return nil, ErrSessionExpired
	}

	if extend {
		if err = s.sessions.Extend(session, now); err != nil {
			return nil, err
		}
	}

	return &UserContext{User: *user, Permissions: perms, SessionID: session.SessionID}, nil
}

// maybeProvision lazily re-syncs a directory user once the provisioning
// interval elapsed. Identity answers from the directory are authoritative
// (user gone means access gone); infrastructure failures leave the
// session's existing permissions intact for this request.
func (s *Service) maybeProvision(
	ctx context.Context,
	user *models.User,
	perms Permissions,
	now time.Time,
) (Permissions, bool, error) {
	if user.UserDirectoryID == 0 || !s.provisioner.IsTimeToProvision(user.TSProvisioned, now) {
		return perms, false, nil
	}

	dir, err := s.creds.Directory(user.UserDirectoryID)
	if err != nil {
		return perms, false, err
	}

	if !dir.ProvisionEnabled() || !dir.CanSearch() {
		return perms, false, nil
	}

	client, err := s.clients(dir)
	if err != nil {
		return perms, false, err
	}

	attrs, err := client.FetchAttributes(ctx, user.Username)

	switch {
	case errors.Is(err, ErrDirectoryUserNotFound):
		// The directory no longer knows the user: deprovision.
		attrs = &AttributeSet{Username: user.Username}

	case err != nil:
		log.Warn().Err(err).Str("username", user.Username).Msg("re-provisioning skipped, directory unreachable")
		return perms, false, nil
	}

	deprovisioned, err := s.provisioner.UpdateProvisionedUser(dir, user, attrs, now)
	if err != nil {
		return perms, false, err
	}

	if deprovisioned {
		return perms, true, nil
	}

	perms, err = s.resolve(user)
	if err != nil {
		return perms, false, err
	}

	return perms, !perms.Enabled() || perms.Deprovisioned || user.RoleID == 0, nil
}

// Logout terminates the session. Directory users get one last provisioning
// sync, so an externally-revoked user is cleaned up even on graceful
// logout.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	session, err := s.sessions.Find(sessionID)
	if err != nil {
		return err
	}

	user, err := s.creds.GetUserByID(session.UserID)
	if err != nil {
		return ErrSessionNotFound
	}

	if perms, errResolve := s.resolve(user); errResolve == nil {
		if _, _, errProv := s.maybeProvision(ctx, user, perms, time.Now()); errProv != nil {
			log.Warn().Err(errProv).Msg("logout provisioning sync failed")
		}
	}

	if err = s.sessions.Logout(session); err != nil {
		return err
	}

	s.sink.Record(audit.Event{Action: audit.ActionLogout, Username: user.Username, UserID: user.ID})

	return nil
}

// Unblock resets the lockout counters of the given users (privileged).
func (s *Service) Unblock(userIDs []uint64) error {
	return s.lockout.Reset(userIDs)
}

// Provision forces a directory re-sync of the given users (privileged) and
// returns the IDs that were actually synced.
func (s *Service) Provision(ctx context.Context, userIDs []uint64) ([]uint64, error) {
	provisioned := make([]uint64, 0, len(userIDs))

	for _, id := range userIDs {
		user, err := s.creds.GetUserByID(id)
		if err != nil {
			continue
		}

		if user.UserDirectoryID == 0 {
			continue
		}

		dir, err := s.creds.Directory(user.UserDirectoryID)
		if err != nil {
			return provisioned, err
		}

		if !dir.ProvisionEnabled() || !dir.CanSearch() {
			continue
		}

		client, err := s.clients(dir)
		if err != nil {
			return provisioned, err
		}

		attrs, err := client.FetchAttributes(ctx, user.Username)

		switch {
		case errors.Is(err, ErrDirectoryUserNotFound):
			attrs = &AttributeSet{Username: user.Username}

		case err != nil:
			log.Warn().Err(err).Uint64("user_id", id).Msg("provisioning skipped, directory unreachable")
			continue
		}

		if _, err = s.provisioner.UpdateProvisionedUser(dir, user, attrs, time.Now()); err != nil {
			return provisioned, err
		}

		provisioned = append(provisioned, id)
	}

	return provisioned, nil
}
