package auth

import (
	"github.com/hawkmon/hawkmon/internal/config"
	"github.com/hawkmon/hawkmon/internal/db/models"
)

// Method is the authentication method a login attempt is dispatched on,
// derived from the resolved group permissions.
type Method string

const (
	// MethodInternal verifies the local password digest.
	MethodInternal Method = "internal"
	// MethodDirectory binds against the resolved LDAP/SAML directory.
	MethodDirectory Method = "directory"
	// MethodNone denies access entirely.
	MethodNone Method = "none"
)

// Permissions is the effective permission record aggregated from a user's
// group memberships.
type Permissions struct {
	// GUIAccess is the winning access value after resolving system-default
	// groups against the server default. Never GUIAccessSystem.
	GUIAccess models.GUIAccess
	// UsersStatus is Disabled if any group disables its members.
	UsersStatus models.UsersStatus
	// DebugMode is Enabled if any group enables it.
	DebugMode models.DebugMode
	// Deprovisioned is set when a directory-owned user sits in the
	// well-known disabled group. The user is still fully evaluated for
	// reporting but is ultimately rejected by the authentication service.
	Deprovisioned bool
	// UserDirectoryID is the directory that authenticates the user, taken
	// from the groups carrying the winning access value. 0 if none.
	UserDirectoryID uint64
}

// Method maps the resolved GUI access onto the login dispatch method.
func (p Permissions) Method() Method {
	switch p.GUIAccess {
	case models.GUIAccessInternal:
		return MethodInternal
	case models.GUIAccessDirectory:
		return MethodDirectory
	default:
		return MethodNone
	}
}

// Enabled reports whether no group disables the user.
func (p Permissions) Enabled() bool {
	return p.UsersStatus == models.UsersStatusEnabled
}

// resolveGUIAccess maps a group-level access value onto a concrete one:
// the system default placeholder resolves to the server-wide setting.
func resolveGUIAccess(access models.GUIAccess, defaultAuth string) models.GUIAccess {
	if access != models.GUIAccessSystem {
		return access
	}

	if defaultAuth == config.DefaultAuthLDAP {
		return models.GUIAccessDirectory
	}

	return models.GUIAccessInternal
}

// ResolvePermissions folds a user's group memberships into the effective
// permission record. It is a pure function over already-fetched data;
// callers fetch the memberships with their directory association preloaded.
//
// A user without any group membership gets internal access by convention:
// an orphaned user is never locked out by the absence of groups.
func ResolvePermissions(user *models.User, groups []models.UserGroup, cfg *config.Auth) Permissions {
	perms := Permissions{
		GUIAccess:   models.GUIAccessInternal,
		UsersStatus: models.UsersStatusEnabled,
		DebugMode:   models.DebugModeDisabled,
	}

	if len(groups) == 0 {
		return perms
	}

	for _, g := range groups {
		if g.DebugMode == models.DebugModeEnabled {
			perms.DebugMode = models.DebugModeEnabled
		}

		if g.UsersStatus == models.UsersStatusDisabled {
			perms.UsersStatus = models.UsersStatusDisabled
		}

		if cfg.DeprovisionedGroupID != 0 && g.ID == cfg.DeprovisionedGroupID && user.UserDirectoryID != 0 {
			perms.Deprovisioned = true
		}

		if access := resolveGUIAccess(g.GUIAccess, cfg.DefaultAuth); access > perms.GUIAccess {
			perms.GUIAccess = access
		}
	}

	perms.UserDirectoryID = winningDirectory(groups, perms.GUIAccess, cfg.DefaultAuth)

	return perms
}

// winningDirectory picks the directory among groups whose resolved access
// equals the winning value. When several compete, the directory first by
// name wins, so the choice is deterministic across logins.
func winningDirectory(groups []models.UserGroup, winner models.GUIAccess, defaultAuth string) uint64 {
	var (
		bestID   uint64
		bestName string
	)

	for _, g := range groups {
		if g.UserDirectoryID == 0 || resolveGUIAccess(g.GUIAccess, defaultAuth) != winner {
			continue
		}

		name := ""
		if g.UserDirectory != nil {
			name = g.UserDirectory.Name
		}

		if bestID == 0 || name < bestName {
			bestID = g.UserDirectoryID
			bestName = name
		}
	}

	return bestID
}
