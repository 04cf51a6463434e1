package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hawkmon/hawkmon/internal/config"
	"github.com/hawkmon/hawkmon/internal/db/models"
)

func TestResolvePermissions_NoGroups(t *testing.T) {
	cfg := &config.Auth{DefaultAuth: config.DefaultAuthLDAP}

	perms := ResolvePermissions(&models.User{ID: 1}, nil, cfg)

	// An orphaned user falls back to internal auth, regardless of the
	// server default.
	assert.Equal(t, models.GUIAccessInternal, perms.GUIAccess)
	assert.Equal(t, MethodInternal, perms.Method())
	assert.True(t, perms.Enabled())
	assert.False(t, perms.Deprovisioned)
	assert.Zero(t, perms.UserDirectoryID)
}

func TestResolvePermissions_SystemDefault(t *testing.T) {
	user := &models.User{ID: 1}
	groups := []models.UserGroup{
		{ID: 1, GUIAccess: models.GUIAccessSystem},
	}

	perms := ResolvePermissions(user, groups, &config.Auth{DefaultAuth: config.DefaultAuthInternal})
	assert.Equal(t, models.GUIAccessInternal, perms.GUIAccess)

	perms = ResolvePermissions(user, groups, &config.Auth{DefaultAuth: config.DefaultAuthLDAP})
	assert.Equal(t, models.GUIAccessDirectory, perms.GUIAccess)
}

func TestResolvePermissions_StrictestAccessWins(t *testing.T) {
	user := &models.User{ID: 1}

	tests := []struct {
		name   string
		groups []models.UserGroup
		want   models.GUIAccess
	}{
		{
			name: "internal and directory",
			groups: []models.UserGroup{
				{ID: 1, GUIAccess: models.GUIAccessInternal},
				{ID: 2, GUIAccess: models.GUIAccessDirectory},
			},
			want: models.GUIAccessDirectory,
		},
		{
			name: "disabled beats everything",
			groups: []models.UserGroup{
				{ID: 1, GUIAccess: models.GUIAccessDirectory},
				{ID: 2, GUIAccess: models.GUIAccessDisabled},
				{ID: 3, GUIAccess: models.GUIAccessInternal},
			},
			want: models.GUIAccessDisabled,
		},
		{
			name: "system default loses to explicit directory",
			groups: []models.UserGroup{
				{ID: 1, GUIAccess: models.GUIAccessSystem},
				{ID: 2, GUIAccess: models.GUIAccessDirectory},
			},
			want: models.GUIAccessDirectory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perms := ResolvePermissions(user, tt.groups, &config.Auth{DefaultAuth: config.DefaultAuthInternal})
			assert.Equal(t, tt.want, perms.GUIAccess)
		})
	}
}

func TestResolvePermissions_DisabledAndDebugAggregate(t *testing.T) {
	user := &models.User{ID: 1}
	groups := []models.UserGroup{
		{ID: 1, GUIAccess: models.GUIAccessInternal},
		{ID: 2, GUIAccess: models.GUIAccessInternal, UsersStatus: models.UsersStatusDisabled},
		{ID: 3, GUIAccess: models.GUIAccessInternal, DebugMode: models.DebugModeEnabled},
	}

	perms := ResolvePermissions(user, groups, &config.Auth{DefaultAuth: config.DefaultAuthInternal})

	assert.False(t, perms.Enabled(), "one disabling group disables the user")
	assert.Equal(t, models.DebugModeEnabled, perms.DebugMode, "one debug group enables debug")
}

func TestResolvePermissions_Deprovisioned(t *testing.T) {
	cfg := &config.Auth{DefaultAuth: config.DefaultAuthInternal, DeprovisionedGroupID: 9}
	groups := []models.UserGroup{
		{ID: 9, GUIAccess: models.GUIAccessDisabled, UsersStatus: models.UsersStatusDisabled},
	}

	// Only directory-owned users can be deprovisioned.
	perms := ResolvePermissions(&models.User{ID: 1, UserDirectoryID: 3}, groups, cfg)
	assert.True(t, perms.Deprovisioned)

	perms = ResolvePermissions(&models.User{ID: 2}, groups, cfg)
	assert.False(t, perms.Deprovisioned)
}

func TestResolvePermissions_WinningDirectory(t *testing.T) {
	cfg := &config.Auth{DefaultAuth: config.DefaultAuthInternal}
	user := &models.User{ID: 1}

	groups := []models.UserGroup{
		{
			ID:              1,
			GUIAccess:       models.GUIAccessDirectory,
			UserDirectoryID: 5,
			UserDirectory:   &models.UserDirectory{ID: 5, Name: "corp-b"},
		},
		{
			ID:              2,
			GUIAccess:       models.GUIAccessDirectory,
			UserDirectoryID: 4,
			UserDirectory:   &models.UserDirectory{ID: 4, Name: "corp-a"},
		},
		{
			// Internal group with a directory override loses: its access is
			// not the winning value.
			ID:              3,
			GUIAccess:       models.GUIAccessInternal,
			UserDirectoryID: 7,
			UserDirectory:   &models.UserDirectory{ID: 7, Name: "aaa-first"},
		},
	}

	perms := ResolvePermissions(user, groups, cfg)

	assert.Equal(t, models.GUIAccessDirectory, perms.GUIAccess)
	assert.Equal(t, uint64(4), perms.UserDirectoryID, "first directory by name wins the tie")
}

func TestPermissions_Method(t *testing.T) {
	assert.Equal(t, MethodInternal, Permissions{GUIAccess: models.GUIAccessInternal}.Method())
	assert.Equal(t, MethodDirectory, Permissions{GUIAccess: models.GUIAccessDirectory}.Method())
	assert.Equal(t, MethodNone, Permissions{GUIAccess: models.GUIAccessDisabled}.Method())
}
