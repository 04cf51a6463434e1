package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hawkmon/hawkmon/internal/audit"
	"github.com/hawkmon/hawkmon/internal/config"
	"github.com/hawkmon/hawkmon/internal/db/models"
)

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"admins", "admins", true},
		{"Admins", "admins", true},
		{"admins", "ADMINS", true},
		{"admins", "admin", false},
		{"*", "anything", true},
		{"*", "", true},
		{"ops-*", "ops-eu", true},
		{"ops-*", "dev-eu", false},
		{"*-eu", "ops-eu", true},
		{"*-eu", "ops-us", false},
		{"ops-*-admins", "ops-eu-admins", true},
		{"ops-*-admins", "ops-admins", false},
		{"a*b*c", "axxbyyc", true},
		{"a*b*c", "acb", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchPattern(tt.pattern, tt.name))
		})
	}
}

// provisionFixture creates a directory with two mapping rules and the local
// groups, roles and media types they reference. The mapped groups carry
// directory GUI access, so a provisioned member keeps authenticating against
// the directory.
func provisionFixture(t *testing.T, db *gorm.DB) *models.UserDirectory {
	t.Helper()

	dir := models.UserDirectory{
		Name:            "corp",
		IdpType:         models.IdpTypeLDAP,
		BindMode:        models.BindModeService,
		ProvisionStatus: models.ProvisionStatusEnabled,
	}
	require.NoError(t, db.Create(&dir).Error)

	groupOps := models.UserGroup{
		Name:            "ops",
		GUIAccess:       models.GUIAccessDirectory,
		UserDirectoryID: dir.ID,
	}
	groupAdmins := models.UserGroup{
		Name:            "admins",
		GUIAccess:       models.GUIAccessDirectory,
		UserDirectoryID: dir.ID,
	}
	require.NoError(t, db.Create(&groupOps).Error)
	require.NoError(t, db.Create(&groupAdmins).Error)

	roleAdmin := models.Role{Name: "admin"}
	roleUser := models.Role{Name: "user"}
	require.NoError(t, db.Create(&roleAdmin).Error)
	require.NoError(t, db.Create(&roleUser).Error)

	mailType := models.MediaType{Name: "Email", Kind: models.MediaKindEmail}
	require.NoError(t, db.Create(&mailType).Error)

	dir.GroupMappings = []models.DirectoryGroupMapping{
		{
			UserDirectoryID: dir.ID,
			Pattern:         "hawkmon-admins",
			RoleID:          roleAdmin.ID,
			Groups:          []models.UserGroup{groupAdmins, groupOps},
		},
		{
			UserDirectoryID: dir.ID,
			Pattern:         "hawkmon-*",
			RoleID:          roleUser.ID,
			Groups:          []models.UserGroup{groupOps},
		},
	}
	dir.MediaMappings = []models.DirectoryMediaMapping{
		{UserDirectoryID: dir.ID, Name: "work email", MediaTypeID: mailType.ID, Attribute: "mail"},
	}

	for i := range dir.GroupMappings {
		require.NoError(t, db.Create(&dir.GroupMappings[i]).Error)
	}

	for i := range dir.MediaMappings {
		require.NoError(t, db.Create(&dir.MediaMappings[i]).Error)
	}

	return &dir
}

func TestMapGroups(t *testing.T) {
	db := setupTestDB(t)
	dir := provisionFixture(t, db)
	p := NewProvisioner(db, audit.ZerologSink{}, testAuthConfig())

	roleID, groupIDs := p.MapGroups(dir, []string{"hawkmon-admins"})
	assert.Equal(t, dir.GroupMappings[0].RoleID, roleID, "role comes from the first matching rule")
	assert.Len(t, groupIDs, 2, "groups are the union over matching rules")

	roleID, groupIDs = p.MapGroups(dir, []string{"hawkmon-users"})
	assert.Equal(t, dir.GroupMappings[1].RoleID, roleID)
	assert.Len(t, groupIDs, 1)

	roleID, groupIDs = p.MapGroups(dir, []string{"unrelated"})
	assert.Zero(t, roleID)
	assert.Empty(t, groupIDs)
}

func TestSanitizeMedia(t *testing.T) {
	db := setupTestDB(t)
	dir := provisionFixture(t, db)
	p := NewProvisioner(db, audit.ZerologSink{}, testAuthConfig())

	attrs := &AttributeSet{
		Media: map[string][]string{
			"mail": {" jdoe@example.com ", "not-an-address", "", "ops@example.com"},
		},
	}

	media, err := p.SanitizeMedia(dir, attrs)
	require.NoError(t, err)
	require.Len(t, media, 1)

	assert.Equal(t, "jdoe@example.com\nops@example.com", media[0].Sendto,
		"recipients are trimmed and invalid addresses dropped")
}

func TestSanitizeMedia_OverflowDropsFromEnd(t *testing.T) {
	db := setupTestDB(t)
	dir := provisionFixture(t, db)
	p := NewProvisioner(db, audit.ZerologSink{}, testAuthConfig())

	// Each address is ~70 chars; enough of them overflow the storage limit.
	addresses := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		addresses = append(addresses, strings.Repeat("x", 60)+"@example.com")
	}

	media, err := p.SanitizeMedia(dir, &AttributeSet{Media: map[string][]string{"mail": addresses}})
	require.NoError(t, err)
	require.Len(t, media, 1)

	assert.LessOrEqual(t, len(media[0].Sendto), models.SendtoMaxLen)
	assert.True(t, strings.HasPrefix(media[0].Sendto, addresses[0]),
		"the first recipients survive, later ones are dropped")
}

func TestCreateProvisionedUser(t *testing.T) {
	db := setupTestDB(t)
	dir := provisionFixture(t, db)
	p := NewProvisioner(db, audit.ZerologSink{}, testAuthConfig())

	attrs := &AttributeSet{
		Username: "jdoe",
		Name:     "John",
		Surname:  "Doe",
		Groups:   []string{"hawkmon-admins"},
		Media:    map[string][]string{"mail": {"jdoe@example.com"}},
	}

	now := time.Now()

	user, err := p.CreateProvisionedUser(dir, attrs, now)
	require.NoError(t, err)

	assert.Equal(t, "jdoe", user.Username)
	assert.Equal(t, dir.ID, user.UserDirectoryID)
	assert.Equal(t, dir.GroupMappings[0].RoleID, user.RoleID)
	assert.Equal(t, now.Unix(), user.TSProvisioned)
	assert.Empty(t, user.Passwd, "provisioned users have no local digest")

	var members int64
	db.Model(&models.UserGroupMember{}).Where("user_id = ?", user.ID).Count(&members)
	assert.EqualValues(t, 2, members)

	var media []models.Media
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&media).Error)
	require.Len(t, media, 1)
	assert.Equal(t, "jdoe@example.com", media[0].Sendto)
}

func TestUpdateProvisionedUser_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	dir := provisionFixture(t, db)
	p := NewProvisioner(db, audit.ZerologSink{}, testAuthConfig())

	attrs := &AttributeSet{
		Username: "jdoe",
		Name:     "John",
		Surname:  "Doe",
		Groups:   []string{"hawkmon-admins"},
		Media:    map[string][]string{"mail": {"jdoe@example.com"}},
	}

	user, err := p.CreateProvisionedUser(dir, attrs, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	now := time.Now()

	deprovisioned, err := p.UpdateProvisionedUser(dir, user, attrs, now)
	require.NoError(t, err)
	assert.False(t, deprovisioned)

	var first models.User
	require.NoError(t, db.First(&first, user.ID).Error)
	assert.Equal(t, now.Unix(), first.TSProvisioned, "the sync timestamp always moves")

	// Re-running the identical sync only bumps the timestamp again.
	later := now.Add(5 * time.Second)

	deprovisioned, err = p.UpdateProvisionedUser(dir, user, attrs, later)
	require.NoError(t, err)
	assert.False(t, deprovisioned)

	var second models.User
	require.NoError(t, db.First(&second, user.ID).Error)
	assert.Equal(t, later.Unix(), second.TSProvisioned)
	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, first.RoleID, second.RoleID)

	var members int64
	db.Model(&models.UserGroupMember{}).Where("user_id = ?", user.ID).Count(&members)
	assert.EqualValues(t, 2, members)
}

func TestUpdateProvisionedUser_AttributeChanges(t *testing.T) {
	db := setupTestDB(t)
	dir := provisionFixture(t, db)
	p := NewProvisioner(db, audit.ZerologSink{}, testAuthConfig())

	user, err := p.CreateProvisionedUser(dir, &AttributeSet{
		Username: "jdoe",
		Name:     "John",
		Groups:   []string{"hawkmon-admins"},
	}, time.Now())
	require.NoError(t, err)

	// Demoted from admins: different role, fewer groups, media cleared.
	deprovisioned, err := p.UpdateProvisionedUser(dir, user, &AttributeSet{
		Username: "jdoe",
		Name:     "Johnny",
		Groups:   []string{"hawkmon-users"},
	}, time.Now())
	require.NoError(t, err)
	assert.False(t, deprovisioned)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, "Johnny", stored.Name)
	assert.Equal(t, dir.GroupMappings[1].RoleID, stored.RoleID)

	var members int64
	db.Model(&models.UserGroupMember{}).Where("user_id = ?", user.ID).Count(&members)
	assert.EqualValues(t, 1, members)

	// An empty media result clears media without deprovisioning.
	var media int64
	db.Model(&models.Media{}).Where("user_id = ?", user.ID).Count(&media)
	assert.Zero(t, media)
}

func TestUpdateProvisionedUser_Deprovision(t *testing.T) {
	db := setupTestDB(t)
	dir := provisionFixture(t, db)

	disabledGroup := models.UserGroup{
		Name:        "deprovisioned",
		GUIAccess:   models.GUIAccessDisabled,
		UsersStatus: models.UsersStatusDisabled,
	}
	require.NoError(t, db.Create(&disabledGroup).Error)

	cfg := testAuthConfig()
	cfg.DeprovisionedGroupID = disabledGroup.ID

	p := NewProvisioner(db, audit.ZerologSink{}, cfg)

	user, err := p.CreateProvisionedUser(dir, &AttributeSet{
		Username: "jdoe",
		Groups:   []string{"hawkmon-admins"},
	}, time.Now())
	require.NoError(t, err)

	// No IdP group maps anymore: the user loses role and groups and lands
	// in the well-known disabled group.
	deprovisioned, err := p.UpdateProvisionedUser(dir, user, &AttributeSet{Username: "jdoe"}, time.Now())
	require.NoError(t, err)
	assert.True(t, deprovisioned)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Zero(t, stored.RoleID)

	var memberships []models.UserGroupMember
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&memberships).Error)
	require.Len(t, memberships, 1)
	assert.Equal(t, disabledGroup.ID, memberships[0].GroupID)
}

func TestIsTimeToProvision(t *testing.T) {
	cfg := &config.Auth{ProvisionInterval: time.Hour}
	p := NewProvisioner(setupTestDB(t), audit.ZerologSink{}, cfg)
	now := time.Now()

	assert.True(t, p.IsTimeToProvision(0, now), "never-synced users are due")
	assert.True(t, p.IsTimeToProvision(now.Add(-time.Hour).Unix(), now))
	assert.False(t, p.IsTimeToProvision(now.Add(-time.Minute).Unix(), now))
}
