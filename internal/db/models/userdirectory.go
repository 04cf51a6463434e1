package models

import "time"

// IdpType identifies the protocol spoken by a user directory.
type IdpType string

const (
	// IdpTypeLDAP is an LDAP or Active Directory server.
	IdpTypeLDAP IdpType = "ldap"
	// IdpTypeSAML is a SAML identity provider. Assertions are verified
	// outside this service; the directory record only carries the
	// provisioning mapping rules.
	IdpTypeSAML IdpType = "saml"
)

// BindMode describes how the service authenticates against a directory for
// searches that happen outside of a user login.
type BindMode string

const (
	// BindModeAnonymous searches without binding.
	BindModeAnonymous BindMode = "anonymous"
	// BindModeService binds with fixed service-account credentials.
	BindModeService BindMode = "service"
	// BindModeUserDN can only bind with the logging-in user's own
	// credentials. Background re-provisioning is impossible in this mode.
	BindModeUserDN BindMode = "user_dn"
)

// ProvisionStatus enables or disables JIT provisioning for a directory.
type ProvisionStatus int

const (
	// ProvisionStatusDisabled turns JIT provisioning off.
	ProvisionStatusDisabled ProvisionStatus = 0
	// ProvisionStatusEnabled turns JIT provisioning on.
	ProvisionStatusEnabled ProvisionStatus = 1
)

// UserDirectory represents an external identity provider that owns a set of
// provisioned users. LDAP directories carry full connection settings; SAML
// directories only carry mapping rules.
type UserDirectory struct {
	// ID is the unique identifier for the directory.
	ID uint64 `gorm:"primaryKey"`
	// Name is the unique display name, also the deterministic tie-breaker
	// when several group-level directories compete for a login.
	Name string `gorm:"unique;size:128;not null"`
	// IdpType selects the directory protocol (ldap or saml).
	IdpType IdpType `gorm:"type:varchar(20);not null;default:'ldap'"`
	// Host is the LDAP server hostname or IP address.
	Host string `gorm:"size:255"`
	// Port is the LDAP server port.
	Port int
	// UseTLS enables StartTLS on the LDAP connection.
	UseTLS bool
	// SkipVerify skips TLS certificate verification (testing only).
	SkipVerify bool
	// BaseDN is the base distinguished name for user searches.
	BaseDN string `gorm:"size:255"`
	// BindMode decides whether the directory can be searched without a
	// logging-in user's password.
	BindMode BindMode `gorm:"type:varchar(20);not null;default:'anonymous'"`
	// BindDN is the service account DN used with BindModeService.
	BindDN string `gorm:"size:255"`
	// BindPassword is the service account password used with BindModeService.
	BindPassword string `gorm:"size:255"`
	// SearchAttribute is the attribute matched against the login name
	// (e.g., "uid", "sAMAccountName").
	SearchAttribute string `gorm:"size:128"`
	// GroupBaseDN is the base distinguished name for group searches.
	GroupBaseDN string `gorm:"size:255"`
	// GroupFilter is the LDAP filter for finding the user's groups; the
	// {userdn} placeholder is replaced with the user's DN.
	GroupFilter string `gorm:"size:255"`
	// GroupNameAttr is the attribute containing the group name (e.g., "cn").
	GroupNameAttr string `gorm:"size:128"`
	// NameAttr is the attribute containing the given name.
	NameAttr string `gorm:"size:128"`
	// SurnameAttr is the attribute containing the family name.
	SurnameAttr string `gorm:"size:128"`
	// Timeout is the directory request timeout in seconds.
	Timeout int
	// ProvisionStatus turns JIT provisioning on or off for this directory.
	ProvisionStatus ProvisionStatus `gorm:"not null;default:0"`
	// GroupMappings are the pattern rules mapping IdP group names to a
	// local role and user groups.
	GroupMappings []DirectoryGroupMapping `gorm:"foreignKey:UserDirectoryID"`
	// MediaMappings are the rules mapping IdP attributes to user media.
	MediaMappings []DirectoryMediaMapping `gorm:"foreignKey:UserDirectoryID"`
	// CreatedAt is the timestamp when the directory was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the directory was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the UserDirectory model.
func (UserDirectory) TableName() string {
	return "userdirectory"
}

// ProvisionEnabled reports whether JIT provisioning is active.
func (d *UserDirectory) ProvisionEnabled() bool {
	return d.ProvisionStatus == ProvisionStatusEnabled
}

// CanSearch reports whether the directory can be queried without a
// logging-in user's password in hand. SAML directories are never
// searchable; LDAP directories are unless they bind per-user.
func (d *UserDirectory) CanSearch() bool {
	return d.IdpType == IdpTypeLDAP && d.BindMode != BindModeUserDN
}

// DirectoryGroupMapping maps an IdP group-name pattern to a local role and
// a set of user groups. Patterns support the `*` wildcard.
type DirectoryGroupMapping struct {
	// ID is the unique identifier for the mapping.
	ID uint64 `gorm:"primaryKey"`
	// UserDirectoryID is the owning directory.
	UserDirectoryID uint64 `gorm:"not null;index"`
	// Pattern is the IdP group name pattern (exact or `*` wildcard).
	Pattern string `gorm:"size:255;not null"`
	// RoleID is the role granted when the pattern matches.
	RoleID uint64 `gorm:"not null"`
	// Groups are the local user groups granted when the pattern matches.
	Groups []UserGroup `gorm:"many2many:userdirectory_usrgrp;joinForeignKey:MappingID;joinReferences:GroupID"`
	// CreatedAt is the timestamp when the mapping was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the mapping was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the DirectoryGroupMapping model.
func (DirectoryGroupMapping) TableName() string {
	return "userdirectory_groupmap"
}

// DirectoryMediaMapping maps an IdP attribute to a media type, so that
// provisioning can create notification media (email, SMS) for the user.
type DirectoryMediaMapping struct {
	// ID is the unique identifier for the mapping.
	ID uint64 `gorm:"primaryKey"`
	// UserDirectoryID is the owning directory.
	UserDirectoryID uint64 `gorm:"not null;index"`
	// Name is the display name of the mapping.
	Name string `gorm:"size:128;not null"`
	// MediaTypeID is the media type the attribute value feeds.
	MediaTypeID uint64 `gorm:"not null"`
	// Attribute is the IdP attribute holding the recipient address.
	Attribute string `gorm:"size:128;not null"`
	// CreatedAt is the timestamp when the mapping was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the mapping was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the DirectoryMediaMapping model.
func (DirectoryMediaMapping) TableName() string {
	return "userdirectory_mediamap"
}
