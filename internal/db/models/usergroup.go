package models

import "time"

// GUIAccess selects which authentication method applies to members of a
// user group. The numeric order matters: permission resolution keeps the
// maximum across a user's groups.
type GUIAccess int

const (
	// GUIAccessSystem defers to the server-wide default authentication type.
	GUIAccessSystem GUIAccess = 0
	// GUIAccessInternal forces internal (password digest) authentication.
	GUIAccessInternal GUIAccess = 1
	// GUIAccessDirectory forces directory (LDAP/SAML) authentication.
	GUIAccessDirectory GUIAccess = 2
	// GUIAccessDisabled denies system access to members entirely.
	GUIAccessDisabled GUIAccess = 3
)

// UsersStatus is the group-level enabled/disabled switch for members.
type UsersStatus int

const (
	// UsersStatusEnabled allows members of the group to authenticate.
	UsersStatusEnabled UsersStatus = 0
	// UsersStatusDisabled blocks authentication for all members.
	UsersStatusDisabled UsersStatus = 1
)

// DebugMode is the group-level debug switch inherited by members.
type DebugMode int

const (
	// DebugModeDisabled is the default.
	DebugModeDisabled DebugMode = 0
	// DebugModeEnabled turns on debug output for members.
	DebugModeEnabled DebugMode = 1
)

// UserGroup represents a user group. Group attributes aggregate onto the
// member: any group enabling debug mode enables it, any group disabling
// users disables them, and the strictest GUI access wins.
type UserGroup struct {
	// ID is the unique identifier for the group.
	ID uint64 `gorm:"primaryKey"`
	// Name is the display name of the group.
	Name string `gorm:"unique;size:100;not null"`
	// GUIAccess selects the authentication method for members.
	GUIAccess GUIAccess `gorm:"not null;default:0"`
	// UsersStatus enables or disables all members.
	UsersStatus UsersStatus `gorm:"not null;default:0"`
	// DebugMode enables debug output for members.
	DebugMode DebugMode `gorm:"not null;default:0"`
	// UserDirectoryID is a group-level directory override deciding which
	// directory authenticates members; 0 means no override.
	UserDirectoryID uint64
	// UserDirectory is the associated directory, when overridden.
	UserDirectory *UserDirectory `gorm:"foreignKey:UserDirectoryID"`
	// CreatedAt is the timestamp when the group was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the group was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the UserGroup model.
func (UserGroup) TableName() string {
	return "usrgrp"
}

// UserGroupMember represents the many-to-many relationship between users
// and user groups. For directory-owned users these rows are rewritten on
// every provisioning sync.
type UserGroupMember struct {
	// UserID is the ID of the user in this membership.
	UserID uint64 `gorm:"primaryKey;column:user_id"`
	// GroupID is the ID of the group in this membership.
	GroupID uint64 `gorm:"primaryKey;column:group_id"`
	// User is the associated user. Memberships cascade away with the user.
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// Group is the associated group. Memberships cascade away with the group.
	Group UserGroup `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the membership was created (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the UserGroupMember model.
func (UserGroupMember) TableName() string {
	return "users_groups"
}
